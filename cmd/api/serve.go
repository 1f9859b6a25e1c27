package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pmxy/gallery/internal/config"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the gallery API. In development (ENV=development or dev=true)
it listens on plain HTTP; in production TLS_CERT_FILE and TLS_KEY_FILE
are required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.ThumbsRebuildOnStart {
		go func() {
			klog.Info("ThumbsRebuildOnStart enabled: rebuilding missing thumbnails...")
			n, err := a.thumbs.RebuildMissing(ctx)
			if err != nil {
				klog.Warningf("Thumbnail rebuild stopped: %v", err)
			}
			klog.Infof("Thumbnail rebuild complete: %d created", n)
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router(),
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		klog.Info("=== Pmxy Gallery Server ===")
		var err error
		if cfg.IsProduction() {
			klog.Infof("Listening on port %s (TLS)", cfg.Port)
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			klog.Infof("Listening on development port %s", cfg.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		klog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		klog.Info("Server exited")
		return nil
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}
}
