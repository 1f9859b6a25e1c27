package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pmxy/gallery/internal/config"
	"github.com/pmxy/gallery/internal/handlers"
	"github.com/pmxy/gallery/internal/models"
	"github.com/pmxy/gallery/internal/services"
	"github.com/pmxy/gallery/internal/store"
	"k8s.io/klog/v2"
)

// app holds the wired services and the resources that need closing.
type app struct {
	cfg      *config.Config
	services handlers.Services
	thumbs   *services.ThumbnailService
	closers  []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	docs, err := a.documentStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	assetService, err := services.NewAssetService(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.thumbs = services.NewThumbnailService(assetService)

	var mirror services.AssetMirror
	if cfg.MirrorEnabled() {
		s3Service, err := services.NewS3Service(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init S3 mirror: %w", err)
		}
		mirror = s3Service
		klog.Infof("Mirroring uploads to bucket %s", cfg.MediaS3Bucket)
	}

	auditService, err := a.auditService()
	if err != nil {
		a.Close()
		return nil, err
	}

	authService, err := services.NewAuthService(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.services = handlers.Services{
		Gallery: services.NewGalleryService(docs, assetService, a.thumbs, mirror),
		Assets:  assetService,
		Auth:    authService,
		Audit:   auditService,
		QR:      services.NewQRService(cfg, assetService),
	}
	return a, nil
}

func (a *app) documentStore() (store.DocumentStore, error) {
	if a.cfg.DocumentBackend == config.BackendRedis {
		client := models.InitRedis(a.cfg)
		a.closers = append(a.closers, client.Close)
		return store.NewRedisStore(client, a.cfg.RedisDocumentKey), nil
	}
	fileStore, err := store.NewFileStore(a.cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	klog.Infof("Using document %s", fileStore.Path())
	return fileStore, nil
}

func (a *app) auditService() (*services.AuditService, error) {
	if !a.cfg.AuditEnabled {
		return services.NewAuditService(nil), nil
	}
	db, err := models.InitDB(a.cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return services.NewAuditService(db), nil
}

func (a *app) router() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return handlers.NewRouter(a.cfg, a.services)
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			klog.Warningf("close: %v", err)
		}
	}
}
