package main

import (
	"github.com/pmxy/gallery/internal/config"
	"github.com/pmxy/gallery/internal/services"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newThumbsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbs",
		Short: "Generate missing thumbnails",
		Long: `Walks the originals directory and creates a 300px-wide thumbnail for
every image that has none. Existing thumbnails are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			assetService, err := services.NewAssetService(cfg)
			if err != nil {
				return err
			}
			n, err := services.NewThumbnailService(assetService).RebuildMissing(cmd.Context())
			klog.Infof("%d thumbnails created", n)
			return err
		},
	}
}
