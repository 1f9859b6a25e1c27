package main

import (
	goflag "flag"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Gallery server: named image galleries with thumbnails",
		Long: `Serves named image galleries to a front-end site.

Galleries live in a single JSON document; uploaded originals and their
300px thumbnails are stored in two directories and served statically.
Configuration comes from the environment or a .env file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				klog.V(1).Info("No .env file found, using environment variables")
			}
		},
		// running without a subcommand starts the server
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	goflags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(goflags)
	cmd.PersistentFlags().AddGoFlagSet(goflags)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newThumbsCmd())

	return cmd
}
