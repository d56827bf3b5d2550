package main

import (
	"pghelp/config"
	"pghelp/store"
	"pghelp/web"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		outputDir string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the help comparison web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			srv, err := web.NewServer(store.New(cfg.OutputDir))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Help-file tree root (default help_files)")
	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	return cmd
}
