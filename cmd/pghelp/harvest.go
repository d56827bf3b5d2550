package main

import (
	"context"
	"fmt"
	"log/slog"

	"pghelp/cmd/pghelp/ui"
	"pghelp/config"
	"pghelp/harvest"
	"pghelp/infra/postgres"
	"pghelp/infra/sqlite"
	"pghelp/store"

	"github.com/spf13/cobra"
)

func newHarvestCmd() *cobra.Command {
	var (
		outputDir   string
		imageRepo   string
		publishBase int
	)

	cmd := &cobra.Command{
		Use:   "harvest [version...]",
		Short: "Extract psql help text from disposable server containers",
		Long: `Harvest starts one disposable PostgreSQL container per version, lists
the psql help topics inside it, writes each topic's help text to
help_files/postgres_<version>/<topic>.txt, and removes every container
when done — including after failures.

Versions given as arguments override the configured list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if imageRepo != "" {
				cfg.ImageRepo = imageRepo
			}
			if publishBase != 0 {
				cfg.PublishBasePort = publishBase
			}
			versions := cfg.Versions
			if len(args) > 0 {
				versions = args
			}

			var opts []postgres.Option
			if cfg.PublishBasePort > 0 {
				ports := make(map[string]int, len(versions))
				for i, v := range versions {
					ports[v] = cfg.PublishBasePort + i
				}
				opts = append(opts, postgres.WithPublishPorts(ports))
			}

			rt, err := postgres.NewFromEnv(cfg.ImageRepo, cfg.SuperuserPassword, opts...)
			if err != nil {
				return err
			}
			st := store.New(cfg.OutputDir)

			pipelineOpts := []harvest.Option{}
			var finish func()
			if db, err := sqlite.Open(config.DataDir()); err != nil {
				slog.Warn("Run history unavailable.", "err", err)
			} else {
				defer db.Close()
				rec, err := db.BeginRun(cmd.Context())
				if err != nil {
					slog.Warn("Run history unavailable.", "err", err)
				} else {
					pipelineOpts = append(pipelineOpts, harvest.WithRecorder(rec))
					finish = func() {
						// Runs even when the harvest was interrupted.
						if err := rec.Finish(context.WithoutCancel(cmd.Context())); err != nil {
							slog.Warn("Finish run record failed.", "err", err)
						}
					}
				}
			}

			results := harvest.New(rt, st, versions, pipelineOpts...).Run(cmd.Context())
			if finish != nil {
				finish()
			}

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, r := range results {
				detail := ""
				if r.Err != nil {
					failed++
					detail = r.Err.Error()
				}
				rows = append(rows, []string{
					r.Version,
					fmt.Sprint(r.Topics),
					ui.Status(r.Status()),
					detail,
				})
			}
			fmt.Println(ui.Table([]string{"Version", "Topics", "Status", "Detail"}, rows))

			if failed > 0 {
				return fmt.Errorf("%d of %d versions failed", failed, len(results))
			}
			fmt.Println(ui.SuccessMsg("Harvested %d versions into %s", len(results), cfg.OutputDir))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Help-file tree root (default help_files)")
	cmd.Flags().StringVar(&imageRepo, "image-repo", "", "Image repository (default postgres)")
	cmd.Flags().IntVar(&publishBase, "publish-base", 0, "Publish each instance's 5432 starting at this host port")
	return cmd
}
