package main

import (
	"fmt"
	"log/slog"

	"pghelp/cmd/pghelp/ui"
	"pghelp/config"
	"pghelp/infra/sqlite"
	"pghelp/store"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List harvested versions and their last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			st := store.New(cfg.OutputDir)
			versions, err := st.Versions()
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println(ui.WarnMsg("No harvested versions under %s", cfg.OutputDir))
				return nil
			}

			history := map[string]sqlite.VersionRun{}
			if db, err := sqlite.Open(config.DataDir()); err != nil {
				slog.Debug("Run history unavailable.", "err", err)
			} else {
				defer db.Close()
				if last, err := db.LastRuns(cmd.Context()); err == nil {
					history = last
				}
			}

			rows := make([][]string, 0, len(versions))
			for _, v := range versions {
				topics, err := st.Topics(v)
				if err != nil {
					return err
				}
				lastRun, status := "-", "-"
				if run, ok := history[v]; ok {
					lastRun = run.RecordedAt.Local().Format("2006-01-02 15:04")
					status = ui.Status(run.Status)
				}
				rows = append(rows, []string{
					store.DirName(v),
					fmt.Sprint(len(topics)),
					status,
					lastRun,
				})
			}
			fmt.Println(ui.Table([]string{"Version", "Topics", "Status", "Last Harvest"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Help-file tree root (default help_files)")
	return cmd
}
