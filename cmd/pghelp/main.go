// Command pghelp harvests psql help text from disposable PostgreSQL
// containers and compares it across server versions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pghelp/cmd/pghelp/ui"
	"pghelp/internal/logging"
	"pghelp/internal/support/buildinfo"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug   bool
		noColor bool
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "pghelp",
		Short:         "Harvest and compare PostgreSQL help text across versions",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Configure(noColor)

			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")

	root.AddCommand(newHarvestCmd())
	root.AddCommand(newVersionsCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
