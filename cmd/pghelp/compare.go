package main

import (
	"errors"
	"fmt"
	"os"

	"pghelp/cmd/pghelp/ui"
	"pghelp/config"
	"pghelp/diff"
	"pghelp/store"

	"github.com/spf13/cobra"
)

var errNothingHarvested = errors.New("no harvested versions found; run 'pghelp harvest' first")

func newCompareCmd() *cobra.Command {
	var (
		outputDir   string
		markdownOut bool
		showDiffs   bool
	)

	cmd := &cobra.Command{
		Use:   "compare [version version...]",
		Short: "Compare harvested help text across versions",
		Long: `Compare reads the harvested help files for two or more versions and
reports the topics whose text differs. With no arguments every
harvested version is compared.

Examples:
  # Compare two versions
  pghelp compare 14 16

  # Compare everything harvested, with per-topic line diffs
  pghelp compare --diff

  # Emit a Markdown report
  pghelp compare 14 16 --markdown > report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			st := store.New(cfg.OutputDir)

			versions := args
			if len(versions) == 0 {
				versions, err = st.Versions()
				if err != nil {
					return err
				}
			}
			if len(versions) == 0 {
				return errNothingHarvested
			}
			if len(versions) < 2 {
				return fmt.Errorf("at least two versions are required for comparison (got %d)", len(versions))
			}

			helpByVersion := make(map[string]map[string]string, len(versions))
			for _, v := range versions {
				topics, err := st.Topics(v)
				if err != nil {
					return fmt.Errorf("read help files for %s: %w", v, err)
				}
				helpByVersion[v] = topics
			}

			cmp := diff.Compare(versions, helpByVersion)

			if markdownOut {
				return diff.WriteMarkdown(os.Stdout, cmp)
			}
			return printComparison(cmp, showDiffs)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Help-file tree root (default help_files)")
	cmd.Flags().BoolVarP(&markdownOut, "markdown", "m", false, "Output comparison as Markdown")
	cmd.Flags().BoolVarP(&showDiffs, "diff", "d", false, "Show per-topic line diffs")
	return cmd
}

func printComparison(cmp *diff.Comparison, showDiffs bool) error {
	fmt.Println(ui.KeyValues("  ",
		ui.KV("Baseline", cmp.Versions[0]),
		ui.KV("Compared", fmt.Sprint(cmp.Versions[1:])),
		ui.KV("Changed topics", fmt.Sprint(len(cmp.Changed))),
	))

	if len(cmp.Changed) == 0 {
		fmt.Println(ui.SuccessMsg("No differences found"))
		return nil
	}

	last := cmp.Versions[len(cmp.Versions)-1]
	for _, topic := range cmp.Changed {
		fmt.Println(ui.InfoMsg("%s", topic))
		if !showDiffs {
			continue
		}
		texts := cmp.Texts[topic]
		for _, line := range diff.Lines(texts[cmp.Versions[0]], texts[last]) {
			switch line.Kind {
			case diff.LineDeleted:
				fmt.Println(ui.ErrorStyle.Render("  - " + line.Text))
			case diff.LineAdded:
				fmt.Println(ui.SuccessStyle.Render("  + " + line.Text))
			default:
				fmt.Println(ui.Muted("    " + line.Text))
			}
		}
	}
	return nil
}
