package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theTechGoose/rune/format"
	"github.com/theTechGoose/rune/watch"
)

func fmtCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt [files...]",
		Short: "Normalize document layout",
		Long: `Fmt rewrites documents with canonical structural indentation and
collapses oversized blank runs. With --check no file is modified; the
command fails if any document would change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				docs, err := watch.Discover(".", cfg.Analyzer.Include)
				if err != nil {
					return err
				}
				paths = docs
			}
			if len(paths) == 0 {
				return fmt.Errorf("no documents found")
			}

			dirty := 0
			for _, path := range paths {
				changed, err := format.File(path, check)
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintln(cmd.OutOrStdout(), path)
					dirty++
				}
			}

			if check && dirty > 0 {
				return fmt.Errorf("%d of %d documents need formatting", dirty, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Report unformatted documents without rewriting them")
	return cmd
}
