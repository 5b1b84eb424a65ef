package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theTechGoose/rune/analysis"
	"github.com/theTechGoose/rune/watch"
)

func validateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Analyze documents and report diagnostics",
		Long: `Validate parses and analyzes rune documents, printing every
diagnostic as path:span: severity: message. With no arguments the
configured include globs are expanded from the current directory.`,
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

			opts := analysis.Options{ColumnLimit: cfg.Analyzer.ColumnLimit}
			failed := 0
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				result := analysis.AnalyzeWith(string(data), opts)
				if !quiet {
					printDiagnostics(cmd.OutOrStdout(), filepath.ToSlash(path), result)
				}
				if result.HasErrors() {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents have errors", failed, len(paths))
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%d documents valid\n", len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress diagnostic output; exit code only")
	return cmd
}

// printDiagnostics renders one document's findings, one per line.
func printDiagnostics(w io.Writer, path string, result *analysis.Result) {
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "%s:%s: %s: %s\n", path, d.Span, d.Severity, d.Message)
		if d.Related != nil {
			fmt.Fprintf(w, "%s:%s: note: first occurrence here\n", path, d.Related)
		}
	}
}
