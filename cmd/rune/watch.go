package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theTechGoose/rune/analysis"
	"github.com/theTechGoose/rune/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-analyze documents as they change",
		Long: `Watch analyzes every document under root once, then re-analyzes
on each change and prints the fresh diagnostics. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			root, err = filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolve root: %w", err)
			}

			w, err := watch.New(watch.Config{
				Root:       root,
				Extensions: cfg.Analyzer.Extensions,
				Debounce:   cfg.Watch.Debounce,
				Options:    analysis.Options{ColumnLimit: cfg.Analyzer.ColumnLimit},
				Logger:     slog.Default(),
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			initial, err := w.Prime(ctx)
			if err != nil {
				return fmt.Errorf("initial analysis: %w", err)
			}
			for _, ev := range initial {
				printEvent(cmd, ev)
			}

			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%d documents)\n", root, len(initial))

			for {
				select {
				case <-ctx.Done():
					return w.Stop()
				case ev := <-w.Events():
					printEvent(cmd, ev)
				}
			}
		},
	}
	return cmd
}

func printEvent(cmd *cobra.Command, ev watch.Event) {
	out := cmd.OutOrStdout()
	switch {
	case ev.Error != nil:
		fmt.Fprintf(out, "%s: %v\n", ev.Path, ev.Error)
	case ev.Operation == watch.OpDelete:
		fmt.Fprintf(out, "%s: removed\n", ev.Path)
	default:
		printDiagnostics(out, ev.Path, ev.Result)
		if !ev.Result.HasErrors() {
			fmt.Fprintf(out, "%s: ok\n", ev.Path)
		}
	}
}
