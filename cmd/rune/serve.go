package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theTechGoose/rune/analysis"
	"github.com/theTechGoose/rune/server"
	"github.com/theTechGoose/rune/session"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analysis queries over HTTP",
		Long: `Serve starts an HTTP server exposing a session of analyzed
documents: push document versions, then query diagnostics, hover text,
definitions, references and live scope. Metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			store := session.NewStore(
				analysis.Options{ColumnLimit: cfg.Analyzer.ColumnLimit},
				slog.Default(),
			)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv := server.New(store, slog.Default())
			if err := srv.Run(ctx, addr); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to config server.addr)")
	return cmd
}
