// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/history"
	"github.com/pdiddy/zconvert/internal/secrets"
	"github.com/pdiddy/zconvert/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP server",
	Long: `Serve starts the HTTP server: POST /convert for a single file,
POST /convert-multiple for a zip of up to ten files, GET /supported-formats,
GET /health and GET /history. Routes are also mounted under /api/files.

Abandoned scratch directories are swept periodically. SIGINT or SIGTERM
stops accepting requests and waits for in-flight conversions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("scratch-dir", "", "root directory for per-request scratch space")
	serveCmd.Flags().String("token", "", "bearer token required on every route except /health (default: .secrets/api-token)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.scratch_dir", serveCmd.Flags().Lookup("scratch-dir"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	logger := newLogger(cfg.Server, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("server configuration",
		"environment", cfg.Server.Environment,
		"addr", cfg.Server.Addr,
		"scratch_dir", cfg.Server.ScratchDir,
		"container", cfg.Tools.Container.Enabled,
		"history", cfg.History.Enabled,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(ctx, cfg.Tools, logger)
	if err != nil {
		return err
	}

	opts := convert.Options{
		Runner: runner,
		Tools:  cfg.Tools,
		Image:  cfg.Image,
		Logger: logger,
	}
	var hist server.History
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Recorder = store
		hist = store
	}

	flagToken, _ := cmd.Flags().GetString("token")
	token := loadedSecrets.Get(secrets.APIToken, flagToken)
	if token == "" {
		logger.Warn("no API token configured; the server accepts unauthenticated requests")
	}

	srv := server.New(server.Options{
		Config:    cfg.Server,
		Limits:    cfg.Limits,
		Converter: convert.New(opts),
		History:   hist,
		Token:     token,
		Logger:    logger,
	})
	return srv.Run(ctx)
}
