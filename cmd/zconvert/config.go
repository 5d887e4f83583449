// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/zconvert/internal/tool"
	"github.com/pdiddy/zconvert/pkg/types"
)

// registerDefaults makes every config key known to v so that environment
// variables such as ZCONVERT_SERVER_ADDR override it.
func registerDefaults(v *viper.Viper, cfg types.Config) {
	s := cfg.Server
	v.SetDefault("server.addr", s.Addr)
	v.SetDefault("server.environment", s.Environment)
	v.SetDefault("server.cors_origins", s.CORSOrigins)
	v.SetDefault("server.read_timeout", s.ReadTimeout)
	v.SetDefault("server.max_request_bytes", s.MaxRequestBytes)
	v.SetDefault("server.scratch_dir", s.ScratchDir)
	v.SetDefault("server.scratch_retention", s.ScratchRetention)
	v.SetDefault("server.sweep_interval", s.SweepInterval)
	v.SetDefault("server.log_level", s.LogLevel)
	v.SetDefault("server.log_format", s.LogFormat)

	t := cfg.Tools
	v.SetDefault("tools.timeout", t.Timeout)
	v.SetDefault("tools.libreoffice", t.LibreOffice)
	v.SetDefault("tools.pandoc", t.Pandoc)
	v.SetDefault("tools.imagemagick", t.ImageMagick)
	v.SetDefault("tools.vips", t.Vips)
	v.SetDefault("tools.container.enabled", t.Container.Enabled)
	v.SetDefault("tools.container.image", t.Container.Image)

	v.SetDefault("image.quality", cfg.Image.Quality)

	for _, c := range types.Categories {
		v.SetDefault("limits.max_size."+string(c), cfg.Limits.MaxSize[c])
		v.SetDefault("limits.max_count."+string(c), cfg.Limits.MaxCount[c])
	}
	v.SetDefault("limits.max_batch", cfg.Limits.MaxBatch)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.max_results", cfg.History.MaxResults)

	v.SetDefault("client.server_url", cfg.Client.ServerURL)
	v.SetDefault("client.timeout", cfg.Client.Timeout)
	v.SetDefault("client.max_retries", cfg.Client.MaxRetries)
	v.SetDefault("client.user_agent", cfg.Client.UserAgent)
}

// loadConfig decodes the global viper instance over the defaults.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	// Development logs at debug unless a level was chosen explicitly.
	if cfg.Server.Environment == "dev" && cfg.Server.LogLevel == types.DefaultConfig().Server.LogLevel {
		cfg.Server.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg types.ServerConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newRunner returns the tool runner for cfg: a container runtime when
// container mode is enabled, local binaries otherwise.
func newRunner(ctx context.Context, cfg types.ToolsConfig, logger *slog.Logger) (tool.Runner, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if !cfg.Container.Enabled {
		return tool.NewLocal(timeout), nil
	}

	c, err := tool.DetectContainer(cfg.Container.Image, timeout)
	if err != nil {
		return nil, err
	}
	if err := c.ImageExists(ctx); err != nil {
		logger.Warn("tool image not available; external converters will fail", "image", c.Image(), "error", err)
	}
	logger.Info("running tools in container", "runtime", c.Name(), "image", c.Image())
	return c, nil
}
