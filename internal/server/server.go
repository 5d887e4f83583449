// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes conversion over HTTP: single-file and batch
// conversion, the supported-formats document, health and history.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/workspace"
	"github.com/pdiddy/zconvert/pkg/types"
)

// Converter runs conversions inside a request workspace.
// *convert.Service implements it.
type Converter interface {
	Convert(ctx context.Context, ws convert.Scratch, req types.ConversionRequest) (types.ConversionResult, error)
	ConvertBatch(ctx context.Context, ws convert.Scratch, reqs []types.ConversionRequest, w io.Writer) types.BatchReport
}

// History answers GET /history. *history.Store implements it.
type History interface {
	Recent(ctx context.Context, limit int) ([]types.ConversionRecord, error)
}

// Options configures a Server.
type Options struct {
	Config    types.ServerConfig
	Limits    types.LimitsConfig
	Converter Converter
	// History is optional; without it GET /history returns 404.
	History History
	// Token enables bearer auth when non-empty.
	Token  string
	Logger *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg       types.ServerConfig
	limits    types.LimitsConfig
	converter Converter
	history   History
	token     string
	logger    *slog.Logger
}

const shutdownTimeout = 30 * time.Second

// New returns a Server. Zero-valued config fields take their defaults.
func New(opts Options) *Server {
	def := types.DefaultConfig().Server
	cfg := opts.Config
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = def.ScratchDir
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = def.MaxRequestBytes
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.ScratchRetention <= 0 {
		cfg.ScratchRetention = def.ScratchRetention
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = def.CORSOrigins
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		limits:    opts.Limits,
		converter: opts.Converter,
		history:   opts.History,
		token:     opts.Token,
		logger:    logger,
	}
}

// Handler returns the routed handler wrapped in middleware. Every route is
// also mounted under /api/files.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, prefix := range []string{"", "/api/files"} {
		mux.HandleFunc("POST "+prefix+"/convert", s.handleConvert)
		mux.HandleFunc("POST "+prefix+"/convert-multiple", s.handleConvertMultiple)
		mux.HandleFunc("GET "+prefix+"/supported-formats", s.handleSupportedFormats)
		mux.HandleFunc("GET "+prefix+"/health", s.handleHealth)
		mux.HandleFunc("GET "+prefix+"/history", s.handleHistory)
	}

	var handler http.Handler = mux
	handler = bearerAuth(s.token)(handler)
	handler = recovery(s.logger)(handler)
	handler = requestID(s.logger)(handler)
	handler = corsHandler(s.cfg.CORSOrigins)(handler)
	return handler
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
// The scratch sweeper runs for the lifetime of the server.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		// Conversions may run for the full tool timeout before the first byte.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// sweep removes abandoned workspaces every SweepInterval until ctx is done.
func (s *Server) sweep(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := workspace.Sweep(s.cfg.ScratchDir, s.cfg.ScratchRetention, s.logger); err != nil {
				s.logger.Warn("scratch sweep failed", "error", err)
			}
		}
	}
}
