// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/zconvert/internal/offline"
)

// Sources of a conversion outcome.
const (
	SourceServer  = "server"
	SourceOffline = "offline"
)

// Outcome is the result of a Fallback conversion.
type Outcome struct {
	Filename string
	MIMEType string
	Data     []byte
	Source   string
	Degraded bool
	Notice   string
}

// Fallback converts remotely when possible and offline otherwise. A nil
// Remote means offline only.
type Fallback struct {
	Remote *Client
	Logger *slog.Logger
}

// Convert tries the server first. Transport failures, 5xx responses and 413
// (the server's size limit) fall through to the offline converter; other
// 4xx responses are returned as they are.
func (f *Fallback) Convert(ctx context.Context, path, target string) (Outcome, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if f.Remote != nil {
		res, err := f.Remote.Convert(ctx, path, target)
		if err == nil {
			return Outcome{
				Filename: res.Filename,
				MIMEType: res.MIMEType,
				Data:     res.Data,
				Source:   SourceServer,
			}, nil
		}
		if !shouldFallback(ctx, err) {
			return Outcome{}, err
		}
		logger.Warn("server conversion failed, falling back to offline",
			"server", f.Remote.BaseURL(),
			"file", filepath.Base(path),
			"error", err,
		)
	}

	return convertOffline(path, target)
}

func shouldFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var serr *ServerError
	if errors.As(err, &serr) {
		return serr.Status >= http.StatusInternalServerError ||
			serr.Status == http.StatusRequestEntityTooLarge
	}
	return true
}

func convertOffline(path, target string) (Outcome, error) {
	// Reject before touching the input.
	if err := offline.Check(path, target); err != nil {
		return Outcome{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := offline.Convert(filepath.Base(path), data, target)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Filename: OutputName(path, target),
		MIMEType: res.MIMEType,
		Data:     res.Data,
		Source:   SourceOffline,
		Degraded: res.Degraded,
		Notice:   res.Notice,
	}, nil
}
