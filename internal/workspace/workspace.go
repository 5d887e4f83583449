// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace provides scoped scratch directories. Each request owns
// one Workspace; everything written into it is removed by Cleanup, which is
// safe to call any number of times from any exit path.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by SaveUpload when the stream exceeds its limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Workspace is a caller-owned temporary directory.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// New creates a fresh workspace under root.
func New(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch root %s: %w", root, err)
	}
	dir := filepath.Join(root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory. Only the base of name is
// used, so client-supplied names cannot escape the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(filepath.Clean("/"+name)))
}

// UniquePath returns a collision-free path with the given extension.
func (w *Workspace) UniquePath(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return filepath.Join(w.dir, uuid.NewString())
	}
	return filepath.Join(w.dir, uuid.NewString()+"."+ext)
}

// SaveUpload copies r into a uuid-named file that keeps the extension of
// name. When limit is positive and r yields more than limit bytes, the
// partial file is removed and ErrTooLarge is returned.
func (w *Workspace) SaveUpload(name string, r io.Reader, limit int64) (string, int64, error) {
	path := w.UniquePath(filepath.Ext(name))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("creating upload file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", n, fmt.Errorf("saving upload %s: %w", name, err)
	}
	if limit > 0 && n > limit {
		os.Remove(path)
		return "", n, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return path, n, nil
}

// Cleanup removes the workspace and everything in it. Only the first call
// does any work; later calls return the first result.
func (w *Workspace) Cleanup() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.err = fmt.Errorf("removing workspace %s: %w", w.dir, err)
		}
	})
	return w.err
}

// Artifact is a file with a single owner responsible for deleting it.
type Artifact struct {
	Path string
	once sync.Once
}

// NewArtifact wraps path.
func NewArtifact(path string) *Artifact {
	return &Artifact{Path: path}
}

// Remove deletes the file if it still exists. Repeated calls are no-ops.
func (a *Artifact) Remove() error {
	var err error
	a.once.Do(func() {
		if rmErr := os.Remove(a.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
	})
	return err
}

// Sweep removes workspace directories under root whose modification time is
// older than retention. It returns how many were removed. A missing root is
// not an error.
func Sweep(root string, retention time.Duration, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading scratch root %s: %w", root, err)
	}

	cutoff := time.Now().Add(-retention)
	cleaned := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove stale workspace", "path", path, "error", err)
			continue
		}
		cleaned++
	}
	if cleaned > 0 {
		logger.Info("swept stale workspaces", "count", cleaned, "root", root)
	}
	return cleaned, nil
}
