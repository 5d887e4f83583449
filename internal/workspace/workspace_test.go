// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndCleanup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	ws, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(ws.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, root, filepath.Dir(ws.Dir()))

	require.NoError(t, os.WriteFile(ws.Path("a.txt"), []byte("x"), 0o644))

	require.NoError(t, ws.Cleanup())
	require.NoError(t, ws.Cleanup(), "second cleanup must be a no-op")
	_, err = os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspacesAreDistinct(t *testing.T) {
	root := t.TempDir()
	a, err := New(root)
	require.NoError(t, err)
	b, err := New(root)
	require.NoError(t, err)
	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.NotEqual(t, a.UniquePath("png"), a.UniquePath("png"))
}

func TestPathStaysInside(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Cleanup() })

	for _, name := range []string{"../../etc/passwd", "/abs/file.txt", "plain.md"} {
		p := ws.Path(name)
		assert.Equal(t, ws.Dir(), filepath.Dir(p), name)
	}
}

func TestUniquePathExtension(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Cleanup() })

	assert.True(t, strings.HasSuffix(ws.UniquePath(".pdf"), ".pdf"))
	assert.True(t, strings.HasSuffix(ws.UniquePath("html"), ".html"))
	assert.Equal(t, "", filepath.Ext(ws.UniquePath("")))
}

func TestSaveUpload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int64
		wantErr error
	}{
		{name: "within limit", content: "hello", limit: 5},
		{name: "no limit", content: strings.Repeat("a", 1000)},
		{name: "over limit", content: "hello!", limit: 5, wantErr: ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := New(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { ws.Cleanup() })

			path, n, err := ws.SaveUpload("Report.DOCX", strings.NewReader(tt.content), tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				entries, _ := os.ReadDir(ws.Dir())
				assert.Empty(t, entries, "partial upload must be removed")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.content)), n)
			assert.Equal(t, ".DOCX", filepath.Ext(path))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSaveUploadReadError(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Cleanup() })

	_, _, err = ws.SaveUpload("a.txt", io.MultiReader(strings.NewReader("x"), failingReader{}), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestArtifactRemoveOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	a := NewArtifact(path)
	require.NoError(t, a.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A new file at the same path is not touched by a second Remove.
	require.NoError(t, os.WriteFile(path, []byte("new"), 0o644))
	require.NoError(t, a.Remove())
	_, err = os.Stat(path)
	assert.NoError(t, err)

	// Removing an already-missing file is fine.
	require.NoError(t, NewArtifact(filepath.Join(t.TempDir(), "missing")).Remove())
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stale := filepath.Join(root, uuid.NewString())
	fresh := filepath.Join(root, uuid.NewString())
	foreign := filepath.Join(root, "keep-me")
	for _, d := range []string{stale, fresh, foreign} {
		require.NoError(t, os.Mkdir(d, 0o755))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(foreign, old, old))

	n, err := Sweep(root, time.Hour, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	assert.DirExists(t, fresh)
	assert.DirExists(t, foreign, "directories that are not workspaces are left alone")

	n, err = Sweep(filepath.Join(root, "missing"), time.Hour, logger)
	require.NoError(t, err)
	assert.Zero(t, n)
}
