// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/zconvert/pkg/types"
)

func converted(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestWriteZip(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{OriginalFilename: "report.docx", Path: converted(t, dir, "a1.pdf", "one")},
		{OriginalFilename: "report.doc", Path: converted(t, dir, "a2.pdf", "two")},
		{OriginalFilename: "photo.heic", Path: converted(t, dir, "a3.jpg", "three")},
		{OriginalFilename: "report.odt", Path: converted(t, dir, "a4.pdf", "four")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, entries))

	files := readZip(t, buf.Bytes())
	assert.Equal(t, map[string]string{
		"report.pdf":   "one",
		"report-1.pdf": "two",
		"photo.jpg":    "three",
		"report-2.pdf": "four",
	}, files)

	for _, e := range entries {
		_, err := os.Stat(e.Path)
		assert.True(t, os.IsNotExist(err), "converted file %s must be removed after archiving", e.Path)
	}
}

func TestWriteZipMissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := WriteZip(&buf, []Entry{{OriginalFilename: "a.txt", Path: filepath.Join(t.TempDir(), "gone.html")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.html")
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		original, path, want string
	}{
		{"notes.md", "/tmp/x/123.html", "notes.html"},
		{"archive.tar.gz", "/tmp/x/1.txt", "archive.tar.txt"},
		{`C:\Users\me\Report.DOCX`, "/tmp/x/1.pdf", "Report.pdf"},
		{"../../etc/passwd", "/tmp/x/1.txt", "passwd.txt"},
		{"", "/tmp/x/1.png", "file.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntryName(Entry{OriginalFilename: tt.original, Path: tt.path}), tt.original)
	}
}

func TestEntriesFromReport(t *testing.T) {
	report := types.BatchReport{
		Converted: []types.BatchItem{
			{Request: types.ConversionRequest{OriginalFilename: "a.txt"}, Result: types.ConversionResult{OutputPath: "/w/1.html"}},
		},
		Errors: []types.FileError{{File: "b.pdf", Error: "unsupported"}},
	}
	assert.Equal(t, []Entry{{OriginalFilename: "a.txt", Path: "/w/1.html"}}, EntriesFromReport(report))
}
