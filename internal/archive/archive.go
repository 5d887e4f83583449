// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive packages batch conversion results as a zip stream.
package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/zconvert/internal/workspace"
	"github.com/pdiddy/zconvert/pkg/types"
)

// Entry is one converted file to package.
type Entry struct {
	// OriginalFilename is the name the client uploaded.
	OriginalFilename string
	// Path is the converted file on disk.
	Path string
}

// EntriesFromReport lists the converted files of a batch.
func EntriesFromReport(report types.BatchReport) []Entry {
	entries := make([]Entry, 0, len(report.Converted))
	for _, item := range report.Converted {
		entries = append(entries, Entry{
			OriginalFilename: item.Request.OriginalFilename,
			Path:             item.Result.OutputPath,
		})
	}
	return entries
}

// WriteZip writes entries to w as a zip archive. Each entry is named after
// the uploaded file's stem with the converted file's extension; repeated
// names get -1, -2 suffixes. Each converted file is removed once it has been
// copied into the archive.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	names := NewNamer()
	for _, e := range entries {
		if err := addFile(zw, names.Next(EntryName(e)), e.Path); err != nil {
			zw.Close()
			return err
		}
		if err := workspace.NewArtifact(e.Path).Remove(); err != nil {
			zw.Close()
			return fmt.Errorf("removing %s: %w", e.Path, err)
		}
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", path, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// EntryName returns "<original stem><converted ext>".
func EntryName(e Entry) string {
	base := filepath.Base(strings.ReplaceAll(e.OriginalFilename, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "file"
	}
	return stem + filepath.Ext(e.Path)
}

// Namer hands out unique file names: a repeated name gets a -1, -2 suffix
// before its extension.
type Namer struct {
	used map[string]bool
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer { return &Namer{used: map[string]bool{}} }

// Next returns name, or the first suffixed variant not yet handed out.
func (n *Namer) Next(name string) string {
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := stem + "-" + strconv.Itoa(i) + ext
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}
