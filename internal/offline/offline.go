// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package offline converts a small set of document pairs entirely in
// process. It is the degraded path used when no conversion server is
// configured or reachable: output is lower fidelity than the server's and
// every result says so.
package offline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/formats"
)

// ErrServerRequired is returned for formats that only the server handles.
var ErrServerRequired = fmt.Errorf("%w: requires the conversion server and is not available offline",
	convert.ErrUnsupportedConversion)

// NotSupportedError names a pair outside the offline allow-list.
type NotSupportedError struct {
	Source string
	Target string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("conversion from %s to %s is not supported offline", e.Source, e.Target)
}

func (e *NotSupportedError) Unwrap() error { return convert.ErrUnsupportedConversion }

// pairs is the offline allow-list, source extension to targets.
var pairs = map[string][]string{
	"docx": {"html", "txt"},
	"html": {"txt", "md"},
	"txt":  {"html", "md"},
	"md":   {"html", "txt"},
	"rtf":  {"txt"},
	"odt":  {"txt"},
}

var serverOnly = []string{"pdf", "epub", "fb2", "docm", "pptx", "xlsx"}

// DegradedNotice accompanies every offline result.
const DegradedNotice = "converted offline; output may be lower fidelity than a server conversion"

// Result is an in-memory conversion output.
type Result struct {
	Data     []byte
	MIMEType string
	// Degraded is always true for offline results.
	Degraded bool
	Notice   string
}

// Supported reports whether src to dst is on the offline allow-list.
func Supported(src, dst string) bool {
	return slices.Contains(pairs[formats.Ext(src)], formats.Ext(dst))
}

// Check rejects a pair before any input is read.
func Check(src, dst string) error {
	src, dst = formats.Ext(src), formats.Ext(dst)
	if slices.Contains(serverOnly, src) || slices.Contains(serverOnly, dst) {
		return fmt.Errorf("%s to %s: %w", src, dst, ErrServerRequired)
	}
	if !slices.Contains(pairs[src], dst) {
		return &NotSupportedError{Source: src, Target: dst}
	}
	return nil
}

type transform func(name string, data []byte) (string, error)

var transforms = map[[2]string]transform{
	{"docx", "html"}: docxToHTML,
	{"docx", "txt"}:  docxToText,
	{"html", "txt"}:  htmlToText,
	{"html", "md"}:   htmlToMarkdown,
	{"txt", "html"}:  txtToHTML,
	{"txt", "md"}:    passthrough,
	{"md", "html"}:   markdownToHTML,
	{"md", "txt"}:    markdownToText,
	{"rtf", "txt"}:   rtfToText,
	{"odt", "txt"}:   odtToText,
}

// Convert converts data, the content of the file called name, to target.
func Convert(name string, data []byte, target string) (Result, error) {
	src, dst := formats.Ext(name), formats.Ext(target)
	if err := Check(src, dst); err != nil {
		return Result{}, err
	}
	fn, ok := transforms[[2]string{src, dst}]
	if !ok {
		return Result{}, &NotSupportedError{Source: src, Target: dst}
	}

	out, err := fn(name, data)
	if err != nil {
		return Result{}, fmt.Errorf("offline %s to %s: %w", src, dst, err)
	}
	return Result{
		Data:     []byte(out),
		MIMEType: formats.MIMEType(dst),
		Degraded: true,
		Notice:   DegradedNotice,
	}, nil
}

func passthrough(_ string, data []byte) (string, error) {
	return string(data), nil
}

var errEmptyInput = errors.New("input is empty")
