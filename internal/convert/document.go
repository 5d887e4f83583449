// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/zconvert/internal/tool"
)

const (
	strategyLibreOffice = "libreoffice"
	strategyPandoc      = "pandoc"
	strategyText        = "text"
)

// Compatibility tables for the document pipeline. Exactly one strategy is
// chosen per request, in the order libreoffice, pandoc, text.
var (
	libreOfficeInputs  = setOf("docx", "doc", "odt", "rtf")
	libreOfficeOutputs = setOf("pdf", "docx", "odt", "txt", "html")
	pandocFormats      = setOf("md", "html", "txt")
	textFormats        = setOf("txt", "html")
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// DocumentStrategyFor returns the name of the document strategy that covers
// src to dst, or "" when none does. When pandoc is not installed, pairs the
// text transform can handle fall through to it instead.
func DocumentStrategyFor(src, dst string, pandocAvailable bool) string {
	switch {
	case libreOfficeInputs[src] && libreOfficeOutputs[dst]:
		return strategyLibreOffice
	case pandocFormats[src] && pandocFormats[dst] && (pandocAvailable || !textFormats[src] || !textFormats[dst]):
		return strategyPandoc
	case textFormats[src] && textFormats[dst]:
		return strategyText
	}
	return ""
}

// LibreOffice converts rich documents with a headless office suite. The
// suite names its output after the input, so it writes into a private
// directory and the result is renamed to the expected path.
type LibreOffice struct {
	Runner tool.Runner
	Bin    string
}

func (LibreOffice) Name() string { return strategyLibreOffice }

func (l LibreOffice) Convert(ctx context.Context, job Job) error {
	if l.Bin == "" {
		return fmt.Errorf("libreoffice %w", errToolMissing)
	}

	base, err := filepath.Abs(job.Dir)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}
	source, err := filepath.Abs(job.Source)
	if err != nil {
		return fmt.Errorf("resolving source: %w", err)
	}

	// A private profile avoids lock contention between concurrent runs.
	runID := uuid.NewString()
	outDir := filepath.Join(base, "lo-out-"+runID)
	profileDir := filepath.Join(base, "lo-profile-"+runID)
	for _, d := range []string{outDir, profileDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	defer os.RemoveAll(profileDir)
	defer os.RemoveAll(outDir)

	profile := (&url.URL{Scheme: "file", Path: profileDir}).String()
	err = l.Runner.Run(ctx, tool.Command{
		Name: l.Bin,
		Args: []string{
			"-env:UserInstallation=" + profile,
			"--headless",
			"--convert-to", job.TargetFormat,
			"--outdir", outDir,
			source,
		},
		Dir: base,
	})
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	produced := filepath.Join(outDir, stem+"."+job.TargetFormat)
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("%w: libreoffice output file not found", ErrToolInvocation)
	}
	if err := os.Rename(produced, job.Output); err != nil {
		return fmt.Errorf("moving libreoffice output: %w", err)
	}
	return nil
}

// pandocReaders and pandocWriters map extensions to pandoc format names.
var (
	pandocReaders = map[string]string{"md": "markdown", "txt": "markdown", "html": "html"}
	pandocWriters = map[string]string{"md": "markdown", "txt": "plain", "html": "html"}
)

// Pandoc converts among markdown, html and plain text.
type Pandoc struct {
	Runner tool.Runner
	Bin    string
}

func (Pandoc) Name() string { return strategyPandoc }

func (p Pandoc) Convert(ctx context.Context, job Job) error {
	if p.Bin == "" {
		return fmt.Errorf("pandoc %w", errToolMissing)
	}
	from, ok := pandocReaders[job.SourceFormat]
	if !ok {
		from = job.SourceFormat
	}
	to, ok := pandocWriters[job.TargetFormat]
	if !ok {
		to = job.TargetFormat
	}

	args := []string{"-f", from, "-t", to}
	if to == "html" {
		args = append(args, "--standalone", "--metadata", "title=Converted Document")
	}
	args = append(args, job.Source, "-o", job.Output)
	return p.Runner.Run(ctx, tool.Command{Name: p.Bin, Args: args, Dir: job.Dir})
}

// TextTransform handles txt and html without external tools.
type TextTransform struct{}

func (TextTransform) Name() string { return strategyText }

func (TextTransform) Convert(_ context.Context, job Job) error {
	data, err := os.ReadFile(job.Source)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	content := string(data)
	switch {
	case job.SourceFormat == "txt" && job.TargetFormat == "html":
		content = TextToHTML(content)
	case job.SourceFormat == "html" && job.TargetFormat == "txt":
		content = HTMLToText(content)
	case job.SourceFormat == job.TargetFormat:
	default:
		return &UnsupportedConversionError{Source: job.SourceFormat, Target: job.TargetFormat}
	}

	if err := os.WriteFile(job.Output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
