// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert dispatches conversion requests to image or document
// pipelines. Each pipeline is an ordered list of named strategies; external
// tools run through a tool.Runner so they can be bounded and faked.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/zconvert/internal/formats"
	"github.com/pdiddy/zconvert/internal/tool"
	"github.com/pdiddy/zconvert/pkg/types"
)

// Scratch is the per-request directory conversions write into.
// *workspace.Workspace implements it.
type Scratch interface {
	Dir() string
	UniquePath(ext string) string
}

// Recorder receives one record per conversion attempt.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) error
}

// Options configures a Service.
type Options struct {
	// Runner executes external tools. Required.
	Runner tool.Runner
	Tools  types.ToolsConfig
	Image  types.ImageConfig
	Logger *slog.Logger
	// Recorder is optional.
	Recorder Recorder
}

// Service routes requests to the image or document pipeline.
type Service struct {
	image       Chain
	libreOffice Strategy
	pandoc      Strategy
	text        Strategy
	hasPandoc   bool
	logger      *slog.Logger
	recorder    Recorder
}

// New detects the configured tools and builds the pipelines. Missing tools
// are logged; their strategies fail fast without spawning anything.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	detect := func(label string, candidates []string) string {
		bin, err := tool.Detect(opts.Runner, candidates...)
		if err != nil {
			logger.Warn("converter unavailable", "tool", label, "error", err)
			return ""
		}
		logger.Debug("converter detected", "tool", label, "bin", bin)
		return bin
	}

	magick := detect(strategyImageMagick, opts.Tools.ImageMagick)
	vips := detect(strategyVips, opts.Tools.Vips)
	soffice := detect(strategyLibreOffice, opts.Tools.LibreOffice)
	pandoc := detect(strategyPandoc, opts.Tools.Pandoc)

	return &Service{
		image: Chain{
			Strategies: []Strategy{
				NativeImage{Quality: opts.Image.Quality},
				ImageMagick{Runner: opts.Runner, Bin: magick},
				Vips{Runner: opts.Runner, Bin: vips},
			},
			Logger: logger,
		},
		libreOffice: LibreOffice{Runner: opts.Runner, Bin: soffice},
		pandoc:      Pandoc{Runner: opts.Runner, Bin: pandoc},
		text:        TextTransform{},
		hasPandoc:   pandoc != "",
		logger:      logger,
		recorder:    opts.Recorder,
	}
}

// Convert converts one file. The output is written into ws under a
// collision-free name; the caller owns it from then on. Errors wrap one of
// ErrValidation, ErrUnsupportedConversion or ErrConversionFailed.
func (s *Service) Convert(ctx context.Context, ws Scratch, req types.ConversionRequest) (types.ConversionResult, error) {
	start := time.Now()
	result, err := s.convert(ctx, ws, req)
	s.record(ctx, req, result, err, time.Since(start))
	return result, err
}

func (s *Service) convert(ctx context.Context, ws Scratch, req types.ConversionRequest) (types.ConversionResult, error) {
	src := formats.Ext(req.SourceFormat)
	dst := formats.Ext(req.TargetFormat)
	if src == "" {
		src = formats.Ext(req.OriginalFilename)
	}
	if src == "" || dst == "" {
		return types.ConversionResult{}, Invalid("source and target format are required")
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		return types.ConversionResult{}, Invalid("uploaded file was not found: %v", err)
	}

	output := ws.UniquePath(dst)
	job := Job{
		Source:       req.SourcePath,
		SourceFormat: src,
		TargetFormat: dst,
		Output:       output,
		Dir:          ws.Dir(),
	}

	var (
		strategy string
		err      error
	)
	switch {
	case formats.IsImage(src) || formats.IsImage(dst):
		strategy, err = s.image.Run(ctx, job)
	case isMedia(src) || isMedia(dst):
		err = &UnsupportedConversionError{Source: src, Target: dst}
	case formats.IsDocument(src) || formats.IsDocument(dst):
		strategy, err = s.convertDocument(ctx, job)
	default:
		err = &UnsupportedConversionError{Source: src, Target: dst}
	}
	if err != nil {
		return types.ConversionResult{}, err
	}

	return types.ConversionResult{
		OutputPath:     output,
		OutputFilename: filepath.Base(output),
		MIMEType:       formats.MIMEType(dst),
		Strategy:       strategy,
	}, nil
}

// isMedia reports video and audio formats. They reach a converter only
// when the other side is an image; any other pair is unsupported.
func isMedia(ext string) bool {
	c := formats.Classify(ext)
	return c == types.CategoryVideo || c == types.CategoryAudio
}

func (s *Service) convertDocument(ctx context.Context, job Job) (string, error) {
	var strategy Strategy
	switch DocumentStrategyFor(job.SourceFormat, job.TargetFormat, s.hasPandoc) {
	case strategyLibreOffice:
		strategy = s.libreOffice
	case strategyPandoc:
		strategy = s.pandoc
	case strategyText:
		strategy = s.text
	default:
		return "", &UnsupportedConversionError{Source: job.SourceFormat, Target: job.TargetFormat}
	}

	chain := Chain{Strategies: []Strategy{strategy}, AllowEmpty: true, Logger: s.logger}
	name, err := chain.Run(ctx, job)
	if err != nil {
		return "", fmt.Errorf("document conversion failed: %w", err)
	}
	return name, nil
}

func (s *Service) record(ctx context.Context, req types.ConversionRequest, res types.ConversionResult, convErr error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	src := formats.Ext(req.SourceFormat)
	if src == "" {
		src = formats.Ext(req.OriginalFilename)
	}
	rec := types.ConversionRecord{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		OriginalFilename: req.OriginalFilename,
		SourceFormat:     src,
		TargetFormat:     formats.Ext(req.TargetFormat),
		Category:         formats.Classify(src),
		Strategy:         res.Strategy,
		Status:           types.ConversionDone,
		Duration:         elapsed,
	}
	if convErr != nil {
		rec.Status = types.ConversionFailed
		rec.Error = convErr.Error()
	} else if info, err := os.Stat(res.OutputPath); err == nil {
		rec.OutputBytes = info.Size()
	}

	// History must not be lost because the client went away.
	if err := s.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("failed to record conversion", "error", err)
	}
}

// ConvertBatch converts each request in order. A failed file is itemized in
// the report's Errors and does not stop the batch. Per-file status lines and
// a summary are written to w.
func (s *Service) ConvertBatch(ctx context.Context, ws Scratch, reqs []types.ConversionRequest, w io.Writer) types.BatchReport {
	var report types.BatchReport
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, types.FileError{File: req.OriginalFilename, Error: err.Error()})
			fmt.Fprintf(w, "failed:  %s (%v)\n", req.OriginalFilename, err)
			continue
		}

		res, err := s.Convert(ctx, ws, req)
		if err != nil {
			report.Errors = append(report.Errors, types.FileError{File: req.OriginalFilename, Error: Summarize(err)})
			fmt.Fprintf(w, "failed:  %s (%v)\n", req.OriginalFilename, err)
			continue
		}
		report.Converted = append(report.Converted, types.BatchItem{Request: req, Result: res})
		fmt.Fprintf(w, "converted: %s (%s)\n", req.OriginalFilename, res.Strategy)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		len(report.Converted), len(report.Errors), report.Total())
	return report
}

// Summarize returns a one-line, client-safe description of err. Tool output
// and paths stay in the logs.
func Summarize(err error) string {
	var unsupported *UnsupportedConversionError
	var limit *LimitError
	switch {
	case errors.As(err, &unsupported):
		return unsupported.Error()
	case errors.As(err, &limit):
		return limit.Error()
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "conversion timed out"
	case errors.Is(err, ErrConversionFailed):
		return "conversion failed: no converter could handle the file"
	default:
		return "conversion failed"
	}
}
