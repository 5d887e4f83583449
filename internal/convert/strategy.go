// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Job is the input to a single strategy attempt.
type Job struct {
	// Source is the path of the file to convert.
	Source string
	// SourceFormat and TargetFormat are lowercase extensions without dot.
	SourceFormat string
	TargetFormat string
	// Output is where the strategy must leave the converted file.
	Output string
	// Dir is the request's scratch directory; strategies may create
	// intermediate files under it.
	Dir string
}

// Strategy is one way of producing Output from Source.
type Strategy interface {
	// Name identifies the strategy in logs, history and result metadata.
	Name() string
	// Convert writes job.Output or returns an error.
	Convert(ctx context.Context, job Job) error
}

// Chain tries strategies in order and stops at the first one that leaves a
// usable file at the expected output path.
type Chain struct {
	Strategies []Strategy

	// AllowEmpty accepts a zero-length output file as success. Image
	// pipelines require non-empty output; text documents may be empty.
	AllowEmpty bool

	Logger *slog.Logger
}

// Run executes the chain and returns the name of the strategy that
// succeeded. When every strategy fails, the error wraps ErrConversionFailed
// and each attempt's error.
func (c Chain) Run(ctx context.Context, job Job) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, s := range c.Strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		// A previous attempt may have left a partial file behind; it must
		// not be mistaken for this attempt's output.
		if err := os.Remove(job.Output); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("clearing output %s: %w", job.Output, err)
		}

		start := time.Now()
		err := s.Convert(ctx, job)
		if err == nil {
			err = checkOutput(job.Output, c.AllowEmpty)
		}
		if err == nil {
			logger.Info("conversion satisfied",
				"strategy", s.Name(),
				"from", job.SourceFormat,
				"to", job.TargetFormat,
				"elapsed", time.Since(start),
			)
			return s.Name(), nil
		}

		logger.Warn("conversion strategy failed",
			"strategy", s.Name(),
			"from", job.SourceFormat,
			"to", job.TargetFormat,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	return "", fmt.Errorf("%w: %s to %s: %w",
		ErrConversionFailed, job.SourceFormat, job.TargetFormat, errors.Join(errs...))
}

// checkOutput verifies that a strategy actually produced its file.
func checkOutput(path string, allowEmpty bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no output produced at %s", ErrToolInvocation, path)
		}
		return fmt.Errorf("checking output: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: output %s is a directory", ErrToolInvocation, path)
	}
	if info.Size() == 0 && !allowEmpty {
		return fmt.Errorf("%w: empty output at %s", ErrToolInvocation, path)
	}
	return nil
}
