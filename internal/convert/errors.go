// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"

	"github.com/pdiddy/zconvert/internal/tool"
)

// Error taxonomy. Every error returned by this package, and by the
// validation layer in front of it, wraps exactly one of these sentinels.
var (
	// ErrValidation marks malformed input: missing fields, unknown formats.
	ErrValidation = errors.New("invalid request")

	// ErrLimitExceeded marks uploads over a size or count limit.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrUnsupportedConversion marks a (source, target) pair no strategy covers.
	ErrUnsupportedConversion = errors.New("unsupported conversion")

	// ErrToolInvocation marks a subprocess that failed or produced nothing.
	// Pipelines absorb it and move to the next strategy.
	ErrToolInvocation = tool.ErrFailed

	// ErrConversionFailed marks a pipeline whose strategies all failed.
	ErrConversionFailed = errors.New("conversion failed")
)

// Invalid returns a validation failure with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UnsupportedConversionError names the pair that could not be dispatched.
type UnsupportedConversionError struct {
	Source string
	Target string
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion: %s to %s", e.Source, e.Target)
}

func (e *UnsupportedConversionError) Unwrap() error { return ErrUnsupportedConversion }

// Limit reasons, reported to clients as machine-readable codes.
const (
	ReasonFileTooLarge = "file_too_large"
	ReasonTooManyFiles = "too_many_files"
	ReasonUnsupported  = "unsupported_conversion"
)

// LimitError describes a size or count violation.
type LimitError struct {
	Reason   string
	Category string
	File     string
	Limit    int64
	Actual   int64
}

func (e *LimitError) Error() string {
	switch e.Reason {
	case ReasonFileTooLarge:
		return fmt.Sprintf("%s is too large for the %s category: maximum size is %dMB",
			e.File, e.Category, e.Limit/(1024*1024))
	case ReasonTooManyFiles:
		if e.Category == "" {
			return fmt.Sprintf("too many files: %d uploaded, maximum allowed is %d", e.Actual, e.Limit)
		}
		return fmt.Sprintf("too many %s files: %d uploaded, maximum allowed is %d",
			e.Category, e.Actual, e.Limit)
	default:
		return fmt.Sprintf("limit exceeded: %s", e.Reason)
	}
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }
