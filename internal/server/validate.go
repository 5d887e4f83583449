// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/formats"
	"github.com/pdiddy/zconvert/pkg/types"
)

// ValidateTarget checks the requested target format and returns it
// normalized to a lowercase extension without dot.
func ValidateTarget(target string) (string, error) {
	target = formats.Ext(strings.TrimSpace(target))
	err := validation.Validate(target,
		validation.Required.Error("target format is required"),
		validation.By(func(v any) error {
			if !formats.IsSupportedTarget(v.(string)) {
				return fmt.Errorf("unsupported target format: %s", v)
			}
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", convert.ErrValidation, err)
	}
	return target, nil
}

// ValidateUpload classifies one uploaded file and checks it against its
// category's size limit. Unknown extensions are validation errors; oversized
// files return a *convert.LimitError.
func ValidateUpload(name string, size int64, limits types.LimitsConfig) (types.FormatCategory, error) {
	if err := validation.Validate(name, validation.Required.Error("no file provided")); err != nil {
		return types.CategoryUnknown, fmt.Errorf("%w: %v", convert.ErrValidation, err)
	}

	category := uploadCategory(name)
	if category == types.CategoryUnknown {
		return category, convert.Invalid("unsupported file type: %s", name)
	}

	limit := limits.SizeLimit(category)
	if limit <= 0 {
		return category, nil
	}
	if err := validation.Validate(size, validation.Max(limit)); err != nil {
		return category, &convert.LimitError{
			Reason:   convert.ReasonFileTooLarge,
			Category: string(category),
			File:     name,
			Limit:    limit,
			Actual:   size,
		}
	}
	return category, nil
}

// ValidateCount checks the number of files in a request: at least one, at
// most limits.MaxBatch, and no more than each category's count limit.
// Files of unknown type are not counted here; ValidateUpload rejects them
// individually.
func ValidateCount(headers []*multipart.FileHeader, limits types.LimitsConfig) error {
	if err := validation.Validate(headers, validation.Required.Error("no files provided")); err != nil {
		return fmt.Errorf("%w: %v", convert.ErrValidation, err)
	}
	if err := validation.Validate(headers, validation.Length(0, limits.MaxBatch)); err != nil {
		return &convert.LimitError{
			Reason: convert.ReasonTooManyFiles,
			Limit:  int64(limits.MaxBatch),
			Actual: int64(len(headers)),
		}
	}

	counts := make(map[types.FormatCategory]int)
	for _, h := range headers {
		counts[uploadCategory(h.Filename)]++
	}
	for _, c := range types.Categories {
		limit := limits.CountLimit(c)
		if limit > 0 && counts[c] > limit {
			return &convert.LimitError{
				Reason:   convert.ReasonTooManyFiles,
				Category: string(c),
				Limit:    int64(limit),
				Actual:   int64(counts[c]),
			}
		}
	}
	return nil
}

// uploadCategory classifies an uploaded filename. A name without an
// extension is unknown, even when the bare name is itself an extension.
func uploadCategory(name string) types.FormatCategory {
	if filepath.Ext(name) == "" {
		return types.CategoryUnknown
	}
	return formats.Classify(name)
}

// validationMessage strips the sentinel prefix for client-facing messages.
func validationMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, convert.ErrValidation) {
		msg = strings.TrimPrefix(msg, convert.ErrValidation.Error()+": ")
	}
	return msg
}
