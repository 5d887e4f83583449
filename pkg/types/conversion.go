// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the conversion, batch, history and configuration
// types shared by the server, the CLI and the client.
package types

import "time"

// FormatCategory groups file extensions by the kind of media they hold.
type FormatCategory string

const (
	CategoryUnknown  FormatCategory = ""
	CategoryImage    FormatCategory = "image"
	CategoryDocument FormatCategory = "document"
	CategoryVideo    FormatCategory = "video"
	CategoryAudio    FormatCategory = "audio"
)

// Categories lists every known category in a stable order.
var Categories = []FormatCategory{CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio}

// String returns the category name, or "unknown".
func (c FormatCategory) String() string {
	if c == CategoryUnknown {
		return "unknown"
	}
	return string(c)
}

// ConversionRequest describes one uploaded file and the format it should
// become. It is created by the upload layer and consumed exactly once.
type ConversionRequest struct {
	// SourcePath is the location of the uploaded bytes on disk.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// SourceFormat is the lowercase extension of the original filename, without dot.
	SourceFormat string `json:"source_format" yaml:"source_format"`

	// TargetFormat is the lowercase extension requested by the caller, without dot.
	TargetFormat string `json:"target_format" yaml:"target_format"`

	// OriginalFilename is the name the client uploaded the file under.
	OriginalFilename string `json:"original_filename" yaml:"original_filename"`
}

// ConversionResult points at a converted file. The consumer that streams or
// archives the file owns its deletion.
type ConversionResult struct {
	// OutputPath is the location of the converted file.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// OutputFilename is the collision-free name the converter chose.
	OutputFilename string `json:"output_filename" yaml:"output_filename"`

	// MIMEType is the content type of the converted file.
	MIMEType string `json:"mime_type" yaml:"mime_type"`

	// Strategy names the converter that produced the file.
	Strategy string `json:"strategy" yaml:"strategy"`
}

// ConversionStatus is the outcome of a single conversion attempt.
type ConversionStatus string

const (
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// FileError reports why one file of a batch did not convert.
type FileError struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// BatchItem pairs a batch input with its converted output.
type BatchItem struct {
	Request ConversionRequest `json:"request" yaml:"request"`
	Result  ConversionResult  `json:"result" yaml:"result"`
}

// BatchReport holds the outcome of a batch conversion run. Individual
// failures are itemized in Errors instead of failing the batch.
type BatchReport struct {
	Converted []BatchItem `json:"converted" yaml:"converted"`
	Errors    []FileError `json:"errors" yaml:"errors"`
}

// Total returns the number of files processed.
func (r BatchReport) Total() int {
	return len(r.Converted) + len(r.Errors)
}

// HasFailures reports whether any file failed.
func (r BatchReport) HasFailures() bool {
	return len(r.Errors) > 0
}

// Succeeded reports whether at least one file converted.
func (r BatchReport) Succeeded() bool {
	return len(r.Converted) > 0
}

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID               string           `json:"id" yaml:"id"`
	CreatedAt        time.Time        `json:"created_at" yaml:"created_at"`
	OriginalFilename string           `json:"original_filename" yaml:"original_filename"`
	SourceFormat     string           `json:"source_format" yaml:"source_format"`
	TargetFormat     string           `json:"target_format" yaml:"target_format"`
	Category         FormatCategory   `json:"category" yaml:"category"`
	Strategy         string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Status           ConversionStatus `json:"status" yaml:"status"`
	Error            string           `json:"error,omitempty" yaml:"error,omitempty"`
	Duration         time.Duration    `json:"duration" yaml:"duration"`
	OutputBytes      int64            `json:"output_bytes" yaml:"output_bytes"`
}
