// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formats classifies file extensions into categories and describes
// which formats the converter accepts and produces.
package formats

import (
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/zconvert/pkg/types"
)

// Input allow-lists per category. An extension absent from every list is
// unknown and must be rejected before conversion.
var (
	documentInputs = []string{"docx", "doc", "odt", "rtf", "html", "md", "txt", "pdf"}
	imageInputs    = []string{"heic", "jpg", "jpeg", "png", "webp", "tiff", "bmp", "gif"}
	videoInputs    = []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv"}
	audioInputs    = []string{"mp3", "wav", "flac", "aac", "ogg", "m4a"}
)

// Output lists advertised by /supported-formats.
var (
	documentOutputs = []string{"pdf", "txt", "html", "docx", "odt", "md"}
	imageOutputs    = []string{
		"apng", "bmp", "exr", "fits", "gif", "jp2", "jpeg", "jpg", "pbm", "pcx", "pgm",
		"pix", "png", "ppm", "ras", "sgi", "tga", "tiff", "webp", "xbm", "xwd",
	}
)

var categoryByExt = buildIndex()

func buildIndex() map[string]types.FormatCategory {
	idx := make(map[string]types.FormatCategory)
	add := func(c types.FormatCategory, exts []string) {
		for _, e := range exts {
			if _, ok := idx[e]; !ok {
				idx[e] = c
			}
		}
	}
	// Documents first: "html", "txt" and friends stay documents.
	add(types.CategoryDocument, documentInputs)
	add(types.CategoryImage, imageInputs)
	add(types.CategoryImage, imageOutputs)
	add(types.CategoryVideo, videoInputs)
	add(types.CategoryAudio, audioInputs)
	return idx
}

// Ext returns the lowercase extension of name without the leading dot. A
// bare extension ("PNG", ".png") is returned normalized.
func Ext(name string) string {
	name = strings.TrimSpace(name)
	if ext := filepath.Ext(name); ext != "" {
		return strings.ToLower(ext[1:])
	}
	return strings.ToLower(name)
}

// Classify returns the category of a filename or extension, or
// CategoryUnknown when it is not on any allow-list.
func Classify(nameOrExt string) types.FormatCategory {
	return categoryByExt[Ext(nameOrExt)]
}

// IsImage reports whether ext belongs to the image category.
func IsImage(ext string) bool { return Classify(ext) == types.CategoryImage }

// IsDocument reports whether ext belongs to the document category.
func IsDocument(ext string) bool { return Classify(ext) == types.CategoryDocument }

// IsSupportedTarget reports whether ext may be requested as an output format.
func IsSupportedTarget(ext string) bool {
	ext = Ext(ext)
	return ext != "" && Classify(ext) != types.CategoryUnknown
}

// SupportedTargets lists every accepted target format, sorted.
func SupportedTargets() []string {
	out := make([]string, 0, len(categoryByExt))
	for ext := range categoryByExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// mimeOverrides covers formats the platform MIME database often lacks.
var mimeOverrides = map[string]string{
	"md":   "text/markdown",
	"txt":  "text/plain",
	"html": "text/html",
	"heic": "image/heic",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"apng": "image/apng",
	"jp2":  "image/jp2",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"odt":  "application/vnd.oasis.opendocument.text",
	"rtf":  "application/rtf",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"m4a":  "audio/mp4",
	"mkv":  "video/x-matroska",
}

// MIMEType returns the content type for ext, defaulting to
// application/octet-stream.
func MIMEType(ext string) string {
	ext = Ext(ext)
	if t, ok := mimeOverrides[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// IOFormats lists inputs and outputs for one category.
type IOFormats struct {
	Input  []string `json:"input" yaml:"input"`
	Output []string `json:"output,omitempty" yaml:"output,omitempty"`
}

// SupportedFormats is the document served by GET /supported-formats.
type SupportedFormats struct {
	Documents IOFormats `json:"documents" yaml:"documents"`
	Images    IOFormats `json:"images" yaml:"images"`
	Videos    IOFormats `json:"videos" yaml:"videos"`
	Audio     IOFormats `json:"audio" yaml:"audio"`
}

// Supported returns the static supported-formats document. PDF is accepted
// only as a target. Video and audio are listed as inputs only: they
// convert only to image targets, through the image pipeline.
func Supported() SupportedFormats {
	return SupportedFormats{
		Documents: IOFormats{
			Input:  slices.DeleteFunc(slices.Clone(documentInputs), func(s string) bool { return s == "pdf" }),
			Output: slices.Clone(documentOutputs),
		},
		Images: IOFormats{
			Input:  slices.Clone(imageInputs),
			Output: slices.Clone(imageOutputs),
		},
		Videos: IOFormats{Input: slices.Clone(videoInputs)},
		Audio:  IOFormats{Input: slices.Clone(audioInputs)},
	}
}
