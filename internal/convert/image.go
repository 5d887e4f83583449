// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/zconvert/internal/tool"
)

const (
	strategyNative      = "native"
	strategyImageMagick = "imagemagick"
	strategyVips        = "vips"
)

// DefaultQuality is the encoder quality for lossy formats.
const DefaultQuality = 85

// errToolMissing is returned by strategies whose binary was not found.
var errToolMissing = errors.New("not installed")

type encodeFunc func(w io.Writer, img image.Image, quality int) error

// encoders lists the formats NativeImage can write. Decoding additionally
// covers webp through the registered x/image decoder.
var encoders = map[string]encodeFunc{
	"jpg":  encodeJPEG,
	"jpeg": encodeJPEG,
	"png": func(w io.Writer, img image.Image, _ int) error {
		return png.Encode(w, img)
	},
	"gif": func(w io.Writer, img image.Image, _ int) error {
		return gif.Encode(w, img, nil)
	},
	"bmp": func(w io.Writer, img image.Image, _ int) error {
		return bmp.Encode(w, img)
	},
	"tiff": func(w io.Writer, img image.Image, _ int) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// NativeImage decodes and re-encodes images in process.
type NativeImage struct {
	Quality int
}

func (NativeImage) Name() string { return strategyNative }

func (n NativeImage) Convert(ctx context.Context, job Job) error {
	enc, ok := encoders[job.TargetFormat]
	if !ok {
		return fmt.Errorf("no in-process encoder for %s", job.TargetFormat)
	}
	quality := n.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	in, err := os.Open(job.Source)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	img, format, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", job.SourceFormat, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := os.Create(job.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := enc(out, img, quality); err != nil {
		out.Close()
		return fmt.Errorf("encoding %s as %s: %w", format, job.TargetFormat, err)
	}
	return out.Close()
}

// ImageMagick converts with `magick <in> <out>` (or the legacy `convert`).
// The output format follows the output path's extension.
type ImageMagick struct {
	Runner tool.Runner
	Bin    string
}

func (ImageMagick) Name() string { return strategyImageMagick }

func (m ImageMagick) Convert(ctx context.Context, job Job) error {
	if m.Bin == "" {
		return fmt.Errorf("imagemagick %w", errToolMissing)
	}
	return m.Runner.Run(ctx, tool.Command{
		Name: m.Bin,
		Args: []string{job.Source, job.Output},
		Dir:  job.Dir,
	})
}

// Vips converts with `vips copy <in> <out>`.
type Vips struct {
	Runner tool.Runner
	Bin    string
}

func (Vips) Name() string { return strategyVips }

func (v Vips) Convert(ctx context.Context, job Job) error {
	if v.Bin == "" {
		return fmt.Errorf("vips %w", errToolMissing)
	}
	return v.Runner.Run(ctx, tool.Command{
		Name: v.Bin,
		Args: []string{"copy", job.Source, job.Output},
		Dir:  job.Dir,
	})
}
