// Package raster is the image adapter. It keeps the original and current
// pixel buffers of a loaded still image and applies transforms through
// github.com/disintegration/imaging.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/storage"
)

// Op names a parameterless transform.
type Op string

const (
	OpRotate90  Op = "rotate90"
	OpRotate180 Op = "rotate180"
	OpFlipH     Op = "flip_h"
	OpFlipV     Op = "flip_v"
	OpGray      Op = "gray"
	OpInvert    Op = "invert"
	OpSepia     Op = "sepia"
	OpBlur      Op = "blur"
	OpSharpen   Op = "sharpen"
	OpEdges     Op = "edges"
	OpEmboss    Op = "emboss"
)

const (
	// MinFactor and MaxFactor bound brightness and contrast factors.
	MinFactor = 0.1
	MaxFactor = 3.0

	// BlurSigma is the fixed gaussian blur radius.
	BlurSigma = 2.0
)

// ErrInvalidDimensions is returned when resize targets are not positive.
var ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")

// ErrFactorOutOfRange is returned when an enhancement factor is outside [MinFactor, MaxFactor].
var ErrFactorOutOfRange = fmt.Errorf("factor must be between %.1f and %.1f", MinFactor, MaxFactor)

var (
	sharpenKernel = [9]float64{
		-2, -2, -2,
		-2, 32, -2,
		-2, -2, -2,
	}
	edgeKernel = [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}
	embossKernel = [9]float64{
		-1, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}
)

var ops = map[Op]func(image.Image) *image.NRGBA{
	// imaging rotates counter-clockwise; a quarter turn clockwise is Rotate270.
	OpRotate90:  imaging.Rotate270,
	OpRotate180: imaging.Rotate180,
	OpFlipH:     imaging.FlipH,
	OpFlipV:     imaging.FlipV,
	OpGray:      imaging.Grayscale,
	OpInvert:    imaging.Invert,
	OpSepia:     Sepia,
	OpBlur: func(img image.Image) *image.NRGBA {
		return imaging.Blur(img, BlurSigma)
	},
	OpSharpen: func(img image.Image) *image.NRGBA {
		return imaging.Convolve3x3(img, sharpenKernel, &imaging.ConvolveOptions{Normalize: true})
	},
	OpEdges: func(img image.Image) *image.NRGBA {
		return imaging.Convolve3x3(img, edgeKernel, nil)
	},
	OpEmboss: func(img image.Image) *image.NRGBA {
		return imaging.Convolve3x3(img, embossKernel, &imaging.ConvolveOptions{Bias: 128})
	},
}

// Ops returns every parameterless transform name.
func Ops() []Op {
	return []Op{
		OpRotate90, OpRotate180, OpFlipH, OpFlipV,
		OpGray, OpInvert, OpSepia,
		OpBlur, OpSharpen, OpEdges, OpEmboss,
	}
}

// WorkingCopy holds the pixels of a loaded image. The original buffer is
// never modified; every transform replaces the current buffer.
type WorkingCopy struct {
	path     string
	format   string
	mode     string
	original *image.NRGBA
	current  *image.NRGBA
}

// Open decodes the image at path. Decoding errors are read failures.
func Open(path string) (*WorkingCopy, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", apperr.ErrReadFailure, path, err)
	}
	format, mode := probeFormat(path)
	return newWorkingCopy(path, format, mode, img), nil
}

// FromImage builds a working copy from an in-memory image, for frames and tests.
func FromImage(img image.Image) *WorkingCopy {
	return newWorkingCopy("", "", colorMode(img.ColorModel()), img)
}

func newWorkingCopy(path, format, mode string, img image.Image) *WorkingCopy {
	original := imaging.Clone(img)
	return &WorkingCopy{
		path:     path,
		format:   format,
		mode:     mode,
		original: original,
		current:  imaging.Clone(original),
	}
}

// Current returns the current pixel buffer. Callers must not modify it.
func (w *WorkingCopy) Current() *image.NRGBA {
	return w.current
}

// Original returns the pixels as loaded. Callers must not modify it.
func (w *WorkingCopy) Original() *image.NRGBA {
	return w.original
}

// Format returns the decoded container format, e.g. "PNG", or "" for in-memory images.
func (w *WorkingCopy) Format() string {
	return w.format
}

// Bounds returns the current image size.
func (w *WorkingCopy) Bounds() image.Rectangle {
	return w.current.Bounds()
}

// Apply runs a parameterless transform on the current buffer.
func (w *WorkingCopy) Apply(op Op) error {
	fn, ok := ops[op]
	if !ok {
		return fmt.Errorf("%w: image op %q", apperr.ErrUnknownTool, op)
	}
	w.current = fn(w.current)
	return nil
}

// Brightness scales every channel by factor; 1.0 is the identity.
func (w *WorkingCopy) Brightness(factor float64) error {
	if err := checkFactor(factor); err != nil {
		return err
	}
	if factor == 1 {
		return nil
	}
	w.current = imaging.AdjustFunc(w.current, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) * factor),
			G: clamp8(float64(c.G) * factor),
			B: clamp8(float64(c.B) * factor),
			A: c.A,
		}
	})
	return nil
}

// Contrast moves every channel away from (or towards) the mean luma by
// factor; 1.0 is the identity.
func (w *WorkingCopy) Contrast(factor float64) error {
	if err := checkFactor(factor); err != nil {
		return err
	}
	if factor == 1 {
		return nil
	}
	mean := meanLuma(w.current)
	w.current = imaging.AdjustFunc(w.current, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(mean + (float64(c.R)-mean)*factor),
			G: clamp8(mean + (float64(c.G)-mean)*factor),
			B: clamp8(mean + (float64(c.B)-mean)*factor),
			A: c.A,
		}
	})
	return nil
}

// Resize scales the current buffer to exactly width x height with Lanczos.
func (w *WorkingCopy) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %w: width=%d, height=%d", apperr.ErrInvalidArgument, ErrInvalidDimensions, width, height)
	}
	w.current = imaging.Resize(w.current, width, height, imaging.Lanczos)
	return nil
}

// Reset discards every edit and restores the originally loaded pixels.
func (w *WorkingCopy) Reset() {
	w.current = imaging.Clone(w.original)
}

// Thumbnail returns the current buffer fitted inside maxW x maxH. It never upscales.
func (w *WorkingCopy) Thumbnail(maxW, maxH int) *image.NRGBA {
	return Thumbnail(w.current, maxW, maxH)
}

// Save encodes the current buffer in the format implied by dest's extension
// and stores it. Unsupported extensions and failed writes are write failures.
func (w *WorkingCopy) Save(ctx context.Context, store storage.Storage, dest string) (string, error) {
	return Save(ctx, store, dest, w.current)
}

// Save encodes img by dest's extension and writes it through store.
func Save(ctx context.Context, store storage.Storage, dest string, img image.Image) (string, error) {
	format, err := imaging.FormatFromFilename(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrWriteFailure, dest, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", apperr.ErrWriteFailure, format, err)
	}

	loc, err := store.Put(ctx, dest, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: save %s: %w", apperr.ErrWriteFailure, dest, err)
	}
	return loc, nil
}

// Thumbnail fits img inside maxW x maxH preserving aspect ratio, never upscaling.
func Thumbnail(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// Sepia tones img from its integer luma L: R=min(255, L*1.08),
// G=min(255, L*0.84), B=min(255, L*0.66). Alpha is kept.
func Sepia(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := float64(luma(c))
		return color.NRGBA{
			R: uint8(math.Min(l*1.08, 255)),
			G: uint8(math.Min(l*0.84, 255)),
			B: uint8(math.Min(l*0.66, 255)),
			A: c.A,
		}
	})
}

// luma is the ITU-R 601-2 transform with integer truncation.
func luma(c color.NRGBA) uint32 {
	return (uint32(c.R)*299 + uint32(c.G)*587 + uint32(c.B)*114) / 1000
}

func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += uint64(luma(img.NRGBAAt(x, y)))
		}
	}
	return math.Floor(float64(sum)/float64(n) + 0.5)
}

func checkFactor(f float64) error {
	if math.IsNaN(f) || f < MinFactor || f > MaxFactor {
		return fmt.Errorf("%w: %w: got %g", apperr.ErrInvalidArgument, ErrFactorOutOfRange, f)
	}
	return nil
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
