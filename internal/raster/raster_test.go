package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/storage"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestWorkingCopy_Rotate90(t *testing.T) {
	img := solid(3, 2, blue)
	img.SetNRGBA(0, 1, red) // bottom-left

	wc := FromImage(img)
	require.NoError(t, wc.Apply(OpRotate90))

	b := wc.Bounds()
	assert.Equal(t, 2, b.Dx())
	assert.Equal(t, 3, b.Dy())
	// clockwise: bottom-left moves to top-left
	assert.Equal(t, red, wc.Current().NRGBAAt(0, 0))
}

func TestWorkingCopy_Rotate180(t *testing.T) {
	img := solid(3, 2, blue)
	img.SetNRGBA(0, 0, red)

	wc := FromImage(img)
	require.NoError(t, wc.Apply(OpRotate180))

	assert.Equal(t, image.Rect(0, 0, 3, 2), wc.Bounds())
	assert.Equal(t, red, wc.Current().NRGBAAt(2, 1))
}

func TestWorkingCopy_Flips(t *testing.T) {
	img := solid(2, 2, blue)
	img.SetNRGBA(0, 0, red)

	t.Run("mirror", func(t *testing.T) {
		wc := FromImage(img)
		require.NoError(t, wc.Apply(OpFlipH))
		assert.Equal(t, red, wc.Current().NRGBAAt(1, 0))
	})

	t.Run("flip", func(t *testing.T) {
		wc := FromImage(img)
		require.NoError(t, wc.Apply(OpFlipV))
		assert.Equal(t, red, wc.Current().NRGBAAt(0, 1))
	})
}

func TestWorkingCopy_ColorOps(t *testing.T) {
	t.Run("invert", func(t *testing.T) {
		wc := FromImage(solid(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
		require.NoError(t, wc.Apply(OpInvert))
		assert.Equal(t, color.NRGBA{R: 245, G: 235, B: 225, A: 255}, wc.Current().NRGBAAt(0, 0))
	})

	t.Run("grayscale has equal channels", func(t *testing.T) {
		wc := FromImage(solid(2, 2, color.NRGBA{R: 200, G: 40, B: 90, A: 255}))
		require.NoError(t, wc.Apply(OpGray))
		c := wc.Current().NRGBAAt(1, 1)
		assert.Equal(t, c.R, c.G)
		assert.Equal(t, c.G, c.B)
	})

	t.Run("sepia on white", func(t *testing.T) {
		wc := FromImage(solid(1, 1, white))
		require.NoError(t, wc.Apply(OpSepia))
		assert.Equal(t, color.NRGBA{R: 255, G: 214, B: 168, A: 255}, wc.Current().NRGBAAt(0, 0))
	})

	t.Run("sepia on black", func(t *testing.T) {
		wc := FromImage(solid(1, 1, color.NRGBA{A: 255}))
		require.NoError(t, wc.Apply(OpSepia))
		assert.Equal(t, color.NRGBA{A: 255}, wc.Current().NRGBAAt(0, 0))
	})
}

func TestWorkingCopy_Filters(t *testing.T) {
	for _, op := range []Op{OpBlur, OpSharpen, OpEdges, OpEmboss} {
		t.Run(string(op), func(t *testing.T) {
			wc := FromImage(solid(8, 6, red))
			require.NoError(t, wc.Apply(op))
			assert.Equal(t, image.Rect(0, 0, 8, 6), wc.Bounds())
		})
	}

	t.Run("edges of a flat image are black", func(t *testing.T) {
		wc := FromImage(solid(5, 5, white))
		require.NoError(t, wc.Apply(OpEdges))
		c := wc.Current().NRGBAAt(2, 2)
		assert.Equal(t, uint8(0), c.R)
		assert.Equal(t, uint8(0), c.G)
		assert.Equal(t, uint8(0), c.B)
	})
}

func TestWorkingCopy_Apply_UnknownOp(t *testing.T) {
	wc := FromImage(solid(1, 1, red))
	err := wc.Apply("swirl")
	assert.ErrorIs(t, err, apperr.ErrUnknownTool)
}

func TestWorkingCopy_Brightness(t *testing.T) {
	tests := []struct {
		name    string
		factor  float64
		want    color.NRGBA
		wantErr bool
	}{
		{name: "identity", factor: 1.0, want: color.NRGBA{R: 100, G: 50, B: 200, A: 255}},
		{name: "double clips", factor: 2.0, want: color.NRGBA{R: 200, G: 100, B: 255, A: 255}},
		{name: "half", factor: 0.5, want: color.NRGBA{R: 50, G: 25, B: 100, A: 255}},
		{name: "below range", factor: 0.05, wantErr: true},
		{name: "above range", factor: 3.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc := FromImage(solid(2, 2, color.NRGBA{R: 100, G: 50, B: 200, A: 255}))
			err := wc.Brightness(tt.factor)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
				assert.ErrorIs(t, err, ErrFactorOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, wc.Current().NRGBAAt(0, 0))
		})
	}
}

func TestWorkingCopy_Contrast(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		img := solid(2, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
		img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		wc := FromImage(img)
		require.NoError(t, wc.Contrast(1.0))
		assert.Equal(t, img.Pix, wc.Current().Pix)
	})

	t.Run("spreads around the mean", func(t *testing.T) {
		img := solid(2, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
		img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		wc := FromImage(img)
		require.NoError(t, wc.Contrast(2.0))
		// mean 150: 100 -> 50, 200 -> 250
		assert.Equal(t, uint8(50), wc.Current().NRGBAAt(0, 0).R)
		assert.Equal(t, uint8(250), wc.Current().NRGBAAt(1, 0).R)
	})

	t.Run("out of range", func(t *testing.T) {
		wc := FromImage(solid(1, 1, red))
		assert.ErrorIs(t, wc.Contrast(0), apperr.ErrInvalidArgument)
	})
}

func TestWorkingCopy_Resize(t *testing.T) {
	wc := FromImage(solid(20, 10, red))

	require.NoError(t, wc.Resize(7, 9))
	assert.Equal(t, image.Rect(0, 0, 7, 9), wc.Bounds())

	err := wc.Resize(0, 5)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	err = wc.Resize(5, -1)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.Equal(t, image.Rect(0, 0, 7, 9), wc.Bounds())
}

func TestWorkingCopy_Reset(t *testing.T) {
	img := solid(4, 3, color.NRGBA{R: 12, G: 34, B: 56, A: 255})
	img.SetNRGBA(1, 1, red)
	wc := FromImage(img)

	require.NoError(t, wc.Apply(OpRotate90))
	require.NoError(t, wc.Apply(OpSepia))
	require.NoError(t, wc.Brightness(2))
	require.NoError(t, wc.Resize(9, 9))

	wc.Reset()

	assert.Equal(t, img.Bounds(), wc.Bounds())
	assert.Equal(t, img.Pix, wc.Current().Pix)
	assert.Equal(t, img.Pix, wc.Original().Pix)
}

func TestWorkingCopy_OriginalIsolated(t *testing.T) {
	img := solid(2, 2, red)
	wc := FromImage(img)

	img.SetNRGBA(0, 0, blue)
	require.NoError(t, wc.Apply(OpInvert))

	assert.Equal(t, red, wc.Original().NRGBAAt(0, 0))
}

func TestThumbnail(t *testing.T) {
	t.Run("fits inside the box", func(t *testing.T) {
		got := Thumbnail(solid(100, 50, red), 10, 10)
		assert.Equal(t, 10, got.Bounds().Dx())
		assert.Equal(t, 5, got.Bounds().Dy())
	})

	t.Run("never upscales", func(t *testing.T) {
		got := Thumbnail(solid(4, 4, red), 10, 10)
		assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	})
}

func TestWorkingCopy_Save(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	t.Run("png", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.png")
		wc := FromImage(solid(6, 4, red))

		loc, err := wc.Save(ctx, store, dest)
		require.NoError(t, err)
		assert.Equal(t, dest, loc)

		back, err := imaging.Open(dest)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 6, 4), back.Bounds())
	})

	t.Run("jpeg by extension", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.JPG")
		wc := FromImage(solid(6, 4, red))

		_, err := wc.Save(ctx, store, dest)
		require.NoError(t, err)

		_, format, err := decodeConfig(dest)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.xyz")
		wc := FromImage(solid(2, 2, red))

		_, err := wc.Save(ctx, store, dest)
		assert.ErrorIs(t, err, apperr.ErrWriteFailure)
		assert.NoFileExists(t, dest)
	})

	t.Run("remote without s3", func(t *testing.T) {
		wc := FromImage(solid(2, 2, red))
		_, err := wc.Save(ctx, store, "s3://bucket/out.png")
		assert.ErrorIs(t, err, apperr.ErrWriteFailure)
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("decodes png", func(t *testing.T) {
		path := filepath.Join(dir, "in.png")
		require.NoError(t, imaging.Save(solid(5, 3, red), path))

		wc, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 5, 3), wc.Bounds())
		assert.Equal(t, "PNG", wc.Format())
	})

	t.Run("decodes png icon", func(t *testing.T) {
		var payload bytes.Buffer
		require.NoError(t, png.Encode(&payload, solid(16, 16, red)))
		path := filepath.Join(dir, "favicon.ico")
		require.NoError(t, os.WriteFile(path, icoFile(16, 16, payload.Bytes()), 0o644))

		wc, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 16, 16), wc.Bounds())
		assert.Equal(t, "ICO", wc.Format())
		assert.Equal(t, red, wc.Current().NRGBAAt(8, 8))
	})

	t.Run("decodes 32-bit bitmap icon", func(t *testing.T) {
		payload := dibHeaderBytes(2, 2, 32)
		payload = append(payload,
			0xFF, 0, 0, 0xFF, 0xFF, 0, 0, 0xFF, // bottom row: blue, blue
			0, 0, 0xFF, 0xFF, 0, 0, 0, 0,       // top row: red, transparent
		)
		payload = append(payload, make([]byte, 8)...) // AND mask
		path := filepath.Join(dir, "bgra.ico")
		require.NoError(t, os.WriteFile(path, icoFile(2, 2, payload), 0o644))

		wc, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, "ICO", wc.Format())
		img := wc.Current()
		assert.Equal(t, red, img.NRGBAAt(0, 0))
		assert.Zero(t, img.NRGBAAt(1, 0).A)
		assert.Equal(t, blue, img.NRGBAAt(0, 1))
		assert.Equal(t, blue, img.NRGBAAt(1, 1))
	})

	t.Run("decodes 24-bit bitmap icon with mask", func(t *testing.T) {
		payload := dibHeaderBytes(2, 1, 24)
		payload = append(payload, 0, 0, 0xFF, 0xFF, 0, 0, 0, 0) // red, blue, padding
		payload = append(payload, 0x40, 0, 0, 0)                // mask out x=1
		path := filepath.Join(dir, "rgb.ico")
		require.NoError(t, os.WriteFile(path, icoFile(2, 1, payload), 0o644))

		wc, err := Open(path)
		require.NoError(t, err)
		img := wc.Current()
		assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
		assert.Equal(t, red, img.NRGBAAt(0, 0))
		assert.Zero(t, img.NRGBAAt(1, 0).A)
	})

	t.Run("icon entry past end of file", func(t *testing.T) {
		data := icoFile(16, 16, []byte("\x89PNG"))
		path := filepath.Join(dir, "short.ico")
		require.NoError(t, os.WriteFile(path, data[:len(data)-2], 0o644))

		_, err := Open(path)
		assert.ErrorIs(t, err, apperr.ErrReadFailure)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.png")
		require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

		_, err := Open(path)
		assert.ErrorIs(t, err, apperr.ErrReadFailure)
	})
}

// icoFile wraps a single payload in an ICO container.
func icoFile(w, h int, payload []byte) []byte {
	b := []byte{0, 0, 1, 0, 1, 0, byte(w), byte(h), 0, 0, 1, 0, 32, 0}
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	b = binary.LittleEndian.AppendUint32(b, 22)
	return append(b, payload...)
}

// dibHeaderBytes is a BITMAPINFOHEADER as stored in icons, with the height
// doubled to cover the AND mask.
func dibHeaderBytes(w, h, bpp int) []byte {
	b := make([]byte, 40)
	binary.LittleEndian.PutUint32(b[0:], 40)
	binary.LittleEndian.PutUint32(b[4:], uint32(w))
	binary.LittleEndian.PutUint32(b[8:], uint32(2*h))
	binary.LittleEndian.PutUint16(b[12:], 1)
	binary.LittleEndian.PutUint16(b[14:], uint16(bpp))
	return b
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, imaging.Save(solid(8, 2, red), path))

	info, err := Stat(path)
	require.NoError(t, err)

	assert.Equal(t, "photo.png", info.Name)
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 2, info.Height)
	assert.Equal(t, "PNG", info.Format)
	assert.Equal(t, "RGB", info.Mode)
	assert.Positive(t, info.Size)
	assert.Nil(t, info.CaptureTime)
	assert.Empty(t, info.Camera)
	assert.Contains(t, info.Lines(), "Size: 8x2")

	_, err = Stat(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, apperr.ErrReadFailure)
}

func TestWorkingCopy_InfoTracksCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(solid(4, 2, red), path))

	wc, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, wc.Apply(OpRotate90))

	info, err := wc.Info()
	require.NoError(t, err)
	assert.Equal(t, 2, info.Width)
	assert.Equal(t, 4, info.Height)
}

func decodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer func() { _ = f.Close() }()
	return image.DecodeConfig(f)
}
