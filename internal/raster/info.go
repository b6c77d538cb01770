package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/maauso/mediamanip/internal/apperr"
)

// Info describes an image file on disk.
type Info struct {
	Name        string
	Width       int
	Height      int
	Mode        string
	Format      string
	Size        int64
	CaptureTime *time.Time
	Camera      string
}

// Lines renders the info as label/value lines for display.
func (i Info) Lines() []string {
	lines := []string{
		"File: " + i.Name,
		fmt.Sprintf("Size: %dx%d", i.Width, i.Height),
		"Mode: " + i.Mode,
		"Format: " + i.Format,
		fmt.Sprintf("Bytes: %d", i.Size),
	}
	if i.CaptureTime != nil {
		lines = append(lines, "Captured: "+i.CaptureTime.Format(time.DateTime))
	}
	if i.Camera != "" {
		lines = append(lines, "Camera: "+i.Camera)
	}
	return lines
}

// Info reports the loaded file with the current dimensions.
func (w *WorkingCopy) Info() (Info, error) {
	if w.path == "" {
		b := w.current.Bounds()
		return Info{Width: b.Dx(), Height: b.Dy(), Mode: w.mode}, nil
	}
	info, err := Stat(w.path)
	if err != nil {
		return Info{}, err
	}
	b := w.current.Bounds()
	info.Width, info.Height = b.Dx(), b.Dy()
	return info, nil
}

// Stat reads the header and EXIF block of the image at path without decoding pixels.
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: stat %s: %w", apperr.ErrReadFailure, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: open %s: %w", apperr.ErrReadFailure, path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("%w: decode header %s: %w", apperr.ErrReadFailure, path, err)
	}

	info := Info{
		Name:   filepath.Base(path),
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   colorMode(cfg.ColorModel),
		Format: strings.ToUpper(format),
		Size:   fi.Size(),
	}
	readEXIF(f, &info)
	return info, nil
}

// readEXIF fills capture time and camera model when the file carries EXIF.
// Missing or malformed EXIF is not an error.
func readEXIF(f *os.File, info *Info) {
	if _, err := f.Seek(0, 0); err != nil {
		return
	}
	x, err := exif.Decode(f)
	if err != nil {
		return
	}
	if t, err := x.DateTime(); err == nil {
		info.CaptureTime = &t
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			info.Camera = strings.TrimSpace(s)
		}
	}
}

func probeFormat(path string) (format, mode string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer func() { _ = f.Close() }()

	cfg, name, err := image.DecodeConfig(f)
	if err != nil {
		return "", ""
	}
	return strings.ToUpper(name), colorMode(cfg.ColorModel)
}

func colorMode(m color.Model) string {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.RGBAModel, color.RGBA64Model:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	case color.YCbCrModel:
		return "YCbCr"
	case color.NYCbCrAModel:
		return "RGBA"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "RGB"
}
