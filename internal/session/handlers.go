package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/filetype"
	"github.com/maauso/mediamanip/internal/raster"
	"github.com/maauso/mediamanip/internal/text"
)

// image

func runImageOp(op raster.Op, label string) handler {
	return func(_ context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
		if err := d.image.Apply(op); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: label + " applied", Preview: s.imagePreview(d)}, nil
	}
}

func runBrightness(_ context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a factorArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	if err := d.image.Brightness(a.Factor); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: fmt.Sprintf("Brightness × %.2f", a.Factor), Preview: s.imagePreview(d)}, nil
}

func runContrast(_ context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a factorArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	if err := d.image.Contrast(a.Factor); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: fmt.Sprintf("Contrast × %.2f", a.Factor), Preview: s.imagePreview(d)}, nil
}

func runResize(_ context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a resizeArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	if err := d.image.Resize(a.Width, a.Height); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: fmt.Sprintf("Resized to %d × %d", a.Width, a.Height), Preview: s.imagePreview(d)}, nil
}

func runImageSave(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a destArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	loc, err := d.image.Save(ctx, s.store, a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Saved → " + loc}, nil
}

func runImageReset(_ context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
	d.image.Reset()
	return Outcome{Status: "Reset to original", Preview: s.imagePreview(d)}, nil
}

func runImageInfo(_ context.Context, _ *Session, d *Document, _ map[string]string) (Outcome, error) {
	info, err := d.image.Info()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Dialog: &Dialog{Title: "Image Info", Lines: info.Lines()}}, nil
}

// audio

func runAudioInfo(ctx context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
	info, err := s.editor.Info(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Dialog: &Dialog{Title: "Audio Info", Lines: info.Lines()}}, nil
}

func runAudioTrim(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a trimArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	clip, err := s.editor.Load(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	loc, err := s.editor.Export(ctx, clip.Trim(a.Start, a.End), a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Trimmed → " + loc}, nil
}

func runAudioVolume(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a volumeArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	clip, err := s.editor.Load(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	louder, err := clip.Volume(a.DB)
	if err != nil {
		return Outcome{}, err
	}
	loc, err := s.editor.Export(ctx, louder, a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Saved → " + loc}, nil
}

func runAudioReverse(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a destArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	clip, err := s.editor.Load(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	loc, err := s.editor.Export(ctx, clip.Reverse(), a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Reversed → " + loc}, nil
}

func runAudioExport(f audio.Format) handler {
	return func(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
		var a destArgs
		if err := bind(s.validate, args, &a); err != nil {
			return Outcome{}, err
		}
		dest := a.Dest
		if filepath.Ext(dest) == "" {
			dest += "." + string(f)
		}
		clip, err := s.editor.Load(ctx, d.Path)
		if err != nil {
			return Outcome{}, err
		}
		loc, err := s.editor.ExportAs(ctx, clip, dest, f)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: "Exported → " + loc}, nil
	}
}

// video

func runVideoInfo(ctx context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
	info, err := s.extractor.Info(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Dialog: &Dialog{Title: "Video Info", Lines: info.Lines()}}, nil
}

func runExtractFrame(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a frameArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	img, loc, err := s.extractor.ExtractFrame(ctx, d.Path, a.Index, a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Status:  "Frame saved → " + loc,
		Preview: &Preview{Image: raster.Thumbnail(img, s.previewW, s.previewH)},
	}, nil
}

func runExtractAll(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a dirArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	t, err := s.extractor.ExtractAll(ctx, d.Path, a.Dir)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Extracting frames … (background)", Task: t}, nil
}

func runHistogram(ctx context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
	h, err := s.extractor.Histogram(ctx, d.Path)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Histogram of frame 0", Preview: &Preview{Histogram: h}}, nil
}

// text

func runTextCount(_ context.Context, _ *Session, d *Document, _ map[string]string) (Outcome, error) {
	st := d.text.Stats()
	return Outcome{Dialog: &Dialog{Title: "Text Stats", Lines: []string{
		fmt.Sprintf("Lines:      %d", st.Lines),
		fmt.Sprintf("Words:      %d", st.Words),
		fmt.Sprintf("Characters: %d", st.Chars),
	}}}, nil
}

func runTextFrequency(_ context.Context, _ *Session, d *Document, _ map[string]string) (Outcome, error) {
	freq := d.text.Frequency()
	lines := make([]string, 0, len(freq))
	for _, cc := range freq {
		lines = append(lines, fmt.Sprintf("  '%c': %d", cc.Char, cc.Count))
	}
	if len(lines) == 0 {
		lines = append(lines, "  (no letters)")
	}
	return Outcome{Dialog: &Dialog{Title: fmt.Sprintf("Top %d Characters", text.TopChars), Lines: lines}}, nil
}

func runTextReplace(_ context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a replaceArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	n := d.text.Replace(a.Find, a.Replace)
	return Outcome{
		Status:  fmt.Sprintf("Replaced %d occurrence(s)", n),
		Preview: textPreview(d.text.String()),
	}, nil
}

func runTextTransform(t text.Transform, label string) handler {
	return func(_ context.Context, _ *Session, d *Document, _ map[string]string) (Outcome, error) {
		if err := d.text.Apply(t); err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: label + " applied", Preview: textPreview(d.text.String())}, nil
	}
}

func runTextSave(ctx context.Context, s *Session, d *Document, args map[string]string) (Outcome, error) {
	var a destArgs
	if err := bind(s.validate, args, &a); err != nil {
		return Outcome{}, err
	}
	loc, err := d.text.Export(ctx, s.store, a.Dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: "Saved → " + loc}, nil
}

// unknown

func runUnknownInfo(_ context.Context, s *Session, d *Document, _ map[string]string) (Outcome, error) {
	return Outcome{Dialog: &Dialog{Title: "Info", Lines: s.unknownSummary(d)}}, nil
}

// unknownSummary describes a file of unrecognised type and lists what is supported.
func (s *Session) unknownSummary(d *Document) []string {
	ext := filepath.Ext(d.Path)
	if ext == "" {
		ext = "(none)"
	}
	lines := []string{
		"File:      " + d.Name(),
		"Size:      " + s.printer.Sprintf("%d bytes", d.Size),
		"Extension: " + ext,
		"",
		"This file type is not recognised.",
		"Supported types:",
	}
	for _, t := range filetype.Supported() {
		exts := filetype.Extensions(t)
		for i, e := range exts {
			exts[i] = strings.TrimPrefix(e, ".")
		}
		lines = append(lines, fmt.Sprintf("  %-6s : %s", typeHeading(t), strings.Join(exts, " ")))
	}
	return lines
}

func typeHeading(t filetype.Type) string {
	switch t {
	case filetype.Image:
		return "Images"
	case filetype.Audio:
		return "Audio"
	case filetype.Video:
		return "Video"
	case filetype.Text:
		return "Text"
	default:
		return t.String()
	}
}
