// Package session holds the single open document and routes tool calls to
// the adapter for its type. Shells drive a Session; it keeps no global state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/filetype"
	"github.com/maauso/mediamanip/internal/raster"
	"github.com/maauso/mediamanip/internal/storage"
	"github.com/maauso/mediamanip/internal/text"
	"github.com/maauso/mediamanip/internal/video"
)

// Default preview box, in pixels.
const (
	DefaultPreviewWidth  = 680
	DefaultPreviewHeight = 540
)

// Session is the controller between a shell and the adapters.
type Session struct {
	editor    *audio.Editor
	extractor *video.Extractor
	store     storage.Storage
	caps      capability.Set
	validate  *validator.Validate
	printer   *message.Printer
	logger    *slog.Logger

	previewW int
	previewH int

	doc *Document
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPreviewSize sets the box image previews are fitted into.
func WithPreviewSize(width, height int) Option {
	return func(s *Session) {
		if width > 0 && height > 0 {
			s.previewW, s.previewH = width, height
		}
	}
}

// New creates a Session with no document loaded.
func New(editor *audio.Editor, extractor *video.Extractor, store storage.Storage, caps capability.Set, opts ...Option) *Session {
	s := &Session{
		editor:    editor,
		extractor: extractor,
		store:     store,
		caps:      caps,
		validate:  validator.New(),
		printer:   message.NewPrinter(language.English),
		logger:    slog.New(slog.DiscardHandler),
		previewW:  DefaultPreviewWidth,
		previewH:  DefaultPreviewHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capabilities returns the external binaries the session was built with.
func (s *Session) Capabilities() capability.Set {
	return s.caps
}

// Document returns the open document, or nil.
func (s *Session) Document() *Document {
	return s.doc
}

// Load opens path and makes it the current document. path must be a regular
// file. When the type adapter cannot read it the previous document stays.
func (s *Session) Load(ctx context.Context, path string) (Outcome, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %w", apperr.ErrNotFound, path, err)
	}
	if !fi.Mode().IsRegular() {
		return Outcome{}, fmt.Errorf("%w: %s is not a regular file", apperr.ErrNotFound, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	doc := &Document{
		Path:     path,
		Type:     filetype.Classify(path),
		Size:     fi.Size(),
		LoadedAt: time.Now(),
	}

	var preview *Preview
	switch doc.Type {
	case filetype.Image:
		wc, err := raster.Open(path)
		if err != nil {
			return Outcome{}, err
		}
		doc.image = wc
		preview = s.imagePreview(doc)
	case filetype.Text:
		buf, err := text.Open(path)
		if err != nil {
			return Outcome{}, err
		}
		doc.text = buf
		preview = textPreview(buf.String())
	case filetype.Audio:
		preview = textPreview(strings.Join(s.audioSummary(ctx, doc), "\n"))
	case filetype.Video:
		preview = textPreview(strings.Join(s.videoSummary(ctx, doc), "\n"))
	default:
		preview = textPreview(strings.Join(s.unknownSummary(doc), "\n"))
	}

	s.doc = doc
	s.logger.Info("document loaded",
		slog.String("path", path),
		slog.String("type", doc.Type.String()),
		slog.Int64("size", doc.Size),
	)
	return Outcome{
		Status:  fmt.Sprintf("Loaded: %s  [%s]", doc.Name(), strings.ToUpper(doc.Type.String())),
		Preview: preview,
	}, nil
}

// Tools returns the tool table for the current document. Tools whose binary
// is missing are left out and Notice says why.
func (s *Session) Tools() (Table, error) {
	d := s.doc
	if d == nil {
		return Table{}, apperr.ErrNoDocument
	}

	table := Table{Type: d.Type}
	var hidden bool
	for _, sec := range tables[d.Type] {
		out := Section{Title: sec.title}
		for _, def := range sec.tools {
			if !def.info && !s.met(def.need, d) {
				hidden = true
				continue
			}
			out.Tools = append(out.Tools, s.present(def, d))
		}
		if len(out.Tools) > 0 {
			table.Sections = append(table.Sections, out)
		}
	}
	if hidden {
		table.Notice = s.notice(d.Type)
	}
	return table, nil
}

// Dispatch runs tool id of the current document's table with args. Missing
// args take the defaults Tools reports.
func (s *Session) Dispatch(ctx context.Context, id string, args map[string]string) (Outcome, error) {
	d := s.doc
	if d == nil {
		return Outcome{}, apperr.ErrNoDocument
	}
	def, ok := lookup(d.Type, id)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q for %s files", apperr.ErrUnknownTool, id, d.Type)
	}
	if !def.info && !s.met(def.need, d) {
		return Outcome{}, fmt.Errorf("%w: %s", apperr.ErrMissingDependency, s.notice(d.Type))
	}

	merged := make(map[string]string)
	for _, p := range s.present(def, d).Params {
		if p.Default != "" {
			merged[p.Name] = p.Default
		}
	}
	for k, v := range args {
		merged[k] = v
	}

	start := time.Now()
	out, err := def.run(ctx, s, d, merged)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("tool failed",
			slog.String("tool", id),
			slog.String("type", d.Type.String()),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return Outcome{}, err
	}
	s.logger.Debug("tool dispatched",
		slog.String("tool", id),
		slog.String("type", d.Type.String()),
		slog.Duration("duration", elapsed),
	)
	return out, nil
}

// present returns the public tool with per-document defaults filled in.
func (s *Session) present(def toolDef, d *Document) Tool {
	tool := def.Tool
	tool.Params = append([]Param(nil), def.Params...)
	var defaults map[string]string
	if def.defaults != nil {
		defaults = def.defaults(d)
	}
	for i, p := range tool.Params {
		if v, ok := defaults[p.Name]; ok {
			tool.Params[i].Default = v
		}
		if p.Name == "index" && d.videoInfo != nil && d.videoInfo.Frames > 0 {
			tool.Params[i].Label = fmt.Sprintf("Frame index (0 – %d)", d.videoInfo.Frames-1)
		}
	}
	return tool
}

func (s *Session) met(n need, d *Document) bool {
	switch n {
	case needFFmpeg:
		return s.caps.HasFFmpeg()
	case needVideo:
		return s.caps.VideoReady()
	case needDecode:
		return s.caps.HasFFmpeg() || strings.EqualFold(filepath.Ext(d.Path), ".wav")
	default:
		return true
	}
}

func (s *Session) notice(t filetype.Type) string {
	missing := strings.Join(s.caps.Missing(), " and ")
	switch t {
	case filetype.Audio:
		return missing + " not found: editing and export of this file are unavailable. Install ffmpeg and add it to PATH."
	case filetype.Video:
		return missing + " not found: frame extraction and analysis are unavailable. Install ffmpeg and add it to PATH."
	default:
		return missing + " not found."
	}
}

func (s *Session) imagePreview(d *Document) *Preview {
	return &Preview{Image: d.image.Thumbnail(s.previewW, s.previewH)}
}

// audioSummary reads the load-time info of an audio document. Unreadable
// metadata degrades to a note instead of failing the load.
func (s *Session) audioSummary(ctx context.Context, d *Document) []string {
	info, err := s.editor.Info(ctx, d.Path)
	if err != nil {
		return []string{
			"File:       " + d.Name(),
			"Size:       " + s.printer.Sprintf("%d bytes", d.Size),
			"Extension:  " + strings.ToUpper(filepath.Ext(d.Path)),
			fmt.Sprintf("(Could not read audio metadata: %v)", err),
		}
	}
	d.audioInfo = &info
	return info.Lines()
}

func (s *Session) videoSummary(ctx context.Context, d *Document) []string {
	info, err := s.extractor.Info(ctx, d.Path)
	if err != nil {
		return []string{
			"File:      " + d.Name(),
			"Size:      " + s.printer.Sprintf("%d bytes", d.Size),
			fmt.Sprintf("(Could not read video metadata: %v)", err),
		}
	}
	d.videoInfo = &info
	return info.Lines()
}
