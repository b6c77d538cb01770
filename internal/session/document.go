package session

import (
	"path/filepath"
	"time"

	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/filetype"
	"github.com/maauso/mediamanip/internal/raster"
	"github.com/maauso/mediamanip/internal/text"
	"github.com/maauso/mediamanip/internal/video"
)

// Document is the file currently open in a session. Audio and video keep no
// decoded state; every operation on them re-reads Path.
type Document struct {
	Path     string
	Type     filetype.Type
	Size     int64
	LoadedAt time.Time

	image *raster.WorkingCopy
	text  *text.Buffer

	// load-time facts used for prompts and defaults; nil when unreadable
	audioInfo *audio.Info
	videoInfo *video.Info
}

// Name returns the base name of the document path.
func (d *Document) Name() string {
	return filepath.Base(d.Path)
}

// Image returns the image working copy, or nil for other types.
func (d *Document) Image() *raster.WorkingCopy {
	return d.image
}

// Text returns the text buffer, or nil for other types.
func (d *Document) Text() *text.Buffer {
	return d.text
}
