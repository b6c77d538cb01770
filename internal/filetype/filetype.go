// Package filetype classifies files into the media categories the tool
// tables are keyed on. Classification looks at the extension only.
package filetype

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Type is the closed set of file categories.
type Type int

const (
	// Unknown is any extension outside the four supported sets, or none.
	Unknown Type = iota
	// Image is a still image.
	Image
	// Audio is an audio stream.
	Audio
	// Video is a video container.
	Video
	// Text is a plain text or source file.
	Text
)

var extensions = map[Type][]string{
	Image: {".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tiff", ".webp", ".ico"},
	Audio: {".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a"},
	Video: {".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm"},
	Text: {".txt", ".csv", ".log", ".json", ".xml", ".html", ".md", ".py",
		".js", ".css", ".java", ".c", ".cpp", ".h"},
}

// byExtension is the reverse index of extensions, built once.
var byExtension = func() map[string]Type {
	m := make(map[string]Type)
	for t, exts := range extensions {
		for _, ext := range exts {
			m[ext] = t
		}
	}
	return m
}()

// Classify maps path to its Type by case-insensitive extension lookup.
// It never fails; unrecognised or missing extensions yield Unknown.
func Classify(path string) Type {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := byExtension[ext]; ok {
		return t
	}
	return Unknown
}

// Supported returns the four recognised types in display order.
func Supported() []Type {
	return []Type{Image, Audio, Video, Text}
}

// Extensions returns the lowercase extensions (with leading dot) of t, sorted.
// Unknown has none.
func Extensions(t Type) []string {
	exts := append([]string(nil), extensions[t]...)
	sort.Strings(exts)
	return exts
}

// String returns the lowercase name of t.
func (t Type) String() string {
	switch t {
	case Image:
		return "image"
	case Audio:
		return "audio"
	case Video:
		return "video"
	case Text:
		return "text"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType is the inverse of String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return Image, nil
	case "audio":
		return Audio, nil
	case "video":
		return Video, nil
	case "text":
		return Text, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown file type %q", s)
}
