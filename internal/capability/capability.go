// Package capability resolves which optional external tools are available.
// The result is computed once at startup and injected into the adapters, so
// no call site has to probe the environment on its own.
package capability

import (
	"fmt"
	"os/exec"
	"strings"
)

// Set describes the external binaries the adapters may use.
// A zero Set means nothing optional is available.
type Set struct {
	// FFmpeg is the resolved path of the ffmpeg binary, empty when missing.
	FFmpeg string
	// FFprobe is the resolved path of the ffprobe binary, empty when missing.
	FFprobe string
}

// LookPathFunc matches exec.LookPath and is swapped in tests.
type LookPathFunc func(file string) (string, error)

// Detect resolves ffmpegPath and ffprobePath with exec.LookPath.
func Detect(ffmpegPath, ffprobePath string) Set {
	return DetectWith(exec.LookPath, ffmpegPath, ffprobePath)
}

// DetectWith is Detect with an injectable lookup.
func DetectWith(lookPath LookPathFunc, ffmpegPath, ffprobePath string) Set {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	var s Set
	if p, err := lookPath(ffmpegPath); err == nil {
		s.FFmpeg = p
	}
	if p, err := lookPath(ffprobePath); err == nil {
		s.FFprobe = p
	}
	return s
}

// HasFFmpeg reports whether ffmpeg can be executed.
func (s Set) HasFFmpeg() bool {
	return s.FFmpeg != ""
}

// HasFFprobe reports whether ffprobe can be executed.
func (s Set) HasFFprobe() bool {
	return s.FFprobe != ""
}

// VideoReady reports whether both binaries needed for video work are present.
func (s Set) VideoReady() bool {
	return s.HasFFmpeg() && s.HasFFprobe()
}

// Missing lists the names of the binaries that were not found.
func (s Set) Missing() []string {
	var missing []string
	if !s.HasFFmpeg() {
		missing = append(missing, "ffmpeg")
	}
	if !s.HasFFprobe() {
		missing = append(missing, "ffprobe")
	}
	return missing
}

// String returns a one-line summary for logs.
func (s Set) String() string {
	if len(s.Missing()) == 0 {
		return fmt.Sprintf("ffmpeg=%s ffprobe=%s", s.FFmpeg, s.FFprobe)
	}
	return "missing: " + strings.Join(s.Missing(), ", ")
}
