// Package video is the video adapter. Stream facts come from ffprobe and
// frames are decoded by ffmpeg; bulk extraction runs as a background task.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maauso/mediamanip/internal/media"
)

// ErrNoVideoStream is returned when the container has no video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Stream describes the first video stream of a file.
type Stream struct {
	Width  int
	Height int
	FPS    float64
	Frames int
}

// Prober reads stream facts from a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (Stream, error)
}

// FFprobe implements Prober with the ffprobe CLI.
type FFprobe struct {
	runner *media.Runner
}

// Compile-time check that FFprobe implements Prober.
var _ Prober = (*FFprobe)(nil)

// NewFFprobe creates an FFprobe prober.
func NewFFprobe(runner *media.Runner) *FFprobe {
	return &FFprobe{runner: runner}
}

// Probe reads resolution, frame rate and frame count. When the container
// does not store a frame count, packets are counted instead.
func (p *FFprobe) Probe(ctx context.Context, path string) (Stream, error) {
	out, err := p.runner.FFprobe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames",
		"-of", "json",
		path,
	)
	if err != nil {
		return Stream{}, err
	}

	s, err := parseProbe(out)
	if err != nil {
		return Stream{}, err
	}
	if s.Frames > 0 {
		return s, nil
	}

	out, err = p.runner.FFprobe(ctx,
		"-v", "error",
		"-count_packets",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_read_packets",
		"-of", "json",
		path,
	)
	if err != nil {
		return Stream{}, fmt.Errorf("count packets: %w", err)
	}
	counted, err := parseProbe(out)
	if err != nil {
		return Stream{}, fmt.Errorf("count packets: %w", err)
	}
	s.Frames = counted.Frames
	return s, nil
}

type probeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

// parseProbe decodes ffprobe JSON output. The average frame rate is
// preferred; the base rate is used when the average is unknown.
func parseProbe(data []byte) (Stream, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Stream{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return Stream{}, ErrNoVideoStream
	}
	st := out.Streams[0]

	fps := parseRational(st.AvgFrameRate)
	if fps == 0 {
		fps = parseRational(st.RFrameRate)
	}

	frames := parseCount(st.NbFrames)
	if frames == 0 {
		frames = parseCount(st.NbReadPackets)
	}

	return Stream{
		Width:  st.Width,
		Height: st.Height,
		FPS:    fps,
		Frames: frames,
	}, nil
}

// parseRational parses "num/den" or a plain number. Malformed input and a
// zero denominator give 0.
func parseRational(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
