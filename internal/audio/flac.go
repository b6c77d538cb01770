package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-flac/go-flac"
)

// streamInfoLen is the fixed size of a STREAMINFO block body.
const streamInfoLen = 34

var (
	// ErrNoStreamInfo is returned when a FLAC file lacks its STREAMINFO block.
	ErrNoStreamInfo = errors.New("flac stream info block not found")
	// ErrShortStreamInfo is returned when STREAMINFO is truncated.
	ErrShortStreamInfo = errors.New("flac stream info block truncated")
)

// StreamInfo is the decoded FLAC STREAMINFO block.
type StreamInfo struct {
	SampleRate   int
	Channels     int
	BitDepth     int
	TotalSamples uint64
}

// ReadStreamInfo reads STREAMINFO from the FLAC file at path. Only the
// metadata blocks are parsed; the frames are never read.
func ReadStreamInfo(path string) (StreamInfo, error) {
	fh, err := os.Open(path) // #nosec G304 - path is chosen by the user
	if err != nil {
		return StreamInfo{}, fmt.Errorf("open flac: %w", err)
	}
	defer func() { _ = fh.Close() }()

	f, err := flac.ParseMetadata(fh)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("parse flac: %w", err)
	}
	for _, block := range f.Meta {
		if block.Type == flac.StreamInfo {
			return parseStreamInfo(block.Data)
		}
	}
	return StreamInfo{}, ErrNoStreamInfo
}

// parseStreamInfo decodes the packed fields: sample rate (20 bits),
// channels-1 (3), bits per sample-1 (5) and total samples (36), starting at byte 10.
func parseStreamInfo(b []byte) (StreamInfo, error) {
	if len(b) < streamInfoLen {
		return StreamInfo{}, fmt.Errorf("%w: %d bytes", ErrShortStreamInfo, len(b))
	}
	rate := int(b[10])<<12 | int(b[11])<<4 | int(b[12])>>4
	channels := int(b[12]>>1&0x07) + 1
	depth := (int(b[12]&0x01)<<4 | int(b[13])>>4) + 1
	total := uint64(b[13]&0x0F)<<32 |
		uint64(b[14])<<24 |
		uint64(b[15])<<16 |
		uint64(b[16])<<8 |
		uint64(b[17])

	return StreamInfo{
		SampleRate:   rate,
		Channels:     channels,
		BitDepth:     depth,
		TotalSamples: total,
	}, nil
}
