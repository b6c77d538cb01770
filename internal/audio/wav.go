package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVE format tags for integer PCM.
const (
	pcmFormat        = 1
	extensibleFormat = 0xFFFE
)

var (
	// ErrInvalidWAV is returned when the data is not a RIFF/WAVE file.
	ErrInvalidWAV = errors.New("not a valid wav file")
	// ErrNotPCM is returned for WAV files using a compressed or float encoding.
	ErrNotPCM = errors.New("wav is not integer pcm")
)

// DecodeWAV reads an integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if d.WavAudioFormat != pcmFormat && d.WavAudioFormat != extensibleFormat {
		return nil, fmt.Errorf("%w: format tag %d", ErrNotPCM, d.WavAudioFormat)
	}
	if _, _, _, err := sampleRange(int(d.BitDepth)); err != nil {
		return nil, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}

	return &Clip{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Samples:    buf.Data,
	}, nil
}

// EncodeWAV writes c as an integer PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, c *Clip) error {
	if _, _, _, err := sampleRange(c.BitDepth); err != nil {
		return err
	}

	enc := wav.NewEncoder(w, c.SampleRate, c.BitDepth, c.Channels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: c.Channels,
			SampleRate:  c.SampleRate,
		},
		Data:           c.Samples,
		SourceBitDepth: c.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
