// Package audio is the audio adapter: decode-on-demand PCM clips with trim,
// gain and reversal, plus export through native WAV encoding or ffmpeg.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/maauso/mediamanip/internal/apperr"
)

// maxMillis caps trim offsets so frame arithmetic cannot overflow.
const maxMillis = 1 << 40

const (
	// MinGainDB and MaxGainDB bound Volume.
	MinGainDB = -20.0
	MaxGainDB = 20.0
)

// ErrGainOutOfRange is returned when a gain is outside [MinGainDB, MaxGainDB].
var ErrGainOutOfRange = fmt.Errorf("gain must be between %g and %g dB", MinGainDB, MaxGainDB)

// ErrUnsupportedBitDepth is returned for PCM widths other than 8, 16, 24 and 32 bits.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// Clip is decoded interleaved integer PCM.
type Clip struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Samples holds Channels values per frame. 8-bit samples are unsigned
	// and centred on 128, wider ones are signed.
	Samples []int
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Trim returns the segment between start and end seconds. Offsets are
// truncated to milliseconds, then converted to frames. Negative bounds clamp
// to the start, bounds past the end clamp to the end, and end before start
// yields an empty clip.
func (c *Clip) Trim(start, end float64) *Clip {
	from := c.frameAt(secondsToMillis(start))
	to := c.frameAt(secondsToMillis(end))
	if to < from {
		to = from
	}

	out := c.header()
	out.Samples = make([]int, (to-from)*c.Channels)
	copy(out.Samples, c.Samples[from*c.Channels:to*c.Channels])
	return out
}

// Volume returns the clip scaled by 10^(db/20), clipped to the bit depth range.
// A 0 dB change returns an exact copy.
func (c *Clip) Volume(db float64) (*Clip, error) {
	if math.IsNaN(db) || db < MinGainDB || db > MaxGainDB {
		return nil, fmt.Errorf("%w: %w: got %g", apperr.ErrInvalidArgument, ErrGainOutOfRange, db)
	}
	lo, hi, mid, err := sampleRange(c.BitDepth)
	if err != nil {
		return nil, err
	}

	out := c.header()
	out.Samples = make([]int, len(c.Samples))
	if db == 0 {
		copy(out.Samples, c.Samples)
		return out, nil
	}

	gain := math.Pow(10, db/20)
	for i, v := range c.Samples {
		scaled := int(math.Round(float64(v-mid)*gain)) + mid
		out.Samples[i] = min(max(scaled, lo), hi)
	}
	return out, nil
}

// Reverse returns the clip with frame order reversed. Samples inside a frame
// keep their channel order.
func (c *Clip) Reverse() *Clip {
	out := c.header()
	out.Samples = make([]int, len(c.Samples))

	ch := max(c.Channels, 1)
	frames := len(c.Samples) / ch
	for f := 0; f < frames; f++ {
		src := (frames - 1 - f) * ch
		copy(out.Samples[f*ch:(f+1)*ch], c.Samples[src:src+ch])
	}
	return out
}

func (c *Clip) header() *Clip {
	return &Clip{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   c.BitDepth,
	}
}

func (c *Clip) frameAt(ms int64) int {
	total := c.Frames()
	if ms <= 0 {
		return 0
	}
	f := ms * int64(c.SampleRate) / 1000
	if f > int64(total) {
		return total
	}
	return int(f)
}

func secondsToMillis(s float64) int64 {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	if s >= maxMillis/1000 {
		return maxMillis
	}
	return int64(s * 1000)
}

// sampleRange returns the valid sample bounds and the silence value for a bit depth.
func sampleRange(bitDepth int) (lo, hi, mid int, err error) {
	switch bitDepth {
	case 8:
		return 0, math.MaxUint8, 128, nil
	case 16, 24, 32:
		return -(1 << (bitDepth - 1)), 1<<(bitDepth-1) - 1, 0, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}
