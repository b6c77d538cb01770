package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWAV encodes c into dir/name and returns the path.
func writeTestWAV(t *testing.T, dir, name string, c *Clip) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, writeWAVFile(path, c))
	return path
}

func TestWAV_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		clip *Clip
	}{
		{
			name: "16-bit stereo",
			clip: &Clip{SampleRate: 44100, Channels: 2, BitDepth: 16, Samples: []int{0, -1, 32767, -32768, 1234, -4321}},
		},
		{
			name: "8-bit mono",
			clip: &Clip{SampleRate: 8000, Channels: 1, BitDepth: 8, Samples: []int{0, 128, 255, 64}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestWAV(t, t.TempDir(), "clip.wav", tt.clip)

			got, err := readWAVFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.clip.SampleRate, got.SampleRate)
			assert.Equal(t, tt.clip.Channels, got.Channels)
			assert.Equal(t, tt.clip.BitDepth, got.BitDepth)
			assert.Equal(t, tt.clip.Samples, got.Samples)
		})
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not riff data")))
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestEncodeWAV_UnsupportedDepth(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	err = EncodeWAV(f, &Clip{SampleRate: 8000, Channels: 1, BitDepth: 12, Samples: []int{1}})
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
}
