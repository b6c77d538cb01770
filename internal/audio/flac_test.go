package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packStreamInfo builds a STREAMINFO body with the given fields.
func packStreamInfo(rate, channels, depth int, total uint64) []byte {
	b := make([]byte, streamInfoLen)
	b[10] = byte(rate >> 12)
	b[11] = byte(rate >> 4)
	b[12] = byte(rate&0x0F)<<4 | byte(channels-1)<<1 | byte(depth-1)>>4
	b[13] = byte(depth-1)<<4 | byte(total>>32&0x0F)
	b[14] = byte(total >> 24)
	b[15] = byte(total >> 16)
	b[16] = byte(total >> 8)
	b[17] = byte(total)
	return b
}

// writeTestFLAC writes a metadata-only FLAC file carrying a STREAMINFO block.
func writeTestFLAC(t *testing.T, path string, body []byte) {
	t.Helper()
	data := []byte("fLaC")
	data = append(data, 0x80, 0x00, 0x00, byte(len(body))) // last block, STREAMINFO
	data = append(data, body...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestParseStreamInfo(t *testing.T) {
	tests := []struct {
		name string
		want StreamInfo
	}{
		{name: "cd audio", want: StreamInfo{SampleRate: 44100, Channels: 2, BitDepth: 16, TotalSamples: 441000}},
		{name: "hi-res", want: StreamInfo{SampleRate: 192000, Channels: 6, BitDepth: 24, TotalSamples: 1 << 33}},
		{name: "mono 8-bit", want: StreamInfo{SampleRate: 8000, Channels: 1, BitDepth: 8, TotalSamples: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStreamInfo(packStreamInfo(tt.want.SampleRate, tt.want.Channels, tt.want.BitDepth, tt.want.TotalSamples))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		_, err := parseStreamInfo(make([]byte, 20))
		assert.ErrorIs(t, err, ErrShortStreamInfo)
	})
}

func TestReadStreamInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.flac")
	writeTestFLAC(t, path, packStreamInfo(48000, 2, 24, 96000))

	got, err := ReadStreamInfo(path)
	require.NoError(t, err)
	assert.Equal(t, StreamInfo{SampleRate: 48000, Channels: 2, BitDepth: 24, TotalSamples: 96000}, got)

	_, err = ReadStreamInfo(filepath.Join(t.TempDir(), "missing.flac"))
	assert.Error(t, err)
}
