package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/media"
	"github.com/maauso/mediamanip/internal/storage"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// skipIfNoEncoder skips the test if ffmpeg was built without the named encoder.
func skipIfNoEncoder(t *testing.T, name string) {
	t.Helper()
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil || !strings.Contains(string(out), name) {
		t.Skipf("ffmpeg encoder %s not available, skipping test", name)
	}
}

func newTestEditor(t *testing.T, caps capability.Set) *Editor {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewEditor(media.NewRunner(caps.FFmpeg, caps.FFprobe), store, caps, nil)
}

func tone() *Clip {
	c := &Clip{SampleRate: 8000, Channels: 2, BitDepth: 16, Samples: make([]int, 2*8000)}
	for i := range c.Samples {
		c.Samples[i] = (i % 200) * 100
	}
	return c
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"wav": FormatWAV, ".MP3": FormatMP3, "Ogg": FormatOGG} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("flac")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEditor_NativeWAV(t *testing.T) {
	ctx := context.Background()
	e := newTestEditor(t, capability.Set{})
	dir := t.TempDir()
	src := writeTestWAV(t, dir, "tone.wav", tone())

	t.Run("load", func(t *testing.T) {
		clip, err := e.Load(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, tone().Samples, clip.Samples)
	})

	t.Run("info", func(t *testing.T) {
		info, err := e.Info(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, "tone.wav", info.Name)
		assert.Equal(t, ".WAV", info.Extension)
		assert.Equal(t, 2, info.Channels)
		assert.Equal(t, 8000, info.SampleRate)
		assert.Equal(t, 16, info.BitDepth)
		assert.Equal(t, time.Second, info.Duration)
		assert.Contains(t, info.Lines(), "Duration: 1.00 s (0m 1s)")
	})

	t.Run("export trimmed", func(t *testing.T) {
		clip, err := e.Load(ctx, src)
		require.NoError(t, err)

		dest := filepath.Join(dir, "out", "trimmed.wav")
		loc, err := e.Export(ctx, clip.Trim(0.25, 0.75), dest)
		require.NoError(t, err)
		assert.Equal(t, dest, loc)

		back, err := e.Load(ctx, dest)
		require.NoError(t, err)
		assert.Equal(t, 4000, back.Frames())
	})

	t.Run("export without extension defaults to wav", func(t *testing.T) {
		loc, err := e.Export(ctx, tone(), filepath.Join(dir, "noext"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "noext.wav"), loc)
		assert.FileExists(t, loc)
	})

	t.Run("unsupported export extension", func(t *testing.T) {
		_, err := e.Export(ctx, tone(), filepath.Join(dir, "out.flac"))
		assert.ErrorIs(t, err, apperr.ErrWriteFailure)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := e.Load(ctx, filepath.Join(dir, "gone.wav"))
		assert.ErrorIs(t, err, apperr.ErrReadFailure)
	})

	t.Run("corrupt wav", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.wav")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
		_, err := e.Load(ctx, bad)
		assert.ErrorIs(t, err, apperr.ErrReadFailure)
	})
}

func TestEditor_WithoutFFmpeg(t *testing.T) {
	ctx := context.Background()
	e := newTestEditor(t, capability.Set{})
	dir := t.TempDir()

	for _, ext := range []string{"mp3", "ogg"} {
		t.Run("export "+ext, func(t *testing.T) {
			dest := filepath.Join(dir, "out."+ext)
			_, err := e.Export(ctx, tone(), dest)
			assert.ErrorIs(t, err, apperr.ErrMissingDependency)
			assert.NoFileExists(t, dest)
		})
	}

	t.Run("decode mp3", func(t *testing.T) {
		src := filepath.Join(dir, "song.mp3")
		require.NoError(t, os.WriteFile(src, []byte("ID3"), 0o644))
		_, err := e.Load(ctx, src)
		assert.ErrorIs(t, err, apperr.ErrMissingDependency)
	})

	t.Run("flac info needs no ffmpeg", func(t *testing.T) {
		src := filepath.Join(dir, "meta.flac")
		writeTestFLAC(t, src, packStreamInfo(44100, 2, 16, 441000))

		info, err := e.Info(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, info.Duration)
		assert.Equal(t, 44100, info.SampleRate)
		assert.Equal(t, ".FLAC", info.Extension)
	})
}

func TestEditor_FFmpeg(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx := context.Background()
	e := newTestEditor(t, capability.Detect("", ""))
	dir := t.TempDir()

	t.Run("decodes flac through ffmpeg", func(t *testing.T) {
		src := filepath.Join(dir, "sine.flac")
		cmd := exec.Command("ffmpeg", "-y", "-v", "error",
			"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=8000:duration=1",
			src,
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))

		clip, err := e.Load(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, 8000, clip.SampleRate)
		assert.Equal(t, 1, clip.Channels)
		assert.Equal(t, 16, clip.BitDepth)
		assert.Equal(t, 8000, clip.Frames())

		info, err := e.Info(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, 8000, info.SampleRate)
		assert.Equal(t, time.Second, info.Duration)
	})

	t.Run("exports mp3", func(t *testing.T) {
		skipIfNoEncoder(t, "libmp3lame")

		dest := filepath.Join(dir, "tone.mp3")
		loc, err := e.Export(ctx, tone(), dest)
		require.NoError(t, err)
		assert.Equal(t, dest, loc)

		back, err := e.Load(ctx, dest)
		require.NoError(t, err)
		assert.Equal(t, 2, back.Channels)
	})

	t.Run("exports ogg", func(t *testing.T) {
		skipIfNoEncoder(t, "libvorbis")

		dest := filepath.Join(dir, "tone.ogg")
		_, err := e.Export(ctx, tone(), dest)
		require.NoError(t, err)
		assert.FileExists(t, dest)
	})
}
