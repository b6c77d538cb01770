package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/media"
	"github.com/maauso/mediamanip/internal/storage"
)

// Format is an export container.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
)

// ErrUnsupportedFormat is returned for export containers other than wav, mp3 and ogg.
var ErrUnsupportedFormat = errors.New("unsupported audio export format")

// encoders maps re-encoded containers to their ffmpeg codec.
var encoders = map[Format]string{
	FormatMP3: "libmp3lame",
	FormatOGG: "libvorbis",
}

// ParseFormat accepts a container name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatWAV, FormatMP3, FormatOGG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Info describes an audio file.
type Info struct {
	Name       string
	Size       int64
	Extension  string
	Duration   time.Duration
	Channels   int
	SampleRate int
	BitDepth   int
}

// Lines renders the info as label/value lines for display.
func (i Info) Lines() []string {
	secs := i.Duration.Seconds()
	whole := int(secs)
	return []string{
		"File: " + i.Name,
		fmt.Sprintf("Size: %d bytes (%.2f MB)", i.Size, float64(i.Size)/1024/1024),
		"Extension: " + i.Extension,
		fmt.Sprintf("Duration: %.2f s (%dm %ds)", secs, whole/60, whole%60),
		fmt.Sprintf("Channels: %d", i.Channels),
		fmt.Sprintf("Frame Rate: %d Hz", i.SampleRate),
		fmt.Sprintf("Sample Width: %d bit", i.BitDepth),
	}
}

// Editor loads, inspects and exports audio files. WAV and FLAC metadata are
// handled natively; every other container goes through ffmpeg.
type Editor struct {
	runner *media.Runner
	store  storage.Storage
	caps   capability.Set
	logger *slog.Logger
}

// NewEditor creates an Editor. caps decides whether ffmpeg-backed paths are offered.
func NewEditor(runner *media.Runner, store storage.Storage, caps capability.Set, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{
		runner: runner,
		store:  store,
		caps:   caps,
		logger: logger,
	}
}

// Load decodes path into PCM.
func (e *Editor) Load(ctx context.Context, path string) (*Clip, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		clip, err := readWAVFile(path)
		if err == nil {
			return clip, nil
		}
		if !errors.Is(err, ErrNotPCM) || !e.caps.HasFFmpeg() {
			return nil, fmt.Errorf("%w: decode %s: %w", apperr.ErrReadFailure, path, err)
		}
	}
	return e.decodeWithFFmpeg(ctx, path)
}

// Info reports metadata for path.
func (e *Editor) Info(ctx context.Context, path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: stat %s: %w", apperr.ErrReadFailure, path, err)
	}
	info := Info{
		Name:      filepath.Base(path),
		Size:      fi.Size(),
		Extension: strings.ToUpper(filepath.Ext(path)),
	}

	if strings.EqualFold(filepath.Ext(path), ".flac") {
		si, err := ReadStreamInfo(path)
		if err != nil {
			return Info{}, fmt.Errorf("%w: %s: %w", apperr.ErrReadFailure, path, err)
		}
		info.Channels = si.Channels
		info.SampleRate = si.SampleRate
		info.BitDepth = si.BitDepth
		if si.SampleRate > 0 {
			info.Duration = time.Duration(si.TotalSamples) * time.Second / time.Duration(si.SampleRate)
		}
		return info, nil
	}

	clip, err := e.Load(ctx, path)
	if err != nil {
		return Info{}, err
	}
	info.Channels = clip.Channels
	info.SampleRate = clip.SampleRate
	info.BitDepth = clip.BitDepth
	info.Duration = clip.Duration()
	return info, nil
}

// Export writes clip to dest in the container named by dest's extension.
// A dest without extension gets ".wav".
func (e *Editor) Export(ctx context.Context, clip *Clip, dest string) (string, error) {
	ext := filepath.Ext(dest)
	if ext == "" {
		dest += "." + string(FormatWAV)
		ext = filepath.Ext(dest)
	}
	format, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}
	return e.ExportAs(ctx, clip, dest, format)
}

// ExportAs writes clip to dest as format regardless of dest's extension.
func (e *Editor) ExportAs(ctx context.Context, clip *Clip, dest string, format Format) (string, error) {
	codec, reencode := encoders[format]
	if reencode && !e.caps.HasFFmpeg() {
		return "", fmt.Errorf("%w: ffmpeg is required to export %s", apperr.ErrMissingDependency, format)
	}
	if format != FormatWAV && !reencode {
		return "", fmt.Errorf("%w: %w: %q", apperr.ErrWriteFailure, ErrUnsupportedFormat, format)
	}

	wavPath, err := e.store.TempFile(ctx, "export", ".wav")
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}
	temps := []string{wavPath}
	defer func() { _ = e.store.CleanupTemp(context.WithoutCancel(ctx), temps) }()

	if err := writeWAVFile(wavPath, clip); err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}

	src := wavPath
	if reencode {
		encoded, err := e.store.TempFile(ctx, "export", "."+string(format))
		if err != nil {
			return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
		}
		temps = append(temps, encoded)

		if err := e.runner.FFmpeg(ctx,
			"-y",
			"-v", "error",
			"-i", wavPath,
			"-c:a", codec,
			encoded,
		); err != nil {
			return "", fmt.Errorf("%w: encode %s: %w", apperr.ErrWriteFailure, format, err)
		}
		src = encoded
	}

	f, err := e.store.LoadTemp(ctx, src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}
	defer func() { _ = f.Close() }()

	loc, err := e.store.Put(ctx, dest, f)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}

	e.logger.Debug("audio exported",
		slog.String("dest", loc),
		slog.String("format", string(format)),
		slog.Duration("duration", clip.Duration()),
	)
	return loc, nil
}

// decodeWithFFmpeg converts path to 16-bit PCM WAV in scratch space and decodes that.
func (e *Editor) decodeWithFFmpeg(ctx context.Context, path string) (*Clip, error) {
	if !e.caps.HasFFmpeg() {
		return nil, fmt.Errorf("%w: ffmpeg is required to decode %s", apperr.ErrMissingDependency, filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrReadFailure, err)
	}

	tmp, err := e.store.TempFile(ctx, "decode", ".wav")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrReadFailure, err)
	}
	defer func() { _ = e.store.CleanupTemp(context.WithoutCancel(ctx), []string{tmp}) }()

	if err := e.runner.FFmpeg(ctx,
		"-y",
		"-v", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		tmp,
	); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", apperr.ErrReadFailure, path, err)
	}

	clip, err := readWAVFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", apperr.ErrReadFailure, path, err)
	}
	return clip, nil
}

func readWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path) // #nosec G304 - path is chosen by the user or created in scratch space
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return DecodeWAV(f)
}

func writeWAVFile(path string, clip *Clip) error {
	f, err := os.Create(path) // #nosec G304 - path is created in scratch space
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, clip); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
