package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/media"
	"github.com/maauso/mediamanip/internal/storage"
	"github.com/maauso/mediamanip/internal/task"
)

// KindExtractFrames names the bulk extraction task.
const KindExtractFrames = "extract_frames"

// FramePattern is the printf pattern of bulk-extracted frame names, without extension.
const FramePattern = "frame_%05d"

var (
	// ErrFrameOutOfRange is returned when a frame index is outside [0, frames).
	ErrFrameOutOfRange = errors.New("frame index out of range")
	// ErrUnsupportedFrameFormat is returned for frame images other than png and jpeg.
	ErrUnsupportedFrameFormat = errors.New("unsupported frame format")
	// ErrRemoteDirectory is returned when bulk extraction targets an object store.
	ErrRemoteDirectory = errors.New("frame extraction needs a local directory")
)

// Info describes a video file.
type Info struct {
	Name     string
	Size     int64
	Width    int
	Height   int
	FPS      float64
	Frames   int
	Duration float64
}

// Lines renders the info as label/value lines for display.
func (i Info) Lines() []string {
	whole := int(i.Duration)
	return []string{
		"File: " + i.Name,
		fmt.Sprintf("Size: %d bytes (%.2f MB)", i.Size, float64(i.Size)/1024/1024),
		fmt.Sprintf("Resolution: %d x %d", i.Width, i.Height),
		fmt.Sprintf("FPS: %.2f", i.FPS),
		fmt.Sprintf("Frames: %d", i.Frames),
		fmt.Sprintf("Duration: %.2f s (%dm %ds)", i.Duration, whole/60, whole%60),
	}
}

// Extractor reads facts and frames from video files.
type Extractor struct {
	runner   *media.Runner
	prober   Prober
	store    storage.Storage
	tasks    *task.Runner
	caps     capability.Set
	frameExt string
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProber replaces the ffprobe-backed prober.
func WithProber(p Prober) Option {
	return func(e *Extractor) {
		e.prober = p
	}
}

// WithFrameFormat sets the image format of bulk-extracted frames ("png" or "jpg").
func WithFrameFormat(ext string) Option {
	return func(e *Extractor) {
		e.frameExt = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor. tasks runs bulk extraction.
func NewExtractor(runner *media.Runner, store storage.Storage, tasks *task.Runner, caps capability.Set, opts ...Option) *Extractor {
	e := &Extractor{
		runner:   runner,
		prober:   NewFFprobe(runner),
		store:    store,
		tasks:    tasks,
		caps:     caps,
		frameExt: "png",
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Info probes path. Duration is frames / fps, or 0 when fps is 0.
func (e *Extractor) Info(ctx context.Context, path string) (Info, error) {
	if !e.caps.HasFFprobe() {
		return Info{}, fmt.Errorf("%w: ffprobe is required for video info", apperr.ErrMissingDependency)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: stat %s: %w", apperr.ErrReadFailure, path, err)
	}

	s, err := e.prober.Probe(ctx, path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: probe %s: %w", apperr.ErrReadFailure, path, err)
	}

	info := Info{
		Name:   filepath.Base(path),
		Size:   fi.Size(),
		Width:  s.Width,
		Height: s.Height,
		FPS:    s.FPS,
		Frames: s.Frames,
	}
	if s.FPS > 0 {
		info.Duration = float64(s.Frames) / s.FPS
	}
	return info, nil
}

// ExtractFrame decodes frame index of path, stores it at dest (png or jpeg
// by extension) and returns the decoded image with the stored location.
// Nothing is written when index is outside [0, frames).
func (e *Extractor) ExtractFrame(ctx context.Context, path string, index int, dest string) (image.Image, string, error) {
	if !e.caps.VideoReady() {
		return nil, "", fmt.Errorf("%w: ffmpeg and ffprobe are required for frame extraction", apperr.ErrMissingDependency)
	}
	ext, err := frameExt(dest)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}

	info, err := e.Info(ctx, path)
	if err != nil {
		return nil, "", err
	}
	if index < 0 || index >= info.Frames {
		return nil, "", fmt.Errorf("%w: %w: %d not in [0, %d)", apperr.ErrReadFailure, ErrFrameOutOfRange, index, info.Frames)
	}

	tmp, err := e.decodeFrame(ctx, path, index, ext)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = e.store.CleanupTemp(context.WithoutCancel(ctx), []string{tmp}) }()

	img, err := imaging.Open(tmp)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode frame %d: %w", apperr.ErrReadFailure, index, err)
	}

	f, err := e.store.LoadTemp(ctx, tmp)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}
	defer func() { _ = f.Close() }()

	loc, err := e.store.Put(ctx, dest, f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}

	e.logger.Debug("frame extracted", slog.String("video", path), slog.Int("index", index), slog.String("dest", loc))
	return img, loc, nil
}

// FirstFrame decodes frame 0 for previews and histograms.
func (e *Extractor) FirstFrame(ctx context.Context, path string) (image.Image, error) {
	if !e.caps.HasFFmpeg() {
		return nil, fmt.Errorf("%w: ffmpeg is required to decode video", apperr.ErrMissingDependency)
	}
	tmp, err := e.decodeFrame(ctx, path, 0, ".png")
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.store.CleanupTemp(context.WithoutCancel(ctx), []string{tmp}) }()

	img, err := imaging.Open(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: decode first frame: %w", apperr.ErrReadFailure, err)
	}
	return img, nil
}

// Histogram returns per-channel counts of the first frame.
func (e *Extractor) Histogram(ctx context.Context, path string) (*Histogram, error) {
	img, err := e.FirstFrame(ctx, path)
	if err != nil {
		return nil, err
	}
	return ComputeHistogram(img), nil
}

// ExtractAll writes every frame of path into outDir as frame_00000.<ext>,
// frame_00001.<ext>, ... in a background task. A second extraction into the
// same directory while the first runs fails with task.ErrOutputBusy.
func (e *Extractor) ExtractAll(ctx context.Context, path, outDir string) (*task.Task, error) {
	if !e.caps.VideoReady() {
		return nil, fmt.Errorf("%w: ffmpeg and ffprobe are required for frame extraction", apperr.ErrMissingDependency)
	}
	if storage.IsRemote(outDir) {
		return nil, fmt.Errorf("%w: %w: %s", apperr.ErrWriteFailure, ErrRemoteDirectory, outDir)
	}
	if _, err := frameExt("x." + e.frameExt); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrWriteFailure, err)
	}

	info, err := e.Info(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", apperr.ErrWriteFailure, outDir, err)
	}

	pattern := filepath.Join(outDir, FramePattern+"."+e.frameExt)
	t, err := e.tasks.Submit(ctx, KindExtractFrames, outDir, info.Frames, func(ctx context.Context, progress func(int)) (string, error) {
		var written int
		err := e.runner.FFmpegProgress(ctx, func(frame int) {
			written = frame
			progress(frame)
		},
			"-y",
			"-v", "error",
			"-i", path,
			"-map", "0:v:0",
			"-vsync", "passthrough",
			"-start_number", "0",
			pattern,
		)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Extracted %d frames → %s", written, outDir), nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("frame extraction started",
		slog.String("task_id", t.ID),
		slog.String("video", path),
		slog.String("out_dir", outDir),
		slog.Int("frames", info.Frames),
	)
	return t, nil
}

// decodeFrame renders frame index into a scratch file with extension ext.
func (e *Extractor) decodeFrame(ctx context.Context, path string, index int, ext string) (string, error) {
	tmp, err := e.store.TempFile(ctx, "frame", ext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrReadFailure, err)
	}

	err = e.runner.FFmpeg(ctx,
		"-y",
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-frames:v", "1",
		tmp,
	)
	if err == nil {
		if fi, statErr := os.Stat(tmp); statErr != nil || fi.Size() == 0 {
			err = fmt.Errorf("frame %d produced no image", index)
		}
	}
	if err != nil {
		_ = e.store.CleanupTemp(context.WithoutCancel(ctx), []string{tmp})
		return "", fmt.Errorf("%w: read frame %d: %w", apperr.ErrReadFailure, index, err)
	}
	return tmp, nil
}

func frameExt(dest string) (string, error) {
	ext := strings.ToLower(filepath.Ext(dest))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrameFormat, ext)
	}
}
