// Package media runs the ffmpeg and ffprobe command-line tools on behalf of
// the audio and video adapters.
package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Static errors for media operations.
var (
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
	// ErrNoArgs is returned when a command is run without arguments.
	ErrNoArgs = errors.New("no arguments provided")
)

// Runner executes ffmpeg and ffprobe.
type Runner struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner. Empty paths default to the binary names,
// resolved through PATH at execution time.
func NewRunner(ffmpegPath, ffprobePath string, opts ...Option) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	r := &Runner{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FFmpegPath returns the ffmpeg binary this runner executes.
func (r *Runner) FFmpegPath() string {
	return r.ffmpegPath
}

// FFprobePath returns the ffprobe binary this runner executes.
func (r *Runner) FFprobePath() string {
	return r.ffprobePath
}

// FFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (r *Runner) FFmpeg(ctx context.Context, args ...string) error {
	if len(args) == 0 {
		return ErrNoArgs
	}
	r.logger.Debug("running ffmpeg", slog.Any("args", args))

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}

// FFmpegProgress executes ffmpeg with machine-readable progress on stdout
// and calls onFrame with the running frame count of each progress report.
func (r *Runner) FFmpegProgress(ctx context.Context, onFrame func(frame int), args ...string) error {
	if len(args) == 0 {
		return ErrNoArgs
	}
	full := append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	r.logger.Debug("running ffmpeg", slog.Any("args", full))

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffmpegPath, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &FFmpegError{Args: full, Stderr: stderr.String(), Err: err}
	}

	ParseProgress(stdout, onFrame)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   full,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}

// ParseProgress reads ffmpeg "-progress" key=value output and reports each
// frame counter. It returns when r is exhausted.
func ParseProgress(r io.Reader, onFrame func(frame int)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key != "frame" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		if onFrame != nil {
			onFrame(n)
		}
	}
	// drain so ffmpeg never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

// FFprobe executes ffprobe and returns its stdout.
func (r *Runner) FFprobe(ctx context.Context, args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, ErrNoArgs
	}
	r.logger.Debug("running ffprobe", slog.Any("args", args))

	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, r.ffprobePath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
