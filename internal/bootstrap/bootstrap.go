// Package bootstrap wires configuration, adapters and the session together.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/config"
	"github.com/maauso/mediamanip/internal/media"
	"github.com/maauso/mediamanip/internal/session"
	"github.com/maauso/mediamanip/internal/storage"
	"github.com/maauso/mediamanip/internal/task"
	"github.com/maauso/mediamanip/internal/video"
)

// Dependencies holds everything a front end needs to drive a session.
type Dependencies struct {
	Config       *config.Config
	Logger       *slog.Logger
	Capabilities capability.Set
	Storage      storage.Storage
	Tasks        *task.Runner
	Session      *session.Session

	closeLog func() error
}

// FromEnv loads configuration from the environment and builds the
// dependencies. Logs go to w, or to LOG_FILE when w is nil.
func FromEnv(w io.Writer) (*Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	closeLog := func() error { return nil }
	if w == nil {
		w, closeLog, err = cfg.OpenLogFile()
		if err != nil {
			return nil, err
		}
	}

	deps, err := NewDependencies(cfg, cfg.NewLogger(w))
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	deps.closeLog = closeLog
	return deps, nil
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	caps := capability.Detect(cfg.FFmpegPath, cfg.FFprobePath)
	logger.Info("capabilities detected",
		slog.String("tools", caps.String()),
	)

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	runner := media.NewRunner(caps.FFmpeg, caps.FFprobe, media.WithLogger(logger))
	tasks := task.NewRunner(task.NewMemoryRepository(), logger)

	editor := audio.NewEditor(runner, store, caps, logger)
	extractor := video.NewExtractor(runner, store, tasks, caps,
		video.WithFrameFormat(cfg.FrameFormat),
		video.WithLogger(logger),
	)

	sess := session.New(editor, extractor, store, caps,
		session.WithPreviewSize(cfg.PreviewWidth, cfg.PreviewHeight),
		session.WithLogger(logger),
	)

	return &Dependencies{
		Config:       cfg,
		Logger:       logger,
		Capabilities: caps,
		Storage:      store,
		Tasks:        tasks,
		Session:      sess,
		closeLog:     func() error { return nil },
	}, nil
}

// Close cancels running tasks, waits for them and closes the log file.
func (d *Dependencies) Close() error {
	d.Tasks.CancelAll()
	d.Tasks.Wait()
	if d.closeLog == nil {
		return nil
	}
	return d.closeLog()
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("temp_dir", localStore.TempDir()),
	)
	return localStore, nil
}
