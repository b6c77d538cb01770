package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
)

// ErrOutputBusy is returned when a task is submitted for an output location
// another running task is still writing to.
var ErrOutputBusy = errors.New("output location is busy")

// Func is a task body. It reports completed units through progress and
// returns a short result summary. It must return promptly once ctx is done.
type Func func(ctx context.Context, progress func(done int)) (result string, err error)

// Runner starts task bodies in goroutines and tracks them in a Repository.
// At most one active task may target a given output location.
type Runner struct {
	repo   Repository
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*Task // target -> task
	live   map[string]*Task // id -> task
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. A nil repo uses a MemoryRepository.
func NewRunner(repo Repository, logger *slog.Logger) *Runner {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		repo:   repo,
		logger: logger,
		active: make(map[string]*Task),
		live:   make(map[string]*Task),
	}
}

// Submit registers a task of kind writing to target and runs fn in the
// background. ctx bounds the task's lifetime; Task.Cancel stops it early.
func (r *Runner) Submit(ctx context.Context, kind, target string, total int, fn Func) (*Task, error) {
	key := targetKey(target)

	r.mu.Lock()
	if running, ok := r.active[key]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is used by %s", ErrOutputBusy, target, running.ID)
	}
	t := New(kind, target, total)
	r.active[key] = t
	r.live[t.ID] = t
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	t.SetCancel(cancel)

	if err := r.repo.Save(ctx, t); err != nil {
		cancel()
		r.release(key)
		r.mu.Lock()
		delete(r.live, t.ID)
		r.mu.Unlock()
		return nil, fmt.Errorf("save task: %w", err)
	}

	r.logger.Info("task submitted",
		slog.String("task_id", t.ID),
		slog.String("kind", kind),
		slog.String("target", target),
		slog.Int("total", total),
	)

	r.wg.Add(1)
	go r.run(runCtx, cancel, key, t, fn)

	return t, nil
}

func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, key string, t *Task, fn Func) {
	defer r.wg.Done()
	defer cancel()

	if err := t.Start(); err != nil {
		// cancelled while queued
		r.release(key)
		r.retire(t)
		return
	}
	_ = r.save(t)

	result, err := fn(ctx, t.SetProgress)

	// free the target before Done fires so a waiter can resubmit at once
	r.release(key)

	switch {
	case ctx.Err() != nil:
		_ = t.MarkCancelled()
		r.logger.Info("task cancelled", slog.String("task_id", t.ID))
	case err != nil:
		_ = t.Fail(err.Error())
		r.logger.Warn("task failed", slog.String("task_id", t.ID), slog.String("error", err.Error()))
	default:
		_ = t.Complete(result)
		r.logger.Info("task completed", slog.String("task_id", t.ID), slog.String("result", result))
	}
	r.retire(t)
}

// Get returns a snapshot of the task with the given ID.
func (r *Runner) Get(ctx context.Context, id string) (*Task, error) {
	r.mu.Lock()
	t, ok := r.live[id]
	r.mu.Unlock()
	if ok {
		return t.Clone(), nil
	}
	return r.repo.FindByID(ctx, id)
}

// List returns snapshots of every task, oldest first.
func (r *Runner) List(ctx context.Context) ([]*Task, error) {
	return r.repo.List(ctx)
}

// Busy reports whether an active task targets target.
func (r *Runner) Busy(target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[targetKey(target)]
	return ok
}

// CancelAll cancels every active task.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	tasks := make([]*Task, 0, len(r.active))
	for _, t := range r.active {
		tasks = append(tasks, t)
	}
	r.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// Wait blocks until every submitted task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, key)
}

func (r *Runner) save(t *Task) bool {
	// bookkeeping outlives the task context
	if err := r.repo.Save(context.Background(), t); err != nil {
		r.logger.Warn("save task", slog.String("task_id", t.ID), slog.String("error", err.Error()))
		return false
	}
	return true
}

// retire stores the final state of t and stops tracking it in memory. Get
// then answers from the repository. A failed save keeps t live.
func (r *Runner) retire(t *Task) {
	if !r.save(t) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, t.ID)
}

func targetKey(target string) string {
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return filepath.Clean(target)
}
