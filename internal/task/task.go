// Package task runs long operations such as frame extraction in the
// background. A Task is a small state machine with a progress counter, a
// cancel hook and a completion channel the shell can wait on.
package task

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/mediamanip/internal/task/id"
)

// Status represents the current state of a Task.
type Status string

const (
	// StatusQueued indicates the task was accepted but has not started.
	StatusQueued Status = "QUEUED"
	// StatusRunning indicates the task body is executing.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the task body returned an error.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the task was cancelled before finishing.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is a unit of background work.
type Task struct {
	mu sync.RWMutex

	// ID is the unique identifier for this task.
	ID string
	// Kind names the operation, e.g. "extract_frames".
	Kind string
	// Target is the output location the task writes to.
	Target string
	// Status is the current task state.
	Status Status
	// Progress counts completed units of work.
	Progress int
	// Total is the expected number of units, 0 when unknown.
	Total int
	// Result is a short summary set on completion.
	Result string
	// Error contains the failure message if the task failed.
	Error string
	// CreatedAt is when the task was created.
	CreatedAt time.Time
	// StartedAt is when the body started.
	StartedAt time.Time
	// CompletedAt is when the task reached a terminal state.
	CompletedAt time.Time

	cancel    func()
	done      chan struct{}
	closeOnce *sync.Once
}

// New creates a queued Task with a generated ID.
func New(kind, target string, total int) *Task {
	return NewWithID(id.Generate(), kind, target, total)
}

// NewWithID creates a queued Task with the specified ID.
func NewWithID(taskID, kind, target string, total int) *Task {
	return &Task{
		ID:        taskID,
		Kind:      kind,
		Target:    target,
		Status:    StatusQueued,
		Total:     total,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
		closeOnce: &sync.Once{},
	}
}

// TransitionTo attempts to change the task status.
// Reaching a terminal state closes the Done channel.
func (t *Task) TransitionTo(status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transitionLocked(status)
}

func (t *Task) transitionLocked(status Status) error {
	if !canTransition(t.Status, status) {
		return ErrInvalidTransition
	}
	t.Status = status

	now := time.Now()
	switch {
	case status == StatusRunning:
		t.StartedAt = now
	case status.IsTerminal():
		t.CompletedAt = now
		if t.done != nil {
			t.closeOnce.Do(func() { close(t.done) })
		}
	}
	return nil
}

// Start transitions the task from QUEUED to RUNNING.
func (t *Task) Start() error {
	return t.TransitionTo(StatusRunning)
}

// Complete transitions the task to COMPLETED with a result summary.
func (t *Task) Complete(result string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	t.Result = result
	return nil
}

// Fail transitions the task to FAILED with an error message.
func (t *Task) Fail(errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionLocked(StatusFailed); err != nil {
		return err
	}
	t.Error = errMsg
	return nil
}

// MarkCancelled transitions the task to CANCELLED.
func (t *Task) MarkCancelled() error {
	return t.TransitionTo(StatusCancelled)
}

// Cancel asks a running task to stop. A queued task is cancelled at once.
// Cancelling a finished task does nothing.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.Status == StatusQueued {
		_ = t.transitionLocked(StatusCancelled)
	}
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// SetCancel installs the function Cancel calls.
func (t *Task) SetCancel(cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// SetProgress records n completed units. Progress never moves backwards.
func (t *Task) SetProgress(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > t.Progress {
		t.Progress = n
	}
}

// Percent returns progress as 0-100, or -1 when the total is unknown.
func (t *Task) Percent() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.Total <= 0 {
		return -1
	}
	return min(t.Progress*100/t.Total, 100)
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// IsTerminal returns true if the task is in a terminal state.
func (t *Task) IsTerminal() bool {
	return t.GetStatus().IsTerminal()
}

// Done returns a channel closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Clone creates a copy of the task for safe reads. The copy shares the
// Done channel and cancel hook with the original.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:          t.ID,
		Kind:        t.Kind,
		Target:      t.Target,
		Status:      t.Status,
		Progress:    t.Progress,
		Total:       t.Total,
		Result:      t.Result,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		cancel:      t.cancel,
		done:        t.done,
		closeOnce:   t.closeOnce,
	}
}
