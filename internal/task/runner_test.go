package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish", task.ID)
	}
}

func TestRunner_Submit_Completes(t *testing.T) {
	r := NewRunner(nil, nil)
	ctx := context.Background()

	task, err := r.Submit(ctx, "extract_frames", t.TempDir(), 3, func(_ context.Context, progress func(int)) (string, error) {
		for i := 1; i <= 3; i++ {
			progress(i)
		}
		return "3 frames", nil
	})
	require.NoError(t, err)
	waitDone(t, task)

	got, err := r.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Progress)
	assert.Equal(t, "3 frames", got.Result)
	assert.Equal(t, 100, got.Percent())

	r.Wait()
	stored, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, StatusCompleted, stored[0].Status)
}

func TestRunner_Submit_Fails(t *testing.T) {
	r := NewRunner(nil, nil)

	task, err := r.Submit(context.Background(), "k", t.TempDir(), 0, func(context.Context, func(int)) (string, error) {
		return "", errors.New("decoder exploded")
	})
	require.NoError(t, err)
	waitDone(t, task)

	assert.Equal(t, StatusFailed, task.GetStatus())
	assert.Equal(t, "decoder exploded", task.Clone().Error)
}

func TestRunner_Cancel(t *testing.T) {
	r := NewRunner(nil, nil)
	started := make(chan struct{})

	task, err := r.Submit(context.Background(), "k", t.TempDir(), 0, func(ctx context.Context, _ func(int)) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.NoError(t, err)

	<-started
	task.Cancel()
	waitDone(t, task)

	assert.Equal(t, StatusCancelled, task.GetStatus())
}

func TestRunner_OutputBusy(t *testing.T) {
	r := NewRunner(nil, nil)
	ctx := context.Background()
	dir := t.TempDir()
	release := make(chan struct{})

	first, err := r.Submit(ctx, "k", dir, 0, func(context.Context, func(int)) (string, error) {
		<-release
		return "ok", nil
	})
	require.NoError(t, err)
	assert.True(t, r.Busy(dir))

	// same directory spelled differently
	_, err = r.Submit(ctx, "k", filepath.Join(dir, "."), 0, func(context.Context, func(int)) (string, error) {
		return "", nil
	})
	assert.ErrorIs(t, err, ErrOutputBusy)

	other, err := r.Submit(ctx, "k", t.TempDir(), 0, func(context.Context, func(int)) (string, error) {
		return "other", nil
	})
	require.NoError(t, err)
	waitDone(t, other)

	close(release)
	waitDone(t, first)
	assert.False(t, r.Busy(dir))

	again, err := r.Submit(ctx, "k", dir, 0, func(context.Context, func(int)) (string, error) {
		return "again", nil
	})
	require.NoError(t, err)
	waitDone(t, again)
	assert.Equal(t, StatusCompleted, again.GetStatus())
}

func TestRunner_CancelAll(t *testing.T) {
	r := NewRunner(nil, nil)
	body := func(ctx context.Context, _ func(int)) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	a, err := r.Submit(context.Background(), "k", t.TempDir(), 0, body)
	require.NoError(t, err)
	b, err := r.Submit(context.Background(), "k", t.TempDir(), 0, body)
	require.NoError(t, err)

	r.CancelAll()
	r.Wait()

	assert.Equal(t, StatusCancelled, a.GetStatus())
	assert.Equal(t, StatusCancelled, b.GetStatus())
}

func TestRunner_Get_NotFound(t *testing.T) {
	_, err := NewRunner(nil, nil).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRunner_FinishedTasksLeaveMemory(t *testing.T) {
	r := NewRunner(nil, nil)
	ctx := context.Background()

	task, err := r.Submit(ctx, "extract_frames", t.TempDir(), 1, func(_ context.Context, progress func(int)) (string, error) {
		progress(1)
		return "1 frames", nil
	})
	require.NoError(t, err)
	r.Wait()

	r.mu.Lock()
	assert.Empty(t, r.live)
	r.mu.Unlock()

	got, err := r.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "1 frames", got.Result)
}

// flakyRepository accepts the submit and start saves, then fails.
type flakyRepository struct {
	*MemoryRepository
	saves int
}

func (f *flakyRepository) Save(ctx context.Context, task *Task) error {
	f.saves++
	if f.saves > 2 {
		return errors.New("disk full")
	}
	return f.MemoryRepository.Save(ctx, task)
}

func TestRunner_FailedFinalSaveKeepsTaskLive(t *testing.T) {
	r := NewRunner(&flakyRepository{MemoryRepository: NewMemoryRepository()}, nil)
	ctx := context.Background()

	task, err := r.Submit(ctx, "extract_frames", t.TempDir(), 0, func(context.Context, func(int)) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	r.Wait()

	got, err := r.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}
