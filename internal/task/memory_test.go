package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	task := New("k", "/x", 0)

	require.NoError(t, repo.Save(ctx, task))

	_ = task.Start()
	task.SetProgress(7)

	saved, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, saved.Status, "stored copy must not follow later mutations")
	assert.Equal(t, 0, saved.Progress)

	require.NoError(t, repo.Save(ctx, task))
	saved, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, saved.Status)
	assert.Equal(t, 7, saved.Progress)
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	_, err := NewMemoryRepository().FindByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := NewWithID("a", "k", "/1", 0)
	second := NewWithID("b", "k", "/2", 0)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, first))

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
}
