package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maauso/mediamanip/internal/session"
)

// taskPollInterval is how often a running background task is polled.
const taskPollInterval = 200 * time.Millisecond

// loadRequested asks the event loop to load a path.
type loadRequested struct {
	Path string
}

// taskTick polls the running task.
type taskTick struct{}

// fileChanged carries a watcher event for the open document.
type fileChanged struct {
	Change session.Change
}

// watchStopped is sent when the watcher channel closes.
type watchStopped struct{}

func requestLoad(path string) tea.Cmd {
	return func() tea.Msg {
		return loadRequested{Path: path}
	}
}

func tickTask() tea.Cmd {
	return tea.Tick(taskPollInterval, func(time.Time) tea.Msg {
		return taskTick{}
	})
}

// waitForChange blocks until the next watcher event.
func waitForChange(ctx context.Context, changes <-chan session.Change) tea.Cmd {
	return func() tea.Msg {
		select {
		case c, ok := <-changes:
			if !ok {
				return watchStopped{}
			}
			return fileChanged{Change: c}
		case <-ctx.Done():
			return watchStopped{}
		}
	}
}
