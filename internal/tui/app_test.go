package tui

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediamanip/internal/audio"
	"github.com/maauso/mediamanip/internal/capability"
	"github.com/maauso/mediamanip/internal/media"
	"github.com/maauso/mediamanip/internal/session"
	"github.com/maauso/mediamanip/internal/storage"
	"github.com/maauso/mediamanip/internal/task"
	"github.com/maauso/mediamanip/internal/tui/styles"
	"github.com/maauso/mediamanip/internal/video"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	caps := capability.Set{}
	runner := media.NewRunner("ffmpeg", "ffprobe")
	tasks := task.NewRunner(nil, nil)
	sess := session.New(
		audio.NewEditor(runner, store, caps, nil),
		video.NewExtractor(runner, store, tasks, caps),
		store, caps,
	)
	app := New(context.Background(), sess)
	app.SetDimensions(100, 30)
	t.Cleanup(app.shutdown)
	return app
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func writeTextFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	app := New(context.Background(), nil)

	require.NotNil(t, app)
	assert.Equal(t, idleStatus, app.Status())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app := newTestApp(t)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Equal(t, 120, app.width)
	assert.True(t, app.ready)
}

func TestApp_LoadAndRunTool(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, imaging.Save(imaging.New(8, 4, color.NRGBA{R: 255, A: 255}), path))

	app.Update(loadRequested{Path: path})
	assert.Equal(t, "Loaded: pic.png  [IMAGE]", app.Status())
	require.NotEmpty(t, app.tools)
	assert.Equal(t, "rotate90", app.tools[0].ID)
	require.NotNil(t, app.preview)
	assert.NotNil(t, app.preview.Image)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Rotate 90° applied", app.Status())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app.Update(keyRunes("j"))
	assert.Equal(t, 2, app.cursor)
	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, app.cursor)

	view := app.View()
	assert.Contains(t, view, title)
	assert.Contains(t, view, "Transform")
	assert.Contains(t, view, "> Rotate 180°")
}

func TestApp_ErrorModalBlocks(t *testing.T) {
	app := newTestApp(t)

	app.Update(loadRequested{Path: filepath.Join(t.TempDir(), "missing.png")})
	require.NotNil(t, app.modal)
	assert.Equal(t, "Not Found", app.modal.title)
	assert.True(t, app.modal.isErr)
	assert.Contains(t, app.View(), "Not Found")

	app.Update(keyRunes("o"))
	assert.False(t, app.browsing, "keys are swallowed while the modal is open")

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, app.modal)
}

func TestApp_DialogOutcome(t *testing.T) {
	app := newTestApp(t)
	app.Update(loadRequested{Path: writeTextFile(t, "a b\nc\n")})

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, app.modal)
	assert.Equal(t, "Text Stats", app.modal.title)
	assert.False(t, app.modal.isErr)
	assert.Contains(t, app.modal.lines, "Words:      3")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, app.modal)
}

func TestApp_OneExtractionAtATime(t *testing.T) {
	app := newTestApp(t)
	running := task.New("extract_frames", t.TempDir(), 10)
	require.NoError(t, running.Start())
	app.task = running

	cmd := app.dispatch("extract_all", map[string]string{"dir": t.TempDir()})

	assert.Nil(t, cmd)
	assert.Same(t, running, app.task)
	require.NotNil(t, app.modal)
	assert.True(t, app.modal.isErr)
	assert.Contains(t, app.modal.lines[0], "frame extraction is already running")
	assert.Contains(t, app.modal.lines[0], running.ID)

	app.modal = nil
	require.NoError(t, running.Complete("Extracted 10 frames"))
	app.Update(taskTick{})
	assert.Equal(t, "Extracted 10 frames", app.status)
	assert.Nil(t, app.task)
}

func TestApp_Form(t *testing.T) {
	app := newTestApp(t)
	app.Update(loadRequested{Path: writeTextFile(t, "banana")})

	app.cursor = 2
	require.Equal(t, "replace", app.tools[app.cursor].ID)
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, app.form)
	assert.Contains(t, app.View(), "Find & Replace")

	app.Update(keyRunes("a"))
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(keyRunes("o"))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, app.form)
	assert.Equal(t, "Replaced 3 occurrence(s)", app.Status())
	assert.Equal(t, "bonono", app.preview.Text)
}

func TestApp_FormCancel(t *testing.T) {
	app := newTestApp(t)
	app.Update(loadRequested{Path: writeTextFile(t, "x")})
	app.cursor = 2
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, app.form)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, app.form)
	assert.Equal(t, "Loaded: notes.txt  [TEXT]", app.Status())
}

func TestApp_Browse(t *testing.T) {
	app := newTestApp(t)
	path := writeTextFile(t, "hello")

	app.Update(keyRunes("o"))
	require.True(t, app.browsing)
	app.Update(keyRunes(path))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, app.browsing)
	assert.Equal(t, "Loaded: notes.txt  [TEXT]", app.Status())
	assert.Equal(t, "hello", app.preview.Text)
}

func TestApp_FileChanged(t *testing.T) {
	app := newTestApp(t)

	app.Update(fileChanged{Change: session.Change{Path: "/tmp/a.txt"}})
	assert.Equal(t, "File changed on disk, press r to reload", app.Status())

	app.Update(fileChanged{Change: session.Change{Path: "/tmp/a.txt", Removed: true}})
	assert.Equal(t, "File removed from disk: /tmp/a.txt", app.Status())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(keyRunes("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBars(t *testing.T) {
	assert.Equal(t, " ▄█", bars([]int{0, 4, 8}))
	assert.Equal(t, "▁█", bars([]int{1, 100}))
	assert.Equal(t, "   ", bars([]int{0, 0, 0}))
}

func TestRenderImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	out := renderImage(img, 4, 2)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, 4, strings.Count(l, halfBlock))
	}
	assert.Empty(t, renderImage(nil, 4, 2))
}

func TestRenderHistogram(t *testing.T) {
	img := imaging.New(2, 2, color.NRGBA{R: 255, G: 0, B: 128, A: 255})

	out := renderHistogram(video.ComputeHistogram(img), 40, styles.DefaultStyles())

	assert.Contains(t, out, "Red")
	assert.Contains(t, out, "Green")
	assert.Contains(t, out, "Blue")
	assert.Empty(t, renderHistogram(nil, 40, styles.DefaultStyles()))
}
