// Package tui is the interactive terminal shell. It owns the bubbletea event
// loop; the session is only touched from Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/session"
	"github.com/maauso/mediamanip/internal/task"
	"github.com/maauso/mediamanip/internal/tui/keymap"
	"github.com/maauso/mediamanip/internal/tui/styles"
)

const (
	title       = "Multimedia File Manipulator"
	subtitle    = "Load any file, manipulate it instantly"
	idleStatus  = "Browse a file to get started …"
	toolsWidth  = 32
	chromeLines = 7
)

// modal is a blocking dialog. It must be dismissed before anything else.
type modal struct {
	title string
	lines []string
	isErr bool
}

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	session *session.Session
	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	logger  *slog.Logger

	path     textinput.Model
	browsing bool
	form     *form
	modal    *modal

	table  session.Table
	tools  []session.Tool
	cursor int

	preview  *session.Preview
	viewport viewport.Model

	status  string
	spinner spinner.Model
	task    *task.Task

	stopWatch context.CancelFunc
	watchCtx  context.Context
	changes   <-chan session.Change
	initial   string

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithInitialPath loads path as soon as the program starts.
func WithInitialPath(path string) Option {
	return func(a *App) {
		a.initial = path
	}
}

// New creates the shell around sess.
func New(ctx context.Context, sess *session.Session, opts ...Option) *App {
	st := styles.DefaultStyles()

	path := textinput.New()
	path.Placeholder = "path/to/file"
	path.CharLimit = 4096
	path.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Warning

	a := &App{
		ctx:      ctx,
		session:  sess,
		styles:   st,
		keys:     keymap.DefaultKeyMap(),
		help:     help.New(),
		logger:   slog.New(slog.DiscardHandler),
		path:     path,
		viewport: viewport.New(80, 20),
		status:   idleStatus,
		spinner:  sp,
		width:    100,
		height:   30,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle(title)}
	if a.initial != "" {
		a.path.SetValue(a.initial)
		cmds = append(cmds, requestLoad(a.initial))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case loadRequested:
		return a, a.load(msg.Path)

	case taskTick:
		return a, a.pollTask()

	case spinner.TickMsg:
		if a.task == nil {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case fileChanged:
		if msg.Change.Removed {
			a.status = "File removed from disk: " + msg.Change.Path
		} else {
			a.status = "File changed on disk, press r to reload"
		}
		return a, a.rearmWatch()

	case watchStopped:
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		a.shutdown()
		return tea.Quit
	}

	switch {
	case a.modal != nil:
		if key.Matches(msg, a.keys.Run, a.keys.Cancel) || msg.String() == " " {
			a.modal = nil
		}
		return nil

	case a.browsing:
		switch {
		case key.Matches(msg, a.keys.Cancel):
			a.browsing = false
			a.path.Blur()
			return nil
		case key.Matches(msg, a.keys.Run):
			a.browsing = false
			a.path.Blur()
			return a.load(strings.TrimSpace(a.path.Value()))
		}
		var cmd tea.Cmd
		a.path, cmd = a.path.Update(msg)
		return cmd

	case a.form != nil:
		switch {
		case key.Matches(msg, a.keys.Cancel):
			a.form = nil
			return nil
		case key.Matches(msg, a.keys.Next), msg.String() == "down":
			a.form.next()
			return nil
		case msg.String() == "shift+tab", msg.String() == "up":
			a.form.prev()
			return nil
		case key.Matches(msg, a.keys.Run):
			if !a.form.last() {
				a.form.next()
				return nil
			}
			f := a.form
			a.form = nil
			return a.dispatch(f.tool.ID, f.values())
		}
		return a.form.update(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.shutdown()
		return tea.Quit
	case key.Matches(msg, a.keys.Open):
		a.browsing = true
		return a.path.Focus()
	case key.Matches(msg, a.keys.Reload):
		if doc := a.session.Document(); doc != nil {
			return a.load(doc.Path)
		}
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.tools)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Run):
		if a.cursor < len(a.tools) {
			tool := a.tools[a.cursor]
			if len(tool.Params) == 0 {
				return a.dispatch(tool.ID, nil)
			}
			a.form = newForm(tool, a.width-toolsWidth-12)
			return textinput.Blink
		}
	case key.Matches(msg, a.keys.Cancel):
		if a.task != nil {
			a.task.Cancel()
			a.status = "Cancelling …"
		}
	case key.Matches(msg, a.keys.ScrollUp, a.keys.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}
	return nil
}

// load replaces the document. On failure the previous one stays on screen.
func (a *App) load(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	out, err := a.session.Load(a.ctx, path)
	if err != nil {
		a.showError(err)
		return nil
	}
	a.path.SetValue(a.session.Document().Path)
	a.form = nil
	a.refreshTools()
	return tea.Batch(a.apply(out), a.watch())
}

// errTaskRunning refuses a second background task while one is tracked.
var errTaskRunning = errors.New("frame extraction is already running")

// startsTask reports whether the tool id runs as a background task.
func startsTask(id string) bool {
	return id == "extract_all"
}

func (a *App) dispatch(id string, args map[string]string) tea.Cmd {
	if a.task != nil && startsTask(id) {
		a.showError(fmt.Errorf("%w (task %s), press esc to cancel it first", errTaskRunning, a.task.ID))
		return nil
	}
	out, err := a.session.Dispatch(a.ctx, id, args)
	if err != nil {
		a.showError(err)
		return nil
	}
	return a.apply(out)
}

// apply shows an outcome.
func (a *App) apply(out session.Outcome) tea.Cmd {
	if out.Status != "" {
		a.status = out.Status
	}
	if out.Preview != nil {
		a.preview = out.Preview
		if out.Preview.Image == nil && out.Preview.Histogram == nil {
			a.viewport.SetContent(out.Preview.Text)
			a.viewport.GotoTop()
		}
	}
	if out.Dialog != nil {
		a.modal = &modal{title: out.Dialog.Title, lines: out.Dialog.Lines}
	}
	if out.Task != nil {
		a.task = out.Task
		return tea.Batch(tickTask(), a.spinner.Tick)
	}
	return nil
}

func (a *App) pollTask() tea.Cmd {
	if a.task == nil {
		return nil
	}
	snap := a.task.Clone()
	switch snap.Status {
	case task.StatusCompleted:
		a.status = snap.Result
		a.task = nil
		return nil
	case task.StatusFailed:
		a.task = nil
		a.showError(fmt.Errorf("frame extraction failed: %s", snap.Error))
		return nil
	case task.StatusCancelled:
		a.status = "Extraction cancelled"
		a.task = nil
		return nil
	}
	if pct := snap.Percent(); pct >= 0 {
		a.status = fmt.Sprintf("Extracting frames … %d/%d (%d%%)", snap.Progress, snap.Total, pct)
	} else {
		a.status = fmt.Sprintf("Extracting frames … %d", snap.Progress)
	}
	return tickTask()
}

func (a *App) refreshTools() {
	a.cursor = 0
	a.tools = nil
	table, err := a.session.Tools()
	if err != nil {
		a.table = session.Table{}
		return
	}
	a.table = table
	for _, sec := range table.Sections {
		a.tools = append(a.tools, sec.Tools...)
	}
}

// watch restarts the file watcher for the current document.
func (a *App) watch() tea.Cmd {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	changes, err := a.session.Watch(ctx)
	if err != nil {
		cancel()
		a.stopWatch = nil
		a.logger.Warn("file watch unavailable", slog.String("error", err.Error()))
		return nil
	}
	a.stopWatch = cancel
	a.watchCtx, a.changes = ctx, changes
	return waitForChange(ctx, changes)
}

func (a *App) rearmWatch() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	return waitForChange(a.watchCtx, a.changes)
}

func (a *App) showError(err error) {
	a.logger.Debug("showing error", slog.String("error", err.Error()))
	a.modal = &modal{title: apperr.Title(err), lines: []string{err.Error()}, isErr: true}
}

func (a *App) shutdown() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.task != nil {
		a.task.Cancel()
	}
}

// SetDimensions resizes the layout.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	a.viewport.Width = max(10, width-toolsWidth-8)
	a.viewport.Height = max(3, height-chromeLines-2)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	header := a.styles.Header.Width(a.width).Render(title) + "\n" +
		a.styles.Subtitle.Render(" "+subtitle)

	picker := a.styles.Normal.Render("File: ") + a.styles.Input.Render(a.path.View())

	bodyHeight := max(3, a.height-chromeLines)
	var body string
	if a.modal != nil {
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Center, a.modalView())
	} else {
		left := a.styles.Panel.Width(toolsWidth).Height(bodyHeight - 2).Render(a.toolsView())
		right := a.styles.Panel.Width(max(10, a.width-toolsWidth-6)).Height(bodyHeight - 2).Render(a.previewView(bodyHeight - 2))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, picker, body, a.statusView())
}

func (a *App) toolsView() string {
	if a.form != nil {
		return a.form.view(a.styles)
	}
	if len(a.table.Sections) == 0 {
		return a.styles.Muted.Render("No file loaded.\nPress o to open one.")
	}

	var sb strings.Builder
	i := 0
	for _, sec := range a.table.Sections {
		sb.WriteString(a.styles.Section.Render(sec.Title))
		sb.WriteByte('\n')
		for _, tool := range sec.Tools {
			if i == a.cursor {
				sb.WriteString(a.styles.Selected.Render("> " + tool.Label))
			} else {
				sb.WriteString(a.styles.Normal.Render("  " + tool.Label))
			}
			sb.WriteByte('\n')
			i++
		}
		sb.WriteByte('\n')
	}
	if a.table.Notice != "" {
		sb.WriteString(a.styles.Warning.Width(toolsWidth).Render("⚠ " + a.table.Notice))
	}
	return sb.String()
}

func (a *App) previewView(height int) string {
	cols := max(10, a.width-toolsWidth-8)
	switch {
	case a.preview == nil:
		return a.styles.Muted.Render("Preview / Output will appear here")
	case a.preview.Image != nil:
		return renderImage(a.preview.Image, cols, height)
	case a.preview.Histogram != nil:
		return renderHistogram(a.preview.Histogram, cols, a.styles)
	default:
		return a.viewport.View()
	}
}

func (a *App) modalView() string {
	heading := a.styles.ModalTitle
	if a.modal.isErr {
		heading = heading.Foreground(a.styles.Theme().Error)
	}
	content := heading.Render(a.modal.title) + "\n" +
		a.styles.Normal.Render(strings.Join(a.modal.lines, "\n")) + "\n\n" +
		a.styles.Help.Render("[enter] OK")
	return a.styles.Modal.Render(content)
}

func (a *App) statusView() string {
	left := a.status
	if a.task != nil {
		left = a.spinner.View() + " " + left
	}
	bindings := a.keys.ShortHelp()
	switch {
	case a.form != nil:
		bindings = a.keys.PromptHelp()
	case a.browsing:
		bindings = []key.Binding{a.keys.Run, a.keys.Cancel}
	}
	right := a.help.ShortHelpView(bindings)

	pad := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return a.styles.StatusBar.Width(a.width).Render(left + strings.Repeat(" ", pad) + right)
}

// Status returns the status bar message.
func (a *App) Status() string {
	return a.status
}

// Run starts the program and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.shutdown()
	return err
}
