package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maauso/mediamanip/internal/session"
	"github.com/maauso/mediamanip/internal/tui/styles"
)

// form prompts for the parameters of one tool, prefilled with its defaults.
type form struct {
	tool   session.Tool
	inputs []textinput.Model
	focus  int
}

func newForm(tool session.Tool, width int) *form {
	f := &form{tool: tool}
	for _, p := range tool.Params {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = string(p.Kind)
		ti.CharLimit = 1024
		ti.Width = max(20, width)
		ti.SetValue(p.Default)
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// last reports whether the focused field is the final one.
func (f *form) last() bool {
	return f.focus == len(f.inputs)-1
}

func (f *form) next() {
	f.move(1)
}

func (f *form) prev() {
	f.move(-1)
}

func (f *form) move(delta int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// values returns the entered arguments keyed by parameter name.
func (f *form) values() map[string]string {
	args := make(map[string]string, len(f.inputs))
	for i, p := range f.tool.Params {
		args[p.Name] = f.inputs[i].Value()
	}
	return args
}

func (f *form) view(st *styles.Styles) string {
	var sb strings.Builder
	sb.WriteString(st.Section.Render(f.tool.Label))
	sb.WriteString("\n\n")
	for i, p := range f.tool.Params {
		label := st.Muted
		if i == f.focus {
			label = st.Normal
		}
		sb.WriteString(label.Render(p.Label + ":"))
		sb.WriteByte('\n')
		sb.WriteString(st.Input.Render(f.inputs[i].View()))
		sb.WriteByte('\n')
	}
	return sb.String()
}
