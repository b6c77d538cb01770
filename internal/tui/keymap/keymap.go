// Package keymap defines the key bindings of the shell.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all key bindings.
type KeyMap struct {
	// Quit exits the shell.
	Quit key.Binding
	// Open starts entering a file path.
	Open key.Binding
	// Reload loads the current file again.
	Reload key.Binding
	// Up and Down move through the tool list.
	Up   key.Binding
	Down key.Binding
	// Run invokes the selected tool or confirms a prompt.
	Run key.Binding
	// Next moves to the next prompt field.
	Next key.Binding
	// Cancel leaves a prompt, or stops the running task.
	Cancel key.Binding
	// ScrollUp and ScrollDown page the text preview.
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "/"),
			key.WithHelp("o", "open file"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Run: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Up, k.Down, k.Run, k.Quit}
}

// FullHelp returns every binding, grouped.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Run},
		{k.Open, k.Reload, k.Cancel},
		{k.ScrollUp, k.ScrollDown, k.Quit},
	}
}

// PromptHelp returns the bindings active while a form is open.
func (k *KeyMap) PromptHelp() []key.Binding {
	return []key.Binding{k.Next, k.Run, k.Cancel}
}
