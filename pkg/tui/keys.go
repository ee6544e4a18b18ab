package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds all TUI key bindings.
type keyMap struct {
	Submit    key.Binding
	SubmitAll key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	SubmitAll: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func hint(k, desc string) string {
	return keyStyle.Render(k) + keyDescStyle.Render(":"+desc)
}

// keyBarText renders the key hints for the active overlay.
func keyBarText(overlay overlayKind, multi, canGoBack bool) string {
	var parts []string
	switch overlay {
	case overlayChoice:
		parts = append(parts, hint("↑↓", "select"))
		if multi {
			parts = append(parts, hint("space", "toggle"))
		} else {
			parts = append(parts, hint("1-9", "quick"))
		}
		parts = append(parts, hint("enter", "choose"))
	case overlayInput:
		parts = append(parts, hint("tab", "next field"), hint("enter", "next/submit"), hint("ctrl+s", "submit"))
	case overlaySummary:
		parts = append(parts, hint("enter", "continue"))
	case overlayResult:
		return hint("enter", "close")
	}
	if canGoBack {
		parts = append(parts, hint("esc", "back"))
	}
	parts = append(parts, hint("ctrl+c", "quit"))
	return strings.Join(parts, "  ")
}
