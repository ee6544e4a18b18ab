// Package tui implements a full-screen terminal interface for wizard
// conversations. It talks to the engine over the same JSON-RPC protocol as
// `guildwiz rpc`, through in-memory pipes.
package tui

import "github.com/charmbracelet/lipgloss"

// Step status glyphs convey meaning without relying on color alone.
const (
	GlyphPending = "○"
	GlyphCurrent = "▸"
	GlyphDone    = "✓"
	GlyphLoop    = "⟳"
	GlyphSkipped = "–"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorAmber = lipgloss.Color("214")
	colorBlue  = lipgloss.Color("39")
	colorCyan  = lipgloss.Color("51")
	colorDim   = lipgloss.Color("240")
	colorWhite = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var guildBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorAmber).
	Padding(0, 1)

// --- Step list ---

var (
	stepNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	stepCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAmber)

	stepDone = lipgloss.NewStyle().
			Foreground(colorGreen)

	stepSkipped = lipgloss.NewStyle().
			Foreground(colorDim).
			Strikethrough(true)

	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)
)

// --- Overlays ---

var (
	overlayBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)

	overlayTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	checkOn = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	checkOff = lipgloss.NewStyle().
			Foreground(colorDim)

	previewStyle = lipgloss.NewStyle().
			MarginLeft(4)
)

// --- Key bar ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// --- Result banners ---

var (
	savedBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(colorGreen).
				Foreground(colorGreen).
				Bold(true).
				Padding(0, 2).
				Align(lipgloss.Center)

	abandonedBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(colorRed).
				Foreground(colorRed).
				Bold(true).
				Padding(0, 2).
				Align(lipgloss.Center)
)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

var spinnerStyle = lipgloss.NewStyle().
	Foreground(colorAmber)
