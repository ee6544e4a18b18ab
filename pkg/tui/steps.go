package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// stepStatus tracks the display state of each step.
type stepStatus int

const (
	statusPending stepStatus = iota
	statusCurrent
	statusDone
	statusSkipped
)

// stepInfo holds the display state for a single top-level step.
type stepInfo struct {
	Key     string
	Title   string
	Kind    schema.StepKind
	Status  stepStatus
	visited bool
	entries int // composition entries added so far
}

// stepsPanel renders the progress list of a feature's top-level steps.
type stepsPanel struct {
	steps  []stepInfo
	width  int
	height int
	offset int
}

func newStepsPanel() stepsPanel {
	return stepsPanel{}
}

// SetFeature lists the top-level steps of f with their localized titles.
func (p *stepsPanel) SetFeature(f *schema.Feature, locale string) {
	p.steps = make([]stepInfo, len(f.Steps))
	for i := range f.Steps {
		s := &f.Steps[i]
		p.steps[i] = stepInfo{
			Key:   s.Key,
			Title: s.Display(locale, f.Locale()).Title,
			Kind:  s.Kind,
		}
	}
	p.offset = 0
}

// Track marks the step a prompt belongs to as current. Earlier steps are
// done when they were ever shown and skipped otherwise.
func (p *stepsPanel) Track(pr *wizard.Prompt) {
	key := pr.StepKey
	if pr.Path != "" {
		key = parentOf(pr.Path)
	}
	cur := p.indexOf(key)
	if cur < 0 {
		return
	}
	for i := range p.steps {
		s := &p.steps[i]
		switch {
		case i == cur:
			s.Status = statusCurrent
			s.visited = true
		case i < cur && s.visited:
			s.Status = statusDone
		case i < cur:
			s.Status = statusSkipped
		case s.visited:
			s.Status = statusDone
		default:
			s.Status = statusPending
		}
	}
	if pr.Continue != nil {
		p.steps[cur].entries = pr.Continue.Count
	}
	p.ensureVisible(cur)
}

// Finish marks every visited step done once the record is saved.
func (p *stepsPanel) Finish() {
	for i := range p.steps {
		if p.steps[i].visited {
			p.steps[i].Status = statusDone
		} else {
			p.steps[i].Status = statusSkipped
		}
	}
}

// Current returns the index of the current step, or -1.
func (p *stepsPanel) Current() int {
	for i, s := range p.steps {
		if s.Status == statusCurrent {
			return i
		}
	}
	return -1
}

func (p *stepsPanel) indexOf(key string) int {
	for i, s := range p.steps {
		if s.Key == key {
			return i
		}
	}
	return -1
}

// parentOf returns the composition key of a path such as "targets[1]".
func parentOf(path string) string {
	if i := strings.IndexByte(path, '['); i >= 0 {
		return path[:i]
	}
	return path
}

func (p *stepsPanel) ensureVisible(i int) {
	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	if i < p.offset {
		p.offset = i
	}
	if i >= p.offset+visible {
		p.offset = i - visible + 1
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	if len(p.steps) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  No steps loaded")
	}

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}
	end := p.offset + visible
	if end > len(p.steps) {
		end = len(p.steps)
	}

	var lines []string
	for i := p.offset; i < end; i++ {
		step := p.steps[i]

		var glyph string
		var style lipgloss.Style
		switch step.Status {
		case statusPending:
			glyph, style = GlyphPending, stepNormal
		case statusCurrent:
			glyph, style = GlyphCurrent, stepCurrent
		case statusDone:
			glyph, style = GlyphDone, stepDone
		case statusSkipped:
			glyph, style = GlyphSkipped, stepSkipped
		}

		title := step.Title
		if step.Kind == schema.KindComposition && step.entries > 0 {
			title = fmt.Sprintf("%s %s%d", title, GlyphLoop, step.entries)
		}
		maxTitle := p.width - 8
		if maxTitle < 4 {
			maxTitle = 4
		}
		title = runewidth.Truncate(title, maxTitle, "…")

		lines = append(lines, style.Render(fmt.Sprintf(" %s %d. %s", glyph, i+1, title)))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		panelTitle.Render("Steps") + "\n" + strings.Join(lines, "\n"),
	)
}

// Stats returns counts of steps by status.
func (p *stepsPanel) Stats() (total, done, skipped int) {
	total = len(p.steps)
	for _, s := range p.steps {
		switch s.Status {
		case statusDone:
			done++
		case statusSkipped:
			skipped++
		}
	}
	return
}
