package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// summaryOverlay shows start and confirm prompts; Enter submits them.
type summaryOverlay struct {
	visible     bool
	confirm     bool
	stepKey     string
	title       string
	description string
	answers     []wizard.Answer

	width  int
	height int
}

func newSummaryOverlay() summaryOverlay {
	return summaryOverlay{}
}

// Show displays p, which must be a start or confirm prompt.
func (s *summaryOverlay) Show(p *wizard.Prompt) {
	*s = summaryOverlay{
		visible:     true,
		confirm:     p.Kind == schema.KindConfirm,
		stepKey:     p.StepKey,
		title:       p.Title,
		description: p.Description,
		answers:     p.Summary,
		width:       s.width,
		height:      s.height,
	}
}

// Hide closes the overlay.
func (s *summaryOverlay) Hide() {
	s.visible = false
}

// Callback submits the prompt.
func (s *summaryOverlay) Callback() wizard.Callback {
	return wizard.Callback{Action: wizard.ActionSubmit, StepKey: s.stepKey}
}

// View renders the overlay.
func (s *summaryOverlay) View() string {
	if !s.visible {
		return ""
	}

	contentW := s.width - 8
	if contentW < 50 {
		contentW = 50
	}

	var b strings.Builder
	b.WriteString(overlayTitle.Render(s.title))
	b.WriteString("\n\n")
	if s.description != "" {
		b.WriteString(renderMarkdown(s.description, contentW-6))
		b.WriteString("\n\n")
	}

	if s.confirm {
		labelW := 0
		for _, a := range s.answers {
			if w := runewidth.StringWidth(answerLabel(a)); w > labelW {
				labelW = w
			}
		}
		for _, a := range s.answers {
			label := runewidth.FillRight(answerLabel(a), labelW)
			b.WriteString(labelStyle.Render(label) + "  " + valueStyle.Render(a.Display))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(keyDescStyle.Render("Press enter to save these settings."))
	} else {
		b.WriteString(keyDescStyle.Render("Press enter to begin."))
	}

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}

func answerLabel(a wizard.Answer) string {
	if a.Title != "" {
		return a.Title
	}
	return a.Key
}

// resultOverlay shows how the conversation ended.
type resultOverlay struct {
	visible bool
	saved   bool
	reason  string
	record  wizard.Record
	elapsed time.Duration

	total, done, skipped int

	width  int
	height int
}

// Show displays the final view.
func (r *resultOverlay) Show(v *session.View, elapsed time.Duration, total, done, skipped int) {
	*r = resultOverlay{
		visible: true,
		saved:   v.Phase == wizard.PhaseCompiled.String(),
		reason:  v.Error,
		record:  v.Result,
		elapsed: elapsed,
		total:   total,
		done:    done,
		skipped: skipped,
		width:   r.width,
		height:  r.height,
	}
}

// View renders the overlay.
func (r *resultOverlay) View() string {
	if !r.visible {
		return ""
	}

	contentW := r.width - 8
	if contentW < 50 {
		contentW = 50
	}

	var b strings.Builder
	if r.saved {
		b.WriteString(savedBannerStyle.Render(fmt.Sprintf("✓ Saved %d settings", len(r.record))))
		b.WriteString("\n\n")
		keys := make([]string, 0, len(r.record))
		for k := range r.record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			e := r.record[k]
			label := k
			if e.Title != "" {
				label = e.Title
			}
			b.WriteString(labelStyle.Render(label) + "  " + valueStyle.Render(fmt.Sprint(e.Value)))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(abandonedBannerStyle.Render("✗ Nothing saved"))
		b.WriteString("\n\n")
		if r.reason != "" {
			b.WriteString(errorStyle.Render(r.reason))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	stats := fmt.Sprintf("Steps: %d total, %s, %d skipped",
		r.total, stepDone.Render(fmt.Sprintf("%s%d answered", GlyphDone, r.done)), r.skipped)
	b.WriteString(keyDescStyle.Render(stats))
	b.WriteString("\n")
	b.WriteString(keyDescStyle.Render("Duration: " + formatDuration(r.elapsed)))

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(r.width, r.height, lipgloss.Center, lipgloss.Center, box)
}

// formatDuration returns a human-friendly duration string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m >= 60 {
		return fmt.Sprintf("%dh %dm %ds", m/60, m%60, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
