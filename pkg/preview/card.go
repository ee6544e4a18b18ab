// Package preview renders design candidates as terminal cards.
package preview

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

var _ wizard.Previewer = (*Card)(nil)

var (
	colorAccent = lipgloss.Color("39")
	colorDim    = lipgloss.Color("240")
	colorBlur   = lipgloss.Color("183")
)

// Styles maps well-known design values to card frames. Designs not listed
// use the rounded default frame.
var Styles = map[string]lipgloss.Style{
	"plain": lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorDim).
		Padding(0, 1),
	"customBlur": lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorBlur).
		Padding(1, 2),
	"serverBlur": lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(colorBlur).
		Padding(1, 2),
}

var (
	defaultFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true)
	captionStyle = lipgloss.NewStyle().Faint(true)
)

// Card renders a message card for a design from the answers collected so
// far. User text is stripped of markup before it is laid out.
type Card struct {
	Width  int
	policy *bluemonday.Policy
}

// NewCard returns a Card that wraps at width columns (40 when unset).
func NewCard(width int) *Card {
	if width <= 0 {
		width = 40
	}
	return &Card{Width: width, policy: bluemonday.StrictPolicy()}
}

func (c *Card) Preview(ctx context.Context, design schema.Option, answers []wizard.Answer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	heading, body := c.message(answers)
	if heading == "" && body == "" {
		return "", fmt.Errorf("design %q: no message to preview", design.Value)
	}

	frame, ok := Styles[design.Value]
	if !ok {
		frame = defaultFrame
	}
	var b strings.Builder
	if heading != "" {
		b.WriteString(headingStyle.Render(heading))
	}
	if body != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(body)
	}
	b.WriteString("\n\n")
	b.WriteString(captionStyle.Render(design.DisplayLabel()))
	return frame.Width(c.Width).Render(b.String()), nil
}

// message picks the latest answer carrying a heading or body entry.
func (c *Card) message(answers []wizard.Answer) (heading, body string) {
	for i := len(answers) - 1; i >= 0; i-- {
		var h, b any
		switch raw := answers[i].Raw.(type) {
		case map[string]any:
			h, b = raw["heading"], raw["body"]
		case map[string]string:
			h, b = raw["heading"], raw["body"]
		default:
			continue
		}
		heading, body = c.clean(h), c.clean(b)
		if heading != "" || body != "" {
			return heading, body
		}
	}
	return "", ""
}

func (c *Card) clean(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok && s == "" {
		return ""
	}
	s := c.policy.Sanitize(fmt.Sprint(v))
	return strings.TrimSpace(html.UnescapeString(s))
}
