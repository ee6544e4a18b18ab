package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders a step description wrapped at width columns. The
// raw text is returned when glamour cannot render it.
func renderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	if width < 20 {
		width = 20
	}
	renderersMu.Lock()
	r, ok := renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			renderersMu.Unlock()
			return md
		}
		renderers[width] = r
	}
	renderersMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// glamour pads with blank lines
	return strings.Trim(out, "\n")
}
