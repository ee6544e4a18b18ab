// Package diagram draws the step flow of a feature wizard.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram of f. Composition loops are annotated with
// their cap from caps (the builtin table plus feature meta when nil).
func Generate(f *schema.Feature, caps schema.CapTable, format Format) (string, error) {
	if f == nil {
		return "", fmt.Errorf("nil feature")
	}
	if caps == nil {
		caps = schema.CapsFor(f, nil)
	}
	steps := flatten(f.Steps, f.Locale(), caps, "")
	switch format {
	case FormatMermaid:
		return generateMermaid(steps), nil
	case FormatASCII:
		name := f.Meta.Name
		if name == "" {
			name = f.Feature
		}
		return generateASCII(name, steps), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

type diagramStep struct {
	id        string
	title     string
	kind      schema.StepKind
	condition string
	cap       int
	children  []diagramStep
}

func flatten(steps []schema.Step, locale string, caps schema.CapTable, prefix string) []diagramStep {
	out := make([]diagramStep, 0, len(steps))
	for i := range steps {
		s := &steps[i]
		ds := diagramStep{
			id:    prefix + s.Key,
			title: s.Display(locale, locale).Title,
			kind:  s.Kind,
		}
		if s.Condition != nil {
			ds.condition = describeCondition(s.Condition)
		}
		if s.Kind == schema.KindComposition {
			ds.cap, _ = caps.Cap(s.ParentKey)
			ds.children = flatten(s.Steps, locale, caps, s.Key+"_")
		}
		out = append(out, ds)
	}
	return out
}

func describeCondition(c *schema.Condition) string {
	op := "in"
	if c.Match == schema.MatchNotIn {
		op = "not in"
	}
	return fmt.Sprintf("%s %s %s", c.Key, op, strings.Join(c.Values, ", "))
}

// --- Mermaid flowchart ---

func generateMermaid(steps []diagramStep) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	if len(steps) == 0 {
		return b.String()
	}
	b.WriteString("    START([Start])\n")
	writeMermaidChain(&b, "START", steps, "END")
	b.WriteString("    END([Saved])\n")
	return b.String()
}

// writeMermaidChain links from through steps to to. A conditioned step gets
// a bypass edge from its predecessor to its successor.
func writeMermaidChain(b *strings.Builder, from string, steps []diagramStep, to string) {
	prev := from
	var bypass []string
	for i, s := range steps {
		id := safeID(s.id)
		if s.kind == schema.KindComposition {
			fmt.Fprintf(b, "    subgraph %s [\"%s\"]\n", id, escMermaid(s.title))
			for _, c := range s.children {
				b.WriteString("        " + nodeDefinition(c) + "\n")
			}
			b.WriteString("    end\n")
		} else {
			b.WriteString("    " + nodeDefinition(s) + "\n")
		}

		entry := id
		if s.kind == schema.KindComposition && len(s.children) > 0 {
			entry = safeID(s.children[0].id)
		}
		edge := " --> "
		if s.condition != "" {
			edge = fmt.Sprintf(" -->|%q| ", truncate(s.condition, 48))
		}
		for _, p := range append(bypass, prev) {
			b.WriteString("    " + p + edge + entry + "\n")
		}
		bypass = nil

		exit := id
		if s.kind == schema.KindComposition && len(s.children) > 0 {
			exit = writeMermaidLoop(b, s)
		}
		if s.condition != "" {
			bypass = append(bypass, prev)
		}
		prev = exit
		if i == len(steps)-1 {
			for _, p := range append(bypass, prev) {
				b.WriteString("    " + p + " --> " + to + "\n")
			}
		}
	}
}

// writeMermaidLoop links the nested steps of a composition and its "more"
// edge, returning the node control leaves from.
func writeMermaidLoop(b *strings.Builder, s diagramStep) string {
	first := safeID(s.children[0].id)
	for i := 1; i < len(s.children); i++ {
		c := s.children[i]
		edge := " --> "
		if c.condition != "" {
			edge = fmt.Sprintf(" -->|%q| ", truncate(c.condition, 48))
		}
		b.WriteString("    " + safeID(s.children[i-1].id) + edge + safeID(c.id) + "\n")
	}
	last := safeID(s.children[len(s.children)-1].id)
	label := "more"
	if s.cap > 0 {
		label = fmt.Sprintf("more, up to %d", s.cap)
	}
	fmt.Fprintf(b, "    %s -.->|%q| %s\n", last, label, first)
	return last
}

func nodeDefinition(s diagramStep) string {
	id := safeID(s.id)
	title := escMermaid(s.title)
	icon := stepIcon(s.kind)
	switch s.kind {
	case schema.KindStart, schema.KindConfirm:
		return fmt.Sprintf(`%s(["%s %s"])`, id, icon, title)
	case schema.KindSingleChoice, schema.KindDesignChoice:
		return fmt.Sprintf(`%s{{"%s %s"}}`, id, icon, title)
	case schema.KindResourceSelect:
		return fmt.Sprintf(`%s[/"%s %s"/]`, id, icon, title)
	case schema.KindFileUpload:
		return fmt.Sprintf(`%s[("%s %s")]`, id, icon, title)
	default:
		return fmt.Sprintf(`%s["%s %s"]`, id, icon, title)
	}
}

// --- ASCII ---

func generateASCII(name string, steps []diagramStep) string {
	var b strings.Builder
	if len(steps) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	// Compute uniform box width so every box and connector aligns.
	const indent = 8
	boxWidth := computeUniformBoxWidth(steps, name)
	connCol := indent + 1 + boxWidth/2 // +1 accounts for the left border
	pad := strings.Repeat(" ", indent)
	connPad := strings.Repeat(" ", connCol)

	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + centerPad(name, boxWidth) + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")
	b.WriteString(connPad + "│\n")

	for i, s := range steps {
		writeASCIIStep(&b, s, indent, boxWidth)
		if i < len(steps)-1 {
			b.WriteString(connPad + "│\n")
		}
	}
	return b.String()
}

// boxLines returns the interior lines of a step box.
func boxLines(s diagramStep) []string {
	lines := []string{fmt.Sprintf(" %s %s ", stepIcon(s.kind), s.title)}
	if s.condition != "" {
		lines = append(lines, " ? "+truncate(s.condition, 40)+" ")
	}
	for _, c := range s.children {
		lines = append(lines, fmt.Sprintf("   %s %s ", stepIcon(c.kind), c.title))
		if c.condition != "" {
			lines = append(lines, "     ? "+truncate(c.condition, 36)+" ")
		}
	}
	if s.kind == schema.KindComposition {
		lines = append(lines, fmt.Sprintf(" ↻ up to %d ", s.cap))
	}
	return lines
}

// computeUniformBoxWidth returns the widest interior width needed across
// all steps and the header name.
func computeUniformBoxWidth(steps []diagramStep, name string) int {
	w := 22
	if nw := runewidth.StringWidth(name) + 4; nw > w {
		w = nw
	}
	for _, s := range steps {
		for _, l := range boxLines(s) {
			if lw := runewidth.StringWidth(l); lw > w {
				w = lw
			}
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

func writeASCIIStep(b *strings.Builder, s diagramStep, indent, boxWidth int) {
	pad := strings.Repeat(" ", indent)
	mid := boxWidth / 2
	top, side := "┌", "│"
	if s.condition != "" {
		top = "┌╌"
	}
	b.WriteString(pad + top + strings.Repeat("─", boxWidth-runewidth.StringWidth(top)+1) + "┐\n")
	for _, l := range boxLines(s) {
		b.WriteString(pad + side + l + strings.Repeat(" ", boxWidth-runewidth.StringWidth(l)) + side + "\n")
	}
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

func stepIcon(kind schema.StepKind) string {
	switch kind {
	case schema.KindStart:
		return "▶"
	case schema.KindFreeText:
		return "✎"
	case schema.KindSingleChoice:
		return "☰"
	case schema.KindResourceSelect:
		return "#"
	case schema.KindDesignChoice:
		return "◈"
	case schema.KindComposition:
		return "↻"
	case schema.KindFileUpload:
		return "⇪"
	case schema.KindConfirm:
		return "✓"
	default:
		return "○"
	}
}

// --- string helpers ---

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
