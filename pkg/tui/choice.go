package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/guildwiz/pkg/config"
	"github.com/ormasoftchile/guildwiz/pkg/form"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// choiceMode is the kind of list the overlay is showing.
type choiceMode int

const (
	modeOptions choiceMode = iota
	modeResource
	modeDesign
	modeContinue
)

const (
	continueMore = "more"
	continueStop = "stop"
)

// choiceOverlay renders a selection list for choice, resource, design and
// continue prompts.
type choiceOverlay struct {
	visible     bool
	mode        choiceMode
	stepKey     string
	title       string
	path        string
	description string
	status      string
	err         string

	control  *form.ChoiceControl
	previews map[string]string

	cursor    int
	scrollOff int

	width  int
	height int
}

func newChoiceOverlay() choiceOverlay {
	return choiceOverlay{}
}

// Show configures the overlay for p. It returns false when p is not a list
// prompt, or is a resource prompt without configured resources.
func (c *choiceOverlay) Show(p *wizard.Prompt, resources config.Resources) bool {
	var (
		mode   choiceMode
		items  []form.ChoiceItem
		multi  bool
		status string
	)
	previews := map[string]string(nil)
	switch {
	case p.Continue != nil:
		mode = modeContinue
		items = []form.ChoiceItem{
			{Value: continueMore, Label: "Add another"},
			{Value: continueStop, Label: "Done", Chosen: true},
		}
		status = fmt.Sprintf("%d of at most %d added", p.Continue.Count, p.Continue.Cap)
	case p.Choice != nil:
		mode = modeOptions
		items = p.Choice.Items
		multi = p.Choice.Multi
	case p.Design != nil:
		mode = modeDesign
		for _, d := range p.Design.Designs {
			d.Chosen = d.Value == p.Design.Selected
			items = append(items, d)
		}
		previews = p.Design.Previews
	case p.Resource != nil:
		configured := resources.Of(p.Resource.Type)
		if len(configured) == 0 {
			return false
		}
		mode = modeResource
		multi = p.Resource.Multi
		items = resourceItems(configured, p.Resource.Selected)
	default:
		return false
	}

	ctl := &form.ChoiceControl{Multi: multi}
	for _, it := range items {
		it.Chosen = false
		ctl.Items = append(ctl.Items, it)
	}
	for _, it := range items {
		if it.Chosen {
			ctl.Toggle(it.Value)
		}
	}
	if p.Resource != nil {
		// keep the stored click order
		ctl.Clear()
		for _, id := range p.Resource.Selected {
			ctl.Toggle(id)
		}
	}

	*c = choiceOverlay{
		visible:     true,
		mode:        mode,
		stepKey:     p.StepKey,
		title:       p.Title,
		path:        p.Path,
		description: p.Description,
		status:      status,
		control:     ctl,
		previews:    previews,
		width:       c.width,
		height:      c.height,
	}
	if chosen := ctl.Chosen(); len(chosen) > 0 && !multi {
		c.cursor = c.indexOf(chosen[0])
	}
	return true
}

// resourceItems lists configured resources followed by stored ids that are
// no longer configured.
func resourceItems(configured []config.Resource, selected []string) []form.ChoiceItem {
	known := make(map[string]bool, len(configured))
	var items []form.ChoiceItem
	for _, r := range configured {
		known[r.ID] = true
		label := r.Name
		if label == "" {
			label = r.ID
		}
		items = append(items, form.ChoiceItem{Value: r.ID, Label: label, Description: r.ID})
	}
	for _, id := range selected {
		if !known[id] {
			items = append(items, form.ChoiceItem{Value: id, Label: id})
		}
	}
	return items
}

// Hide closes the overlay.
func (c *choiceOverlay) Hide() {
	c.visible = false
}

func (c *choiceOverlay) indexOf(value string) int {
	for i, it := range c.control.Items {
		if it.Value == value {
			return i
		}
	}
	return 0
}

// Update handles key events within the overlay. It returns true once the
// operator confirmed a selection.
func (c *choiceOverlay) Update(msg tea.Msg) (submitted bool) {
	if !c.visible {
		return false
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}

	maxIdx := len(c.control.Items) - 1
	c.err = ""

	switch keyMsg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < maxIdx {
			c.cursor++
		}
	case "pgup":
		c.scrollOff -= 5
		if c.scrollOff < 0 {
			c.scrollOff = 0
		}
	case "pgdown":
		c.scrollOff += 5
	case " ":
		if c.control.Multi {
			c.control.Toggle(c.control.Items[c.cursor].Value)
		}
	case "enter":
		return c.confirm()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(keyMsg.String()[0] - '1')
		if idx > maxIdx {
			return false
		}
		c.cursor = idx
		if c.control.Multi {
			c.control.Toggle(c.control.Items[idx].Value)
			return false
		}
		return c.confirm()
	}
	return false
}

func (c *choiceOverlay) confirm() bool {
	if !c.control.Multi {
		value := c.control.Items[c.cursor].Value
		if !c.control.Items[c.cursor].Chosen {
			c.control.Toggle(value)
		}
		return true
	}
	if len(c.control.Chosen()) == 0 && c.mode == modeOptions {
		c.err = "choose at least one option"
		return false
	}
	return true
}

// Callback builds the callback for the confirmed selection.
func (c *choiceOverlay) Callback() wizard.Callback {
	chosen := c.control.Chosen()
	if c.mode == modeContinue {
		action := wizard.ActionStop
		if len(chosen) > 0 && chosen[0] == continueMore {
			action = wizard.ActionMore
		}
		return wizard.Callback{Action: action, StepKey: c.stepKey}
	}
	cb := wizard.Callback{Action: wizard.ActionSubmit, StepKey: c.stepKey}
	if c.control.Multi {
		cb.Payload = chosen
	} else if len(chosen) > 0 {
		cb.Payload = chosen[0]
	}
	return cb
}

// Multi reports whether several items can be chosen.
func (c *choiceOverlay) Multi() bool {
	return c.control != nil && c.control.Multi
}

// View renders the choice overlay.
func (c *choiceOverlay) View() string {
	if !c.visible {
		return ""
	}

	contentW := c.width - 4
	if contentW < 50 {
		contentW = 50
	}

	var b strings.Builder
	b.WriteString(overlayTitle.Render(c.title))
	if c.path != "" {
		b.WriteString("  " + pathStyle.Render(c.path))
	}
	b.WriteString("\n\n")

	if c.description != "" {
		b.WriteString(renderMarkdown(c.description, contentW-6))
		b.WriteString("\n\n")
	}
	if c.status != "" {
		b.WriteString(valueStyle.Render(c.status))
		b.WriteString("\n\n")
	}

	for i, it := range c.control.Items {
		b.WriteString(c.renderItem(i, it))
		b.WriteString("\n")
	}

	if c.mode == modeDesign {
		value := c.control.Items[c.cursor].Value
		if preview, ok := c.previews[value]; ok {
			b.WriteString("\n")
			b.WriteString(previewStyle.Render(preview))
			b.WriteString("\n")
		}
	}
	if c.err != "" {
		b.WriteString("\n" + errorStyle.Render(c.err) + "\n")
	}

	content := b.String()

	maxH := c.height - 6
	lines := strings.Split(content, "\n")
	if maxH > 0 && len(lines) > maxH {
		if c.scrollOff > len(lines)-maxH {
			c.scrollOff = len(lines) - maxH
		}
		lines = lines[c.scrollOff:]
		if len(lines) > maxH {
			lines = lines[:maxH]
		}
		content = strings.Join(lines, "\n")
	}

	box := overlayBorder.Width(contentW).Render(content)
	return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, box)
}

func (c *choiceOverlay) renderItem(idx int, it form.ChoiceItem) string {
	prefix := "  "
	if idx == c.cursor {
		prefix = "> "
	}

	mark := ""
	if c.control.Multi {
		if it.Chosen {
			mark = checkOn.Render("[x] ")
		} else {
			mark = checkOff.Render("[ ] ")
		}
	}

	line := fmt.Sprintf("%s%s %s%s", prefix, keyStyle.Render(fmt.Sprintf("%d.", idx+1)), mark, it.Label)
	if it.Description != "" {
		line += " " + keyDescStyle.Render("("+it.Description+")")
	}
	if idx == c.cursor {
		return stepCurrent.Render(line)
	}
	return line
}
