package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/guildwiz/pkg/form"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// inputMode is the kind of form the overlay is showing.
type inputMode int

const (
	inputText inputMode = iota
	inputFile
	inputResourceIDs
)

// inputField is one text input; multiline controls use a textarea.
type inputField struct {
	control form.TextControl
	line    textinput.Model
	area    *textarea.Model
}

func newInputField(tc form.TextControl, width int) inputField {
	f := inputField{control: tc}
	if tc.Multiline {
		ta := textarea.New()
		ta.Placeholder = tc.Placeholder
		ta.ShowLineNumbers = false
		ta.SetWidth(width)
		ta.SetHeight(4)
		ta.SetValue(tc.Value)
		ta.Blur()
		f.area = &ta
		return f
	}
	ti := textinput.New()
	ti.Placeholder = tc.Placeholder
	ti.CharLimit = 4096
	ti.Width = width
	ti.SetValue(tc.Value)
	ti.Blur()
	f.line = ti
	return f
}

func (f *inputField) value() string {
	if f.area != nil {
		return f.area.Value()
	}
	return f.line.Value()
}

func (f *inputField) focus() tea.Cmd {
	if f.area != nil {
		return f.area.Focus()
	}
	return f.line.Focus()
}

func (f *inputField) blur() {
	if f.area != nil {
		f.area.Blur()
		return
	}
	f.line.Blur()
}

func (f *inputField) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.area != nil {
		var ta textarea.Model
		ta, cmd = f.area.Update(msg)
		f.area = &ta
		return cmd
	}
	f.line, cmd = f.line.Update(msg)
	return cmd
}

func (f *inputField) view() string {
	if f.area != nil {
		return f.area.View()
	}
	return f.line.View()
}

// inputOverlay renders a modal form for freeText, fileUpload and
// resource prompts without configured resources.
type inputOverlay struct {
	visible     bool
	mode        inputMode
	stepKey     string
	title       string
	path        string
	description string
	multi       bool
	err         string

	fields []inputField
	focus  int

	width  int
	height int
}

func newInputOverlay() inputOverlay {
	return inputOverlay{}
}

// Show builds the form for p and focuses its first field.
func (in *inputOverlay) Show(p *wizard.Prompt) tea.Cmd {
	fieldW := in.width - 16
	if fieldW < 30 {
		fieldW = 30
	}

	var (
		mode     inputMode
		controls []form.TextControl
	)
	multi := false
	switch {
	case p.Text != nil:
		mode = inputText
		controls = p.Text
	case p.File != nil:
		mode = inputFile
		controls = []form.TextControl{{Label: "File URL", Placeholder: "https://", Value: p.File.URL}}
	case p.Resource != nil:
		mode = inputResourceIDs
		multi = p.Resource.Multi
		label := string(p.Resource.Type) + " id"
		if multi {
			label += "s (comma or space separated)"
		}
		controls = []form.TextControl{{Label: label, Value: strings.Join(p.Resource.Selected, " ")}}
	}

	*in = inputOverlay{
		visible:     true,
		mode:        mode,
		stepKey:     p.StepKey,
		title:       p.Title,
		path:        p.Path,
		description: p.Description,
		multi:       multi,
		width:       in.width,
		height:      in.height,
	}
	for _, tc := range controls {
		in.fields = append(in.fields, newInputField(tc, fieldW))
	}
	if len(in.fields) == 0 {
		return nil
	}
	return in.fields[0].focus()
}

// Hide closes the overlay.
func (in *inputOverlay) Hide() {
	in.visible = false
}

// Update handles a message. It returns true once the form was submitted
// and is valid.
func (in *inputOverlay) Update(msg tea.Msg) (bool, tea.Cmd) {
	if !in.visible || len(in.fields) == 0 {
		return false, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab":
			return false, in.move(1)
		case "shift+tab":
			return false, in.move(-1)
		case "ctrl+s":
			return in.submit()
		case "enter":
			if in.fields[in.focus].area == nil {
				if in.focus < len(in.fields)-1 {
					return false, in.move(1)
				}
				return in.submit()
			}
		}
	}
	return false, in.fields[in.focus].update(msg)
}

func (in *inputOverlay) move(delta int) tea.Cmd {
	next := in.focus + delta
	if next < 0 || next >= len(in.fields) {
		return nil
	}
	in.fields[in.focus].blur()
	in.focus = next
	return in.fields[next].focus()
}

func (in *inputOverlay) submit() (bool, tea.Cmd) {
	in.err = ""
	for i := range in.fields {
		f := &in.fields[i]
		if f.control.Optional || strings.TrimSpace(f.value()) != "" {
			continue
		}
		in.err = f.control.Label + " is required"
		return false, in.move(i - in.focus)
	}
	if in.mode == inputResourceIDs && !in.multi && len(splitIDs(in.fields[0].value())) != 1 {
		in.err = "enter exactly one id"
		return false, nil
	}
	return true, nil
}

// Callback builds the submit callback from the current values.
func (in *inputOverlay) Callback() wizard.Callback {
	cb := wizard.Callback{Action: wizard.ActionSubmit, StepKey: in.stepKey}
	switch in.mode {
	case inputText:
		controls := make([]form.TextControl, len(in.fields))
		for i, f := range in.fields {
			controls[i] = f.control
			controls[i].Value = strings.TrimSpace(f.value())
		}
		cb.Payload = form.TextPayload(controls)
	case inputFile:
		cb.Payload = strings.TrimSpace(in.fields[0].value())
	case inputResourceIDs:
		ids := splitIDs(in.fields[0].value())
		if in.multi {
			cb.Payload = ids
		} else {
			cb.Payload = ids[0]
		}
	}
	return cb
}

func splitIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// View renders the form.
func (in *inputOverlay) View() string {
	if !in.visible {
		return ""
	}

	contentW := in.width - 4
	if contentW < 50 {
		contentW = 50
	}

	var b strings.Builder
	b.WriteString(overlayTitle.Render(in.title))
	if in.path != "" {
		b.WriteString("  " + pathStyle.Render(in.path))
	}
	b.WriteString("\n\n")
	if in.description != "" {
		b.WriteString(renderMarkdown(in.description, contentW-6))
		b.WriteString("\n\n")
	}

	for i := range in.fields {
		f := &in.fields[i]
		label := f.control.Label
		if f.control.Optional {
			label += " (optional)"
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(f.view())
		b.WriteString("\n\n")
	}
	if in.err != "" {
		b.WriteString(errorStyle.Render(in.err))
		b.WriteString("\n")
	}

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(in.width, in.height, lipgloss.Center, lipgloss.Center, box)
}
