package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ormasoftchile/guildwiz/pkg/config"
	"github.com/ormasoftchile/guildwiz/pkg/form"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// collect reads the answer to p and builds its callback.
func (c *Console) collect(p *wizard.Prompt, w *wizard.Wizard) (wizard.Callback, error) {
	submit := func(payload any) (wizard.Callback, error) {
		return wizard.Callback{Action: wizard.ActionSubmit, StepKey: p.StepKey, Payload: payload}, nil
	}

	switch {
	case p.Continue != nil:
		fmt.Fprintf(c.out, "  %d of at most %d added\n", p.Continue.Count, p.Continue.Cap)
		for {
			line, err := c.readLine("add another? [y/N] ", w, p.CanGoBack)
			if err != nil {
				return wizard.Callback{}, err
			}
			switch strings.ToLower(line) {
			case "y", "yes":
				return wizard.Callback{Action: wizard.ActionMore, StepKey: p.StepKey}, nil
			case "", "n", "no":
				return wizard.Callback{Action: wizard.ActionStop, StepKey: p.StepKey}, nil
			}
		}

	case p.Kind == schema.KindStart:
		if _, err := c.readLine("press enter to begin ", w, false); err != nil {
			return wizard.Callback{}, err
		}
		return submit(nil)

	case p.Kind == schema.KindConfirm:
		for _, a := range p.Summary {
			label := a.Title
			if label == "" {
				label = a.Key
			}
			fmt.Fprintf(c.out, "  %-16s %s\n", label, a.Display)
		}
		if _, err := c.readLine("press enter to save ", w, p.CanGoBack); err != nil {
			return wizard.Callback{}, err
		}
		return submit(nil)

	case p.Text != nil:
		controls := append([]form.TextControl(nil), p.Text...)
		for i := range controls {
			v, err := c.readText(controls[i], w, p.CanGoBack)
			if err != nil {
				return wizard.Callback{}, err
			}
			controls[i].Value = v
		}
		return submit(form.TextPayload(controls))

	case p.Choice != nil:
		opts := make([]option, len(p.Choice.Items))
		for i, it := range p.Choice.Items {
			opts[i] = option{value: it.Value, label: it.Label, chosen: it.Chosen}
		}
		values, err := c.pick(opts, p.Choice.Multi, w, p.CanGoBack)
		if err != nil {
			return wizard.Callback{}, err
		}
		if p.Choice.Multi {
			return submit(values)
		}
		return submit(values[0])

	case p.Resource != nil:
		values, err := c.pickResource(p.Resource, w, p.CanGoBack)
		if err != nil {
			return wizard.Callback{}, err
		}
		if p.Resource.Multi {
			return submit(values)
		}
		return submit(values[0])

	case p.Design != nil:
		opts := make([]option, len(p.Design.Designs))
		for i, d := range p.Design.Designs {
			opts[i] = option{value: d.Value, label: d.Label, chosen: d.Value == p.Design.Selected}
			if preview, ok := p.Design.Previews[d.Value]; ok {
				opts[i].detail = preview
			}
		}
		values, err := c.pick(opts, false, w, p.CanGoBack)
		if err != nil {
			return wizard.Callback{}, err
		}
		return submit(values[0])

	case p.File != nil:
		for {
			prompt := "url> "
			if p.File.URL != "" {
				prompt = fmt.Sprintf("url [%s]> ", p.File.URL)
			}
			line, err := c.readLine(prompt, w, p.CanGoBack)
			if err != nil {
				return wizard.Callback{}, err
			}
			if line == "" {
				line = p.File.URL
			}
			if line != "" {
				return submit(line)
			}
		}
	}
	return wizard.Callback{}, fmt.Errorf("console: cannot answer %s step %q", p.Kind, p.StepKey)
}

// readText reads one text input. Enter keeps the pre-filled value; required
// inputs are asked again until they are non-empty.
func (c *Console) readText(tc form.TextControl, w *wizard.Wizard, canGoBack bool) (string, error) {
	label := tc.Label
	if tc.Optional {
		label += " (optional)"
	}
	switch {
	case tc.Value != "":
		label = fmt.Sprintf("%s [%s]", label, tc.Value)
	case tc.Placeholder != "":
		label = fmt.Sprintf("%s (e.g. %s)", label, tc.Placeholder)
	}
	for {
		line, err := c.readLine(label+"> ", w, canGoBack)
		if err != nil {
			return "", err
		}
		if line == "" {
			line = tc.Value
		}
		if line != "" || tc.Optional {
			return line, nil
		}
		fmt.Fprintf(c.out, "  a value is required\n")
	}
}

type option struct {
	value  string
	label  string
	detail string
	chosen bool
}

// pick lists opts and reads numbers or values separated by spaces or
// commas. Enter keeps the pre-selected options.
func (c *Console) pick(opts []option, multi bool, w *wizard.Wizard, canGoBack bool) ([]string, error) {
	var preset []string
	for i, o := range opts {
		mark := " "
		if o.chosen {
			mark = "*"
			preset = append(preset, o.value)
		}
		fmt.Fprintf(c.out, " %s %d) %s\n", mark, i+1, o.label)
		if o.detail != "" {
			for _, l := range strings.Split(o.detail, "\n") {
				fmt.Fprintf(c.out, "      %s\n", l)
			}
		}
	}
	prompt := "choose> "
	if multi {
		prompt = "choose one or more> "
	}
	for {
		line, err := c.readLine(prompt, w, canGoBack)
		if err != nil {
			return nil, err
		}
		if line == "" && len(preset) > 0 {
			return preset, nil
		}
		values, bad := resolve(line, opts)
		switch {
		case bad != "":
			fmt.Fprintf(c.out, "  unknown choice %q\n", bad)
		case len(values) == 0:
		case !multi && len(values) > 1:
			fmt.Fprintf(c.out, "  choose exactly one\n")
		default:
			return values, nil
		}
	}
}

// pickResource offers the configured channels or roles; raw ids are
// accepted as well.
func (c *Console) pickResource(rc *form.ResourceControl, w *wizard.Wizard, canGoBack bool) ([]string, error) {
	known := c.resources.Of(rc.Type)
	if len(known) == 0 {
		for {
			prompt := fmt.Sprintf("%s id> ", rc.Type)
			if len(rc.Selected) > 0 {
				prompt = fmt.Sprintf("%s id [%s]> ", rc.Type, strings.Join(rc.Selected, " "))
			}
			line, err := c.readLine(prompt, w, canGoBack)
			if err != nil {
				return nil, err
			}
			ids := splitList(line)
			if len(ids) == 0 {
				ids = rc.Selected
			}
			if len(ids) == 0 || (!rc.Multi && len(ids) > 1) {
				continue
			}
			return ids, nil
		}
	}
	return c.pick(resourceOptions(known, rc.Selected), rc.Multi, w, canGoBack)
}

func resourceOptions(known []config.Resource, selected []string) []option {
	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}
	opts := make([]option, len(known))
	for i, r := range known {
		label := r.Name
		if label == "" {
			label = r.ID
		}
		opts[i] = option{value: r.ID, label: label, chosen: chosen[r.ID]}
	}
	return opts
}

// resolve maps tokens to option values. A token is a 1-based index, a value
// or a label. The first unknown token is returned as bad.
func resolve(line string, opts []option) (values []string, bad string) {
	for _, tok := range splitList(line) {
		if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= len(opts) {
			values = append(values, opts[n-1].value)
			continue
		}
		found := false
		for _, o := range opts {
			if strings.EqualFold(tok, o.value) || strings.EqualFold(tok, o.label) {
				values = append(values, o.value)
				found = true
				break
			}
		}
		if !found {
			return nil, tok
		}
	}
	return values, ""
}

func splitList(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
}
