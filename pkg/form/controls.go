package form

import (
	"strings"

	"github.com/ormasoftchile/guildwiz/pkg/normalize"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// TextControl is one text-capture input of a freeText step.
type TextControl struct {
	Key         string `json:"key,omitempty"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Multiline   bool   `json:"multiline,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Value       string `json:"value,omitempty"`
}

// TextControls builds the inputs of a freeText step. A step without fields
// gets a single input keyed by the step key.
func TextControls(step *schema.Step, placeholder string) []TextControl {
	if len(step.Fields) == 0 {
		return []TextControl{{Label: step.Key, Placeholder: placeholder}}
	}
	out := make([]TextControl, len(step.Fields))
	for i, f := range step.Fields {
		out[i] = TextControl{
			Key:         f.Key,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Multiline:   f.Multiline,
			Optional:    f.Optional,
		}
	}
	return out
}

// TextPayload builds the submit payload of filled text inputs. Keyed inputs
// become map entries and unkeyed ones share the concat bucket in order. A
// single unkeyed input submits its plain value.
func TextPayload(controls []TextControl) any {
	if len(controls) == 1 && controls[0].Key == "" {
		return controls[0].Value
	}
	out := make(map[string]any, len(controls))
	var overflow []string
	for _, c := range controls {
		if c.Key != "" {
			out[c.Key] = c.Value
			continue
		}
		overflow = append(overflow, c.Value)
	}
	if len(overflow) > 0 {
		out[normalize.ConcatKey] = strings.Join(overflow, normalize.Separator)
	}
	return out
}

// ChoiceItem is one selectable entry.
type ChoiceItem struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Chosen      bool   `json:"chosen,omitempty"`
}

// ChoiceControl is a single- or multi-select list. Chosen values are kept in
// click order.
type ChoiceControl struct {
	Items []ChoiceItem `json:"items"`
	Multi bool         `json:"multi,omitempty"`
	order []string
}

// NewChoiceControl builds a control from schema options.
func NewChoiceControl(opts []schema.Option, multi bool) *ChoiceControl {
	c := &ChoiceControl{Multi: multi}
	for _, o := range opts {
		c.Items = append(c.Items, ChoiceItem{Value: o.Value, Label: o.DisplayLabel(), Description: o.Description})
	}
	return c
}

// Toggle flips the chosen state of value. In single-select mode choosing a
// value clears every other one. Unknown values are ignored.
func (c *ChoiceControl) Toggle(value string) {
	idx := -1
	for i := range c.Items {
		if c.Items[i].Value == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if c.Items[idx].Chosen {
		c.Items[idx].Chosen = false
		c.removeOrder(value)
		return
	}
	if !c.Multi {
		c.Clear()
	}
	c.Items[idx].Chosen = true
	c.order = append(c.order, value)
}

// Chosen returns the chosen values in click order.
func (c *ChoiceControl) Chosen() []string {
	return append([]string(nil), c.order...)
}

// Clear unselects everything.
func (c *ChoiceControl) Clear() {
	for i := range c.Items {
		c.Items[i].Chosen = false
	}
	c.order = nil
}

func (c *ChoiceControl) removeOrder(value string) {
	for i, v := range c.order {
		if v == value {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// ResourceControl selects guild channels or roles by id.
type ResourceControl struct {
	Type     schema.ResourceType `json:"type"`
	Multi    bool                `json:"multi,omitempty"`
	Selected []string            `json:"selected,omitempty"`
}

// DesignControl selects one design; Previews holds the rendered preview of
// each design that could be rendered.
type DesignControl struct {
	Designs  []ChoiceItem      `json:"designs"`
	Selected string            `json:"selected,omitempty"`
	Previews map[string]string `json:"previews,omitempty"`
}

// FileControl captures an uploaded file's URL.
type FileControl struct {
	URL string `json:"url,omitempty"`
}
