package normalize

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Mention formats a guild resource id the way the chat gateway renders it.
func Mention(t schema.ResourceType, id string) string {
	switch t {
	case schema.ResourceRole:
		return "<@&" + id + ">"
	default:
		return "<#" + id + ">"
	}
}

// Display builds the human-readable form of a raw answer for step.
func Display(raw any, step *schema.Step) string {
	if raw == nil || step == nil {
		return ""
	}
	values := Normalize(raw, step)

	switch step.Kind {
	case schema.KindResourceSelect:
		t := schema.ResourceChannel
		if step.Resource != nil {
			t = step.Resource.Type
		}
		mentions := make([]string, 0, len(values))
		for _, id := range values {
			if id != "" {
				mentions = append(mentions, Mention(t, id))
			}
		}
		return strings.Join(mentions, ", ")
	case schema.KindSingleChoice, schema.KindDesignChoice:
		labels := make([]string, 0, len(values))
		for _, v := range values {
			if o, ok := step.Option(v); ok {
				labels = append(labels, o.DisplayLabel())
			} else if v != "" {
				labels = append(labels, v)
			}
		}
		return strings.Join(labels, ", ")
	case schema.KindFreeText:
		if len(step.Fields) == 0 {
			return strings.Join(values, Separator)
		}
		var lines []string
		for i, f := range step.Fields {
			if i < len(values) && values[i] != "" {
				lines = append(lines, f.Label+": "+values[i])
			}
		}
		return strings.Join(lines, "\n")
	case schema.KindComposition:
		if len(values) == 1 {
			return "1 entry"
		}
		return fmt.Sprintf("%d entries", len(values))
	default:
		return strings.Join(values, ", ")
	}
}
