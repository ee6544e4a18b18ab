package wizard

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/guildwiz/pkg/normalize"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// checkPayload rejects callback payloads that could not have come from the
// rendered control or that leave out what the step requires: wrong shape,
// unknown option values, several values on a single-select step, empty
// required fields.
func checkPayload(step *schema.Step, payload any) error {
	switch payload.(type) {
	case string, []string, []any, map[string]string, map[string]any:
	case nil:
		return fmt.Errorf("%w: empty payload for step %q", ErrTransport, step.Key)
	default:
		return fmt.Errorf("%w: unsupported payload %T for step %q", ErrTransport, payload, step.Key)
	}

	values := nonEmpty(normalize.Values(payload, step))
	switch step.Kind {
	case schema.KindFreeText:
		return checkFields(step, payload)
	case schema.KindSingleChoice:
		if len(values) == 0 {
			return fmt.Errorf("%w: no option chosen for step %q", ErrTransport, step.Key)
		}
		if !step.Multi && len(values) > 1 {
			return fmt.Errorf("%w: step %q accepts one option, got %d", ErrTransport, step.Key, len(values))
		}
		for _, v := range values {
			if !hasValue(step.Options, v) {
				return fmt.Errorf("%w: unknown option %q for step %q", ErrTransport, v, step.Key)
			}
		}
	case schema.KindDesignChoice:
		if len(values) != 1 {
			return fmt.Errorf("%w: step %q accepts exactly one design, got %d", ErrTransport, step.Key, len(values))
		}
		if !hasValue(step.Designs, values[0]) {
			return fmt.Errorf("%w: unknown design %q for step %q", ErrTransport, values[0], step.Key)
		}
	case schema.KindResourceSelect:
		if len(values) == 0 {
			return fmt.Errorf("%w: no %s chosen for step %q", ErrTransport, step.Resource.Type, step.Key)
		}
		if !step.Resource.Multi && len(values) != 1 {
			return fmt.Errorf("%w: step %q accepts one %s, got %d", ErrTransport, step.Key, step.Resource.Type, len(values))
		}
		if list, ok := payload.([]any); ok {
			for _, e := range list {
				if _, ok := e.(string); !ok {
					return fmt.Errorf("%w: %s ids for step %q must be strings, got %T", ErrTransport, step.Resource.Type, step.Key, e)
				}
			}
		}
	case schema.KindFileUpload:
		if _, ok := payload.(string); !ok {
			return fmt.Errorf("%w: file upload %q expects a URL, got %T", ErrTransport, step.Key, payload)
		}
	case schema.KindStart, schema.KindConfirm, schema.KindComposition:
		return fmt.Errorf("%w: step %q does not take a payload", ErrTransport, step.Key)
	}
	return nil
}

// checkFields requires a non-blank value for every field not marked optional.
// A step without fields is a single required input.
func checkFields(step *schema.Step, payload any) error {
	values := normalize.Normalize(payload, step)
	if len(step.Fields) == 0 {
		if len(nonEmpty(trimAll(values))) == 0 {
			return fmt.Errorf("%w: step %q requires a value", ErrTransport, step.Key)
		}
		return nil
	}
	for i, f := range step.Fields {
		if f.Optional {
			continue
		}
		if i >= len(values) || strings.TrimSpace(values[i]) == "" {
			name := f.Key
			if name == "" {
				name = f.Label
			}
			return fmt.Errorf("%w: field %q of step %q is required", ErrTransport, name, step.Key)
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func hasValue(opts []schema.Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}
