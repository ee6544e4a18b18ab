// Package normalize converts raw UI answers into the canonical ordered
// list-of-strings form used by the form state and condition evaluation.
package normalize

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Separator delimits values inside a single string answer.
const Separator = ";"

// ConcatKey is the reserved map entry holding semicolon-delimited values for
// fields that do not declare their own key.
const ConcatKey = "__concat__"

// Normalize converts raw into an ordered list of strings.
//
// Maps are laid out by step.Fields when the step declares fields: keyed
// fields read their own entry, unkeyed fields consume the next token of the
// ConcatKey bucket. Without fields, map values come back in key order; callers
// must not rely on that order.
func Normalize(raw any, step *schema.Step) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case string:
		return strings.Split(v, Separator)
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = stringify(e)
		}
		return out
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return normalizeMap(m, step)
	case map[string]any:
		return normalizeMap(v, step)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			out := make([]string, rv.Len())
			for i := range out {
				out[i] = stringify(rv.Index(i).Interface())
			}
			return out
		}
		return []string{stringify(v)}
	}
}

func normalizeMap(m map[string]any, step *schema.Step) []string {
	if step == nil || len(step.Fields) == 0 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, stringify(m[k]))
		}
		return out
	}

	var overflow []string
	if c, ok := m[ConcatKey]; ok && c != nil {
		if s := stringify(c); s != "" {
			overflow = strings.Split(s, Separator)
		}
	}

	out := make([]string, 0, len(step.Fields))
	for _, f := range step.Fields {
		if f.Key != "" {
			out = append(out, stringify(m[f.Key]))
			continue
		}
		if len(overflow) > 0 {
			out = append(out, overflow[0])
			overflow = overflow[1:]
		} else {
			out = append(out, "")
		}
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []string:
		return strings.Join(s, Separator)
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, Separator)
	case float64:
		// decoded JSON numbers; never in exponent form
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// Values extracts the comparable values of a raw answer for condition
// evaluation. Lists yield each element and maps the normalized fields. A
// string is split on Separator when step accepts several values and is a
// single value otherwise.
func Values(raw any, step *schema.Step) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if step != nil && step.MultiValued() {
			return strings.Split(v, Separator)
		}
		return []string{v}
	default:
		return Normalize(raw, step)
	}
}
