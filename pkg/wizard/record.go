package wizard

import (
	"fmt"
	"sort"
	"strings"
)

// Answer is the result of one completed step.
type Answer struct {
	Key     string `json:"key"`
	Display string `json:"display,omitempty"`
	Raw     any    `json:"raw"`
	Title   string `json:"title,omitempty"`
	Style   string `json:"style,omitempty"`
}

// Entry is one field of a persisted configuration record.
type Entry struct {
	Value any    `json:"value"`
	Title string `json:"title,omitempty"`
	Style string `json:"style,omitempty"`
}

// Record is the compiled configuration of a feature, keyed by step key.
type Record map[string]Entry

// String renders the record compactly with keys in sorted order.
func (r Record) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, r[k].Value)
	}
	return strings.Join(parts, ", ")
}

// Compile folds answers into a record. When a key was answered more than
// once, only the last answer survives.
func Compile(answers []Answer) Record {
	rec := make(Record, len(answers))
	for _, a := range answers {
		if a.Key == "" {
			continue
		}
		rec[a.Key] = Entry{Value: a.Raw, Title: a.Title, Style: a.Style}
	}
	return rec
}

// Dedupe returns answers with one entry per key, in first-seen key order,
// each carrying the last value written for that key.
func Dedupe(answers []Answer) []Answer {
	index := make(map[string]int, len(answers))
	var out []Answer
	for _, a := range answers {
		if a.Key == "" {
			continue
		}
		if i, ok := index[a.Key]; ok {
			out[i] = a
			continue
		}
		index[a.Key] = len(out)
		out = append(out, a)
	}
	return out
}

// seedAnswers converts an existing record into answers, sorted by key so the
// seeded log is deterministic.
func seedAnswers(rec Record) []Answer {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Answer, 0, len(keys))
	for _, k := range keys {
		e := rec[k]
		out = append(out, Answer{Key: k, Raw: e.Value, Title: e.Title, Style: e.Style})
	}
	return out
}

// decodeRecords reads a composition answer back into child records. It
// accepts the in-memory form ([]Record) and the shape produced by a JSON
// round trip through a store ([]any of {key: {value, title, style}}).
func decodeRecords(raw any) []Record {
	switch v := raw.(type) {
	case nil:
		return nil
	case []Record:
		out := make([]Record, len(v))
		copy(out, v)
		return out
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, decodeRecord(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, e := range v {
			switch m := e.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, decodeRecord(m))
			}
		}
		return out
	default:
		return nil
	}
}

// DecodeRecord converts a generic map (e.g. decoded JSON) into a Record.
// Values that are not {value, title, style} objects become bare entries.
func DecodeRecord(m map[string]any) Record {
	return decodeRecord(m)
}

func decodeRecord(m map[string]any) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		obj, ok := v.(map[string]any)
		if !ok {
			rec[k] = Entry{Value: v}
			continue
		}
		val, hasValue := obj["value"]
		if !hasValue {
			rec[k] = Entry{Value: v}
			continue
		}
		e := Entry{Value: val}
		e.Title, _ = obj["title"].(string)
		e.Style, _ = obj["style"].(string)
		rec[k] = e
	}
	return rec
}
