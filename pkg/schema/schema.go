// Package schema defines the Go struct types for the wizard/v0 feature
// document and provides strict YAML parsing.
package schema

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIVersion is the only document version understood by this package.
const APIVersion = "wizard/v0"

// Feature is the top-level document describing the configuration wizard
// of one guild feature.
type Feature struct {
	APIVersion string `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=wizard/v0"`
	Feature    string `yaml:"feature"    json:"feature"    jsonschema:"required"`
	Meta       Meta   `yaml:"meta"       json:"meta"`
	Steps      []Step `yaml:"steps"      json:"steps"      jsonschema:"required,minItems=1"`
}

// Meta contains display metadata and per-feature composition caps.
type Meta struct {
	Name          string         `yaml:"name,omitempty"          json:"name,omitempty"`
	Description   string         `yaml:"description,omitempty"   json:"description,omitempty"`
	DefaultLocale string         `yaml:"defaultLocale,omitempty" json:"defaultLocale,omitempty"`
	Caps          map[string]int `yaml:"caps,omitempty"          json:"caps,omitempty"`
}

// StepKind enumerates the wizard step kinds.
type StepKind string

const (
	KindStart          StepKind = "start"
	KindFreeText       StepKind = "freeText"
	KindSingleChoice   StepKind = "singleChoice"
	KindResourceSelect StepKind = "resourceSelect"
	KindDesignChoice   StepKind = "designChoice"
	KindComposition    StepKind = "composition"
	KindFileUpload     StepKind = "fileUpload"
	KindConfirm        StepKind = "confirm"
)

// Kinds lists every step kind in declaration order.
var Kinds = []StepKind{
	KindStart,
	KindFreeText,
	KindSingleChoice,
	KindResourceSelect,
	KindDesignChoice,
	KindComposition,
	KindFileUpload,
	KindConfirm,
}

// Valid reports whether k is one of the known step kinds.
func (k StepKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ResourceType is the guild resource a resourceSelect step picks from.
type ResourceType string

const (
	ResourceChannel ResourceType = "channel"
	ResourceRole    ResourceType = "role"
)

// MatchMode selects how a Condition compares the referenced answer.
type MatchMode string

const (
	MatchIn    MatchMode = "in"
	MatchNotIn MatchMode = "notIn"
)

// Step is one unit of the wizard. Fields are populated based on Kind.
type Step struct {
	Key       string     `yaml:"key"                 json:"key"                 jsonschema:"required"`
	Kind      StepKind   `yaml:"kind"                json:"kind"                jsonschema:"required,enum=start,enum=freeText,enum=singleChoice,enum=resourceSelect,enum=designChoice,enum=composition,enum=fileUpload,enum=confirm"`
	Condition *Condition `yaml:"condition,omitempty" json:"condition,omitempty"`

	// freeText
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty"`

	// singleChoice
	Options []Option `yaml:"options,omitempty" json:"options,omitempty"`
	Multi   bool     `yaml:"multi,omitempty"   json:"multi,omitempty"`

	// designChoice
	Designs []Option `yaml:"designs,omitempty" json:"designs,omitempty"`

	// resourceSelect
	Resource *Resource `yaml:"resource,omitempty" json:"resource,omitempty"`

	// composition
	Steps     []Step `yaml:"steps,omitempty"     json:"steps,omitempty"`
	ParentKey string `yaml:"parentKey,omitempty" json:"parentKey,omitempty"`

	// Copied onto the compiled record entry.
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Style string `yaml:"style,omitempty" json:"style,omitempty"`

	Text map[string]Text `yaml:"text,omitempty" json:"text,omitempty"`
}

// Field is a named sub-slot of a step that collects several values. A field
// without a key is fed from the positional overflow bucket.
type Field struct {
	Key         string `yaml:"key,omitempty"         json:"key,omitempty"`
	Label       string `yaml:"label"                 json:"label"                 jsonschema:"required"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Multiline   bool   `yaml:"multiline,omitempty"   json:"multiline,omitempty"`
	Optional    bool   `yaml:"optional,omitempty"    json:"optional,omitempty"`
}

// Option is a selectable choice or design.
type Option struct {
	Value       string `yaml:"value"                 json:"value"                 jsonschema:"required"`
	Label       string `yaml:"label,omitempty"       json:"label,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DisplayLabel returns the label, falling back to the value.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Resource scopes a resourceSelect step.
type Resource struct {
	Type  ResourceType `yaml:"type"            json:"type"            jsonschema:"required,enum=channel,enum=role"`
	Multi bool         `yaml:"multi,omitempty" json:"multi,omitempty"`
}

// Condition skips a step depending on an earlier answer.
type Condition struct {
	Key    string    `yaml:"key"    json:"key"    jsonschema:"required"`
	Match  MatchMode `yaml:"match"  json:"match"  jsonschema:"required,enum=in,enum=notIn"`
	Values []string  `yaml:"values" json:"values" jsonschema:"required,minItems=1"`
}

// Text is the locale-specific display text of a step.
type Text struct {
	Title       string `yaml:"title,omitempty"       json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// Display resolves the step text for locale, then fallback, then any
// locale. The title defaults to the step key.
func (s *Step) Display(locale, fallback string) Text {
	t, ok := s.Text[locale]
	if !ok {
		t, ok = s.Text[fallback]
	}
	if !ok && len(s.Text) > 0 {
		locales := make([]string, 0, len(s.Text))
		for l := range s.Text {
			locales = append(locales, l)
		}
		sort.Strings(locales)
		t = s.Text[locales[0]]
	}
	if t.Title == "" {
		t.Title = s.Key
	}
	return t
}

// Option returns the option (or design) with the given value.
func (s *Step) Option(value string) (Option, bool) {
	for _, o := range s.Options {
		if o.Value == value {
			return o, true
		}
	}
	for _, o := range s.Designs {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// MultiValued reports whether the step accepts several values: a multi-select
// choice or a multi resource picker.
func (s *Step) MultiValued() bool {
	switch s.Kind {
	case KindSingleChoice:
		return s.Multi
	case KindResourceSelect:
		return s.Resource != nil && s.Resource.Multi
	}
	return false
}

// Locale returns the default locale of the feature ("en" when unset).
func (f *Feature) Locale() string {
	if f.Meta.DefaultLocale != "" {
		return f.Meta.DefaultLocale
	}
	return "en"
}

// LoadFile reads and parses a feature YAML file with strict unknown-field
// rejection (yaml.v3 KnownFields).
func LoadFile(path string) (*Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feature: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a feature document from an io.Reader.
func Load(r io.Reader) (*Feature, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Feature
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode feature: %w", err)
	}
	return &f, nil
}

// FileSuffix is the filename suffix of feature documents inside a directory.
const FileSuffix = ".wizard.yaml"

// LoadDir loads every *.wizard.yaml document in dir, keyed by feature key.
func LoadDir(dir string) (map[string]*Feature, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read feature dir: %w", err)
	}
	out := make(map[string]*Feature)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileSuffix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		f, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, ok := out[f.Feature]; ok {
			return nil, fmt.Errorf("%s: duplicate feature %q", e.Name(), f.Feature)
		}
		out[f.Feature] = f
	}
	return out, nil
}

// WalkSteps calls fn for every step, depth first, with a JSON-path-like
// location.
func WalkSteps(steps []Step, path string, fn func(s *Step, path string)) {
	for i := range steps {
		p := fmt.Sprintf("%s[%d]", path, i)
		fn(&steps[i], p)
		if len(steps[i].Steps) > 0 {
			WalkSteps(steps[i].Steps, p+".steps", fn)
		}
	}
}
