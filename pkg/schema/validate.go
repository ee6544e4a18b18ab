package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "steps[2].condition.key")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s at %s", e.Phase, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

func errorf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "error",
	}
}

func warningf(phase, path, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Path:     path,
		Message:  fmt.Sprintf(msg, args...),
		Severity: "warning",
	}
}

// HasErrors reports whether errs contains at least one error-severity entry.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// Errors joins the error-severity entries of errs into one error, or nil.
func Errors(errs []*ValidationError) error {
	var joined []error
	for _, e := range errs {
		if e.Severity == "error" {
			joined = append(joined, e)
		}
	}
	return errors.Join(joined...)
}

// ValidateFile performs the full 3-phase validation pipeline on a feature file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string, configured map[string]int) (*Feature, []*ValidationError) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", filepath.Base(path), "%s", err)}
	}
	return f, Validate(f, CapsFor(f, configured))
}

// Validate runs phases 2 and 3 on an already-loaded feature. Domain rules are
// skipped when the semantic phase fails.
func Validate(f *Feature, caps CapTable) []*ValidationError {
	errs := validateSemantic(f)
	if HasErrors(errs) {
		return errs
	}
	return append(errs, ValidateDomain(f, caps)...)
}

// validateSemantic validates the feature against the generated JSON Schema.
func validateSemantic(f *Feature) []*ValidationError {
	data, err := json.Marshal(f)
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "marshal for schema validation: %v", err)}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "generate schema: %v", err)}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{errorf("semantic", "", "unmarshal schema: %v", err)}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("wizard-v0.json", schemaDoc); err != nil {
		return []*ValidationError{errorf("semantic", "", "add schema resource: %v", err)}
	}
	sch, err := c.Compile("wizard-v0.json")
	if err != nil {
		return []*ValidationError{errorf("semantic", "", "compile schema: %v", err)}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{errorf("semantic", "", "unmarshal document: %v", err)}
	}

	if err := sch.Validate(doc); err != nil {
		var ve *sjsonschema.ValidationError
		if !errors.As(err, &ve) {
			return []*ValidationError{errorf("semantic", "", "%s", err)}
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, errorf("semantic", strings.Join(cause.InstanceLocation, "/"), "%v", cause.ErrorKind))
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
func ValidateDomain(f *Feature, caps CapTable) []*ValidationError {
	var errs []*ValidationError

	// D1: apiVersion
	if f.APIVersion != APIVersion {
		errs = append(errs, errorf("domain", "apiVersion", "expected %q, got %q", APIVersion, f.APIVersion))
	}

	// D2: feature key
	if strings.TrimSpace(f.Feature) == "" {
		errs = append(errs, errorf("domain", "feature", "feature key is required"))
	}

	if len(f.Steps) == 0 {
		return append(errs, errorf("domain", "steps", "at least one step is required"))
	}

	// D3..D6: per-list rules, recursing into compositions
	errs = append(errs, validateList(f.Steps, "steps", nil, caps, true)...)

	// D7: confirm terminates the top-level list
	for i, s := range f.Steps {
		if s.Kind == KindConfirm && i != len(f.Steps)-1 {
			errs = append(errs, errorf("domain", fmt.Sprintf("steps[%d]", i), "confirm step %q must be the last step", s.Key))
		}
	}
	if last := f.Steps[len(f.Steps)-1]; last.Kind != KindConfirm {
		errs = append(errs, warningf("domain", "steps", "feature has no trailing confirm step; answers compile after %q", last.Key))
	}

	return errs
}

// validateList checks one step list. prior holds the keys answered before
// this list starts (enclosing lists), so conditions may reference them.
func validateList(steps []Step, path string, prior []string, caps CapTable, top bool) []*ValidationError {
	var errs []*ValidationError
	seen := map[string]string{} // key → path
	known := append([]string(nil), prior...)

	for i := range steps {
		s := &steps[i]
		p := fmt.Sprintf("%s[%d]", path, i)

		if strings.TrimSpace(s.Key) == "" {
			errs = append(errs, errorf("domain", p+".key", "step key is required"))
		} else if first, ok := seen[s.Key]; ok {
			errs = append(errs, errorf("domain", p+".key", "duplicate step key %q (first at %s)", s.Key, first))
		} else {
			seen[s.Key] = p
		}

		if !s.Kind.Valid() {
			errs = append(errs, errorf("domain", p+".kind", "unknown step kind %q", s.Kind))
			continue
		}

		if s.Condition != nil {
			errs = append(errs, validateCondition(s.Condition, p+".condition", known)...)
		}

		errs = append(errs, validateKind(s, p, i, top, known, caps)...)

		if s.Key != "" {
			known = append(known, s.Key)
		}
	}
	return errs
}

func validateCondition(c *Condition, path string, known []string) []*ValidationError {
	var errs []*ValidationError
	if c.Match != MatchIn && c.Match != MatchNotIn {
		errs = append(errs, errorf("domain", path+".match", "match must be %q or %q, got %q", MatchIn, MatchNotIn, c.Match))
	}
	if len(c.Values) == 0 {
		errs = append(errs, errorf("domain", path+".values", "condition needs at least one value"))
	}
	found := false
	for _, k := range known {
		if k == c.Key {
			found = true
			break
		}
	}
	if !found {
		errs = append(errs, errorf("domain", path+".key", "condition references %q, which is not answered by any prior step", c.Key))
	}
	return errs
}

func validateKind(s *Step, p string, idx int, top bool, known []string, caps CapTable) []*ValidationError {
	var errs []*ValidationError

	if s.Kind != KindComposition && len(s.Steps) > 0 {
		errs = append(errs, errorf("domain", p+".steps", "only composition steps may declare nested steps"))
	}

	switch s.Kind {
	case KindStart:
		if !top || idx != 0 {
			errs = append(errs, errorf("domain", p, "start step must be the first top-level step"))
		}
	case KindFreeText:
		fieldKeys := map[string]bool{}
		for j, fd := range s.Fields {
			if fd.Key == "" {
				continue
			}
			if fieldKeys[fd.Key] {
				errs = append(errs, errorf("domain", fmt.Sprintf("%s.fields[%d].key", p, j), "duplicate field key %q", fd.Key))
			}
			fieldKeys[fd.Key] = true
		}
	case KindSingleChoice:
		if len(s.Options) == 0 {
			errs = append(errs, errorf("domain", p+".options", "singleChoice step needs at least one option"))
		}
		errs = append(errs, validateOptions(s.Options, p+".options")...)
	case KindDesignChoice:
		if len(s.Designs) == 0 {
			errs = append(errs, errorf("domain", p+".designs", "designChoice step needs at least one design"))
		}
		errs = append(errs, validateOptions(s.Designs, p+".designs")...)
	case KindResourceSelect:
		if s.Resource == nil {
			errs = append(errs, errorf("domain", p+".resource", "resourceSelect step needs a resource scope"))
		} else if s.Resource.Type != ResourceChannel && s.Resource.Type != ResourceRole {
			errs = append(errs, errorf("domain", p+".resource.type", "unknown resource type %q", s.Resource.Type))
		}
	case KindComposition:
		if !top {
			errs = append(errs, errorf("domain", p, "nested compositions are not supported"))
		}
		if s.ParentKey == "" {
			errs = append(errs, errorf("domain", p+".parentKey", "composition step needs a parentKey"))
		} else if _, ok := caps.Cap(s.ParentKey); !ok {
			errs = append(errs, errorf("domain", p+".parentKey", "no cap registered for parentKey %q", s.ParentKey))
		}
		if len(s.Steps) == 0 {
			errs = append(errs, errorf("domain", p+".steps", "composition step needs nested steps"))
		}
		errs = append(errs, validateList(s.Steps, p+".steps", known, caps, false)...)
	case KindFileUpload:
	case KindConfirm:
		if !top {
			errs = append(errs, errorf("domain", p, "confirm steps are only allowed at the top level"))
		}
	}
	return errs
}

func validateOptions(opts []Option, path string) []*ValidationError {
	var errs []*ValidationError
	seen := map[string]bool{}
	for i, o := range opts {
		if o.Value == "" {
			errs = append(errs, errorf("domain", fmt.Sprintf("%s[%d].value", path, i), "option value is required"))
			continue
		}
		if strings.Contains(o.Value, ";") {
			errs = append(errs, errorf("domain", fmt.Sprintf("%s[%d].value", path, i), "option value %q must not contain ';'", o.Value))
		}
		if seen[o.Value] {
			errs = append(errs, errorf("domain", fmt.Sprintf("%s[%d].value", path, i), "duplicate option value %q", o.Value))
		}
		seen[o.Value] = true
	}
	return errs
}
