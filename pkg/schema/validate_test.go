package schema

import (
	"strings"
	"testing"
)

func validFeature() *Feature {
	return &Feature{
		APIVersion: APIVersion,
		Feature:    "test",
		Steps: []Step{
			{Key: "intro", Kind: KindStart},
			{Key: "design", Kind: KindDesignChoice, Designs: []Option{{Value: "a"}, {Value: "b"}}},
			{Key: "image", Kind: KindFileUpload, Condition: &Condition{Key: "design", Match: MatchIn, Values: []string{"a"}}},
			{Key: "done", Kind: KindConfirm},
		},
	}
}

func hasMessage(errs []*ValidationError, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Valid(t *testing.T) {
	errs := Validate(validFeature(), BuiltinCaps)
	if HasErrors(errs) {
		t.Fatalf("unexpected errors: %v", Errors(errs))
	}
}

func TestValidateDomain_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Feature)
		want   string
	}{
		{
			name:   "missing key",
			mutate: func(f *Feature) { f.Steps[1].Key = "" },
			want:   "step key is required",
		},
		{
			name:   "duplicate key",
			mutate: func(f *Feature) { f.Steps[2].Key = "design" },
			want:   "duplicate step key",
		},
		{
			name: "condition references later step",
			mutate: func(f *Feature) {
				f.Steps[1], f.Steps[2] = f.Steps[2], f.Steps[1]
			},
			want: "not answered by any prior step",
		},
		{
			name: "composition without cap",
			mutate: func(f *Feature) {
				f.Steps = append(f.Steps[:3:3], Step{
					Key: "rows", Kind: KindComposition, ParentKey: "unregistered",
					Steps: []Step{{Key: "label", Kind: KindFreeText}},
				}, f.Steps[3])
			},
			want: "no cap registered",
		},
		{
			name:   "confirm not last",
			mutate: func(f *Feature) { f.Steps[2] = Step{Key: "early", Kind: KindConfirm} },
			want:   "must be the last step",
		},
		{
			name:   "start not first",
			mutate: func(f *Feature) { f.Steps[1] = Step{Key: "again", Kind: KindStart} },
			want:   "start step must be the first",
		},
		{
			name:   "choice without options",
			mutate: func(f *Feature) { f.Steps[1] = Step{Key: "design", Kind: KindSingleChoice} },
			want:   "needs at least one option",
		},
		{
			name:   "wrong api version",
			mutate: func(f *Feature) { f.APIVersion = "wizard/v9" },
			want:   "expected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeature()
			tt.mutate(f)
			errs := ValidateDomain(f, BuiltinCaps)
			if !HasErrors(errs) {
				t.Fatal("expected errors")
			}
			if !hasMessage(errs, tt.want) {
				t.Errorf("expected message containing %q, got %v", tt.want, Errors(errs))
			}
		})
	}
}

func TestValidateDomain_NestedConditionSeesParentKeys(t *testing.T) {
	f := &Feature{
		APIVersion: APIVersion,
		Feature:    "feeds",
		Steps: []Step{
			{Key: "platform", Kind: KindSingleChoice, Options: []Option{{Value: "twitch"}}},
			{Key: "targets", Kind: KindComposition, ParentKey: "targets", Steps: []Step{
				{Key: "name", Kind: KindFreeText},
				{Key: "mention", Kind: KindFreeText, Condition: &Condition{Key: "platform", Match: MatchIn, Values: []string{"twitch"}}},
			}},
			{Key: "done", Kind: KindConfirm},
		},
	}
	if errs := ValidateDomain(f, BuiltinCaps); HasErrors(errs) {
		t.Fatalf("unexpected errors: %v", Errors(errs))
	}
}

func TestValidateFile_Invalid(t *testing.T) {
	_, errs := ValidateFile("../../testdata/invalid/bad-condition.yaml", nil)
	if !HasErrors(errs) {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"not answered by any prior step", "no cap registered"} {
		if !hasMessage(errs, want) {
			t.Errorf("missing %q in %v", want, Errors(errs))
		}
	}
}

func TestValidate_SemanticRejectsUnknownKind(t *testing.T) {
	f := validFeature()
	f.Steps[1].Kind = "slider"
	errs := Validate(f, BuiltinCaps)
	if !HasErrors(errs) {
		t.Fatal("expected errors")
	}
	if errs[0].Phase != "semantic" {
		t.Errorf("phase = %q, want semantic", errs[0].Phase)
	}
}

func TestValidateDomain_MissingConfirmWarns(t *testing.T) {
	f := validFeature()
	f.Steps = f.Steps[:3]
	errs := ValidateDomain(f, BuiltinCaps)
	if HasErrors(errs) {
		t.Fatalf("unexpected errors: %v", Errors(errs))
	}
	if len(errs) != 1 || errs[0].Severity != "warning" {
		t.Errorf("expected a single warning, got %v", errs)
	}
}
