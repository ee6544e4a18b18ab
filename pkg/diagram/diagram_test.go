package diagram

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

func load(t *testing.T, name string) *schema.Feature {
	t.Helper()
	f, err := schema.LoadFile("../../testdata/features/" + name + ".wizard.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGenerateMermaid_LinearFlow(t *testing.T) {
	f := &schema.Feature{
		Feature: "linear",
		Steps: []schema.Step{
			{Key: "intro", Kind: schema.KindStart},
			{Key: "nick-name", Kind: schema.KindFreeText},
			{Key: "done", Kind: schema.KindConfirm},
		},
	}
	out, err := Generate(f, nil, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"flowchart TD", "START --> intro", "intro --> nick_name", "nick_name --> done", "done --> END"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateMermaid_ConditionBypass(t *testing.T) {
	out, err := Generate(load(t, "welcome"), nil, FormatMermaid)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `welcomeDesign -->|"welcomeDesign not in serverBlur, plain"| background`) {
		t.Errorf("missing conditional edge:\n%s", out)
	}
	if !strings.Contains(out, "welcomeDesign --> pingRoles") {
		t.Errorf("missing bypass edge:\n%s", out)
	}
	if !strings.Contains(out, "background --> pingRoles") {
		t.Errorf("missing edge out of conditioned step:\n%s", out)
	}
}

func TestGenerateMermaid_CompositionLoop(t *testing.T) {
	out, err := Generate(load(t, "socialfeeds"), nil, FormatMermaid)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`subgraph targets`,
		`platform --> targets_account`,
		`targets_target -->|"platform in twitch"| targets_mention`,
		`targets_mention -.->|"more, up to 2"| targets_account`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q, got:\n%s", want, out)
		}
	}
}

func TestGenerateASCII_AlignedBoxes(t *testing.T) {
	out, err := Generate(load(t, "socialfeeds"), nil, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Stream notifications") || !strings.Contains(out, "↻ up to 2") {
		t.Errorf("ASCII output:\n%s", out)
	}
	width := -1
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "│" {
			continue
		}
		w := runewidth.StringWidth(line)
		if width < 0 {
			width = w
		}
		if w != width {
			t.Errorf("line width %d, want %d: %q", w, width, line)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate(nil, nil, FormatASCII); err == nil {
		t.Error("expected error for nil feature")
	}
	if _, err := Generate(load(t, "welcome"), nil, "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
