package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/session"
)

func TestValidateFiles(t *testing.T) {
	var out, errOut bytes.Buffer
	err := validateFiles(&out, &errOut, []string{
		"../../testdata/features/welcome.wizard.yaml",
		"../../testdata/features/socialfeeds.wizard.yaml",
	}, nil)
	if err != nil {
		t.Fatalf("validateFiles: %v\n%s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "✓ Welcome messages is valid (8 steps)") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestValidateFilesReportsFailures(t *testing.T) {
	var out, errOut bytes.Buffer
	err := validateFiles(&out, &errOut, []string{
		"../../testdata/features/welcome.wizard.yaml",
		"../../testdata/invalid/unknown-fields.yaml",
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v, want 1 of 2 failed", err)
	}
	if !strings.Contains(errOut.String(), "[structural]") {
		t.Errorf("stderr:\n%s", errOut.String())
	}
}

func TestListFeatures(t *testing.T) {
	features, err := schema.LoadDir("../../testdata/features")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	listFeatures(&out, features)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "socialfeeds") || !strings.HasPrefix(lines[1], "welcome") {
		t.Errorf("lines = %q", lines)
	}
}

func TestReportView(t *testing.T) {
	tests := []struct {
		name string
		view *session.View
		want string
	}{
		{"nil", nil, "✗ nothing saved\n"},
		{"abandoned", &session.View{Phase: "abandoned", Error: "cancelled"}, "✗ nothing saved: cancelled\n"},
		{"compiled", &session.View{Phase: "compiled", Feature: "welcome", GuildID: "g1"}, "✓ saved 0 settings for welcome in guild g1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			reportView(&out, tt.view)
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
		})
	}
}
