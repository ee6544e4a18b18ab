package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Named("wizard").Debug("step rendered")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"level":"DEBUG"`, `"logger":"wizard"`, `"msg":"step rendered"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "loud", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Error("debug enabled after invalid level; want info")
	}
}
