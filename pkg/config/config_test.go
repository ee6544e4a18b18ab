package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
features: wizards
locale: es
log: {level: debug, format: json}
session: {ttl: 5m, sweep: 10s}
store: {driver: sqlite, dsn: data/guild.db}
caps: {targets: 3}
resources:
  channels:
    - {id: "100", name: general}
  roles:
    - {id: "200", name: mods}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.TTL != 5*time.Minute || cfg.Session.Sweep != 10*time.Second {
		t.Errorf("session = %+v", cfg.Session)
	}
	if got, want := cfg.FeaturesDir(), filepath.Join(dir, "wizards"); got != want {
		t.Errorf("FeaturesDir = %q, want %q", got, want)
	}
	if got, want := cfg.SQLitePath(), filepath.Join(dir, "data/guild.db"); got != want {
		t.Errorf("SQLitePath = %q, want %q", got, want)
	}
	if diff := cmp.Diff(map[string]int{"targets": 3}, cfg.Caps); diff != "" {
		t.Errorf("caps (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Resource{{ID: "200", Name: "mods"}}, cfg.Resources.Of(schema.ResourceRole)); diff != "" {
		t.Errorf("roles (-want +got):\n%s", diff)
	}
	// untouched sections keep their defaults
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http.addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "featurez: x\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadEmptyManifestKeepsDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "memory" || cfg.Session.TTL != 15*time.Minute {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "log: {level: info}\n")
	t.Setenv("GUILDWIZ_LOG_LEVEL", "warn")
	t.Setenv("GUILDWIZ_SESSION_TTL", "90s")
	t.Setenv("GUILDWIZ_CACHE_REDIS", "redis://localhost:6379/0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Session.TTL != 90*time.Second {
		t.Errorf("session.ttl = %v", cfg.Session.TTL)
	}
	if cfg.Cache.Redis != "redis://localhost:6379/0" {
		t.Errorf("cache.redis = %q", cfg.Cache.Redis)
	}
}

func TestDotEnvNextToManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GUILDWIZ_HTTP_ADDR=:9191\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("GUILDWIZ_HTTP_ADDR") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9191" {
		t.Errorf("http.addr = %q, want :9191", cfg.HTTP.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }},
		{"negative ttl", func(c *Config) { c.Session.TTL = -time.Second }},
		{"negative cap", func(c *Config) { c.Caps = map[string]int{"targets": -1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := Find(nested)
	if !ok || got != want {
		t.Errorf("Find = %q, %v; want %q", got, ok, want)
	}
}
