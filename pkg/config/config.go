// Package config loads guildwiz.yaml, the project manifest of a guildwiz
// deployment, and applies GUILDWIZ_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "guildwiz.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GUILDWIZ"

type Config struct {
	Features string `yaml:"features" envconfig:"FEATURES"`
	Locale   string `yaml:"locale"   envconfig:"LOCALE"`

	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	HTTP    HTTPConfig    `yaml:"http"`

	Caps      map[string]int `yaml:"caps"      envconfig:"CAPS"`
	Resources Resources      `yaml:"resources" ignored:"true"`

	// Dir is the directory of the manifest; relative paths resolve from it.
	Dir string `yaml:"-" ignored:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level"  envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type SessionConfig struct {
	TTL   time.Duration `yaml:"ttl"   envconfig:"TTL"`
	Sweep time.Duration `yaml:"sweep" envconfig:"SWEEP"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"`
	DSN    string `yaml:"dsn"    envconfig:"DSN"`
}

type CacheConfig struct {
	Redis string        `yaml:"redis" envconfig:"REDIS"`
	TTL   time.Duration `yaml:"ttl"   envconfig:"TTL"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// Resource is a selectable guild channel or role.
type Resource struct {
	ID   string `yaml:"id"   json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Resources lists the guild resources offered by local transports.
type Resources struct {
	Channels []Resource `yaml:"channels"`
	Roles    []Resource `yaml:"roles"`
}

// Of returns the resources of type t.
func (r Resources) Of(t schema.ResourceType) []Resource {
	if t == schema.ResourceRole {
		return r.Roles
	}
	return r.Channels
}

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	return &Config{
		Features: "features",
		Locale:   "en",
		Log:      LogConfig{Level: "info", Format: "console"},
		Session:  SessionConfig{TTL: 15 * time.Minute, Sweep: 30 * time.Second},
		Store:    StoreConfig{Driver: "memory"},
		Cache:    CacheConfig{TTL: 10 * time.Minute},
		HTTP:     HTTPConfig{Addr: ":8080"},
	}
}

// Find walks from start up to the filesystem root looking for FileName.
func Find(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads the manifest at path (defaults only when path is empty), loads
// a .env file next to it and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.Dir = "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Dir = filepath.Dir(path)
	}

	envFile := filepath.Join(cfg.Dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover finds the manifest from the working directory and loads it.
func Discover() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path, _ := Find(cwd)
	return Load(path)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return errors.New("store.dsn is required for the postgres driver")
	}
	if c.Session.TTL < 0 || c.Session.Sweep < 0 {
		return errors.New("session durations must not be negative")
	}
	for k, v := range c.Caps {
		if v < 0 {
			return fmt.Errorf("caps.%s: cap must not be negative", k)
		}
	}
	return nil
}

// FeaturesDir returns the feature directory resolved against Dir.
func (c *Config) FeaturesDir() string {
	if filepath.IsAbs(c.Features) {
		return c.Features
	}
	return filepath.Join(c.Dir, c.Features)
}

// SQLitePath returns the SQLite database path resolved against Dir.
func (c *Config) SQLitePath() string {
	dsn := c.Store.DSN
	if dsn == "" {
		dsn = "guildwiz.db"
	}
	if filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(c.Dir, dsn)
}
