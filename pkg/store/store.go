// Package store persists compiled feature records per guild. Every backend
// upserts by (guild, feature) with last write wins.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store reads and writes feature records.
type Store interface {
	wizard.Persister
	wizard.Reader
	Close() error
}

// Drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver   string
	DSN      string
	RedisURL string        // optional read-through cache
	CacheTTL time.Duration // defaults to DefaultCacheTTL
}

// Open returns the backend named by opts.Driver, wrapped in a Redis cache
// when opts.RedisURL is set.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		s   Store
		err error
	)
	switch opts.Driver {
	case "", DriverMemory:
		s = NewMemory()
	case DriverSQLite:
		s, err = OpenSQLite(ctx, opts.DSN, logger)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, opts.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if opts.RedisURL == "" {
		return s, nil
	}

	ropts, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		s.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewCached(s, client, opts.CacheTTL, logger), nil
}

// encode serialises a record as stored by every backend.
func encode(rec wizard.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// decode reads a stored record. Composition entries come back as generic
// maps and are decoded by the wizard when an edit reopens them.
func decode(data []byte) (wizard.Record, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return wizard.DecodeRecord(m), nil
}
