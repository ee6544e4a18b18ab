package store

import (
	"context"
	"sync"

	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

var _ Store = (*Memory)(nil)

// Memory keeps encoded records in process memory. Records go through the
// same encoding as the persistent backends so edits see the same shapes.
type Memory struct {
	mu   sync.RWMutex
	recs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string][]byte)}
}

func memKey(guildID, featureKey string) string { return guildID + "\x00" + featureKey }

// Upsert replaces the record of (guildID, featureKey).
func (m *Memory) Upsert(_ context.Context, guildID, featureKey string, rec wizard.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.recs[memKey(guildID, featureKey)] = data
	m.mu.Unlock()
	return nil
}

// Read returns the record of (guildID, featureKey).
func (m *Memory) Read(_ context.Context, guildID, featureKey string) (wizard.Record, bool, error) {
	m.mu.RLock()
	data, ok := m.recs[memKey(guildID, featureKey)]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	rec, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (m *Memory) Close() error { return nil }
