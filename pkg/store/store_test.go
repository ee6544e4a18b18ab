package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, ok, err := s.Read(ctx, "g1", "welcome"); err != nil || ok {
				t.Fatalf("Read on empty store = %v, %v", ok, err)
			}

			first := wizard.Record{"color": {Value: "red", Style: "accent"}}
			second := wizard.Record{"color": {Value: "blue", Style: "accent"}, "channel": {Value: "100", Title: "Channel"}}
			if err := s.Upsert(ctx, "g1", "welcome", first); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
			if err := s.Upsert(ctx, "g1", "welcome", second); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			got, ok, err := s.Read(ctx, "g1", "welcome")
			if err != nil || !ok {
				t.Fatalf("Read = %v, %v", ok, err)
			}
			if diff := cmp.Diff(second, got); diff != "" {
				t.Errorf("record (-want +got):\n%s", diff)
			}

			if _, ok, _ := s.Read(ctx, "g2", "welcome"); ok {
				t.Error("record leaked to another guild")
			}
		})
	}
}

func TestCompositionEntriesRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := wizard.Record{
				"targets": {Value: []wizard.Record{
					{"target": {Value: "10"}, "account": {Value: map[string]any{"name": "a"}}},
				}},
				"roles": {Value: []string{"7", "8"}},
			}
			if err := s.Upsert(ctx, "g1", "socialfeeds", rec); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
			got, _, err := s.Read(ctx, "g1", "socialfeeds")
			if err != nil {
				t.Fatalf("Read: %v", err)
			}

			// stored shapes are generic JSON values
			want := wizard.Record{
				"targets": {Value: []any{
					map[string]any{
						"target":  map[string]any{"value": "10"},
						"account": map[string]any{"value": map[string]any{"name": "a"}},
					},
				}},
				"roles": {Value: []any{"7", "8"}},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("record (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mongo"}, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	s, err := Open(context.Background(), Options{}, nil)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("default driver = %T, want *Memory", s)
	}
}

func TestCacheKey(t *testing.T) {
	if got := cacheKey("123", "welcome"); got != "guildwiz:config:123:welcome" {
		t.Errorf("cacheKey = %q", got)
	}
}

func TestSQLitePragmas(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "pragma.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := s.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}
