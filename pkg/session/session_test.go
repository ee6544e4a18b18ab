package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

type countingStore struct{ calls int }

func (s *countingStore) Upsert(context.Context, string, string, wizard.Record) error {
	s.calls++
	return nil
}

func newWizard(t *testing.T, store wizard.Persister) *wizard.Wizard {
	t.Helper()
	f, err := schema.LoadFile(filepath.Join("..", "..", "testdata", "features", "welcome.wizard.yaml"))
	if err != nil {
		t.Fatalf("load feature: %v", err)
	}
	w, err := wizard.New(wizard.Config{
		Feature:   f,
		GuildID:   "g1",
		Renderer:  wizard.Funcs{},
		Persister: store,
	})
	if err != nil {
		t.Fatalf("wizard.New: %v", err)
	}
	return w
}

func submit(t *testing.T, m *Manager, v *View, payload any) *View {
	t.Helper()
	next, err := m.Handle(context.Background(), v.ID, wizard.Callback{
		Action:  wizard.ActionSubmit,
		StepKey: v.Prompt.StepKey,
		Payload: payload,
	})
	if err != nil {
		t.Fatalf("submit %s: %v", v.Prompt.StepKey, err)
	}
	return next
}

func TestTimeoutDiscardsWithoutUpsert(t *testing.T) {
	store := &countingStore{}
	m := NewManager(time.Minute, nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	v, err := m.Open(context.Background(), newWizard(t, store), "op")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	v = submit(t, m, v, nil)   // intro
	v = submit(t, m, v, "100") // channel
	if v.Prompt.StepKey != "message" {
		t.Fatalf("prompt = %q, want message", v.Prompt.StepKey)
	}

	if n := m.Sweep(context.Background(), clock.Add(30*time.Second)); n != 0 {
		t.Fatalf("early sweep discarded %d conversations", n)
	}
	if n := m.Sweep(context.Background(), clock.Add(2*time.Minute)); n != 1 {
		t.Fatalf("sweep discarded %d conversations, want 1", n)
	}
	if store.calls != 0 {
		t.Fatalf("upsert calls = %d, want 0", store.calls)
	}
	if _, err := m.Get(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after timeout = %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestCallbackRefreshesIdleClock(t *testing.T) {
	m := NewManager(time.Minute, nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	v, err := m.Open(context.Background(), newWizard(t, &countingStore{}), "op")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	clock = clock.Add(50 * time.Second)
	submit(t, m, v, nil)

	if n := m.Sweep(context.Background(), clock.Add(30*time.Second)); n != 0 {
		t.Errorf("sweep discarded an active conversation")
	}
}

func TestCompletedConversationIsDiscarded(t *testing.T) {
	store := &countingStore{}
	m := NewManager(0, nil)
	v, err := m.Open(context.Background(), newWizard(t, store), "op")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, payload := range []any{
		nil,
		"100",
		map[string]any{"heading": "Hi", "body": "there"},
		"plain",
		[]string{"5"},
		"red",
	} {
		v = submit(t, m, v, payload)
	}
	v = submit(t, m, v, nil) // confirm

	if !v.Terminal() || v.Phase != wizard.PhaseCompiled.String() {
		t.Fatalf("phase = %s, want compiled", v.Phase)
	}
	if v.Result["color"].Value != "red" {
		t.Errorf("result color = %v", v.Result["color"].Value)
	}
	if store.calls != 1 {
		t.Errorf("upsert calls = %d, want 1", store.calls)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestCancelAndUnknownID(t *testing.T) {
	m := NewManager(0, nil)
	v, err := m.Open(context.Background(), newWizard(t, &countingStore{}), "op")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	v, err = m.Cancel(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if v.Phase != wizard.PhaseAbandoned.String() || v.Error == "" {
		t.Errorf("view after cancel = %+v", v)
	}
	if _, err := m.Cancel(context.Background(), v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second cancel = %v, want ErrNotFound", err)
	}
	if _, err := m.Handle(context.Background(), "missing", wizard.Callback{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id = %v, want ErrNotFound", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	m := NewManager(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
