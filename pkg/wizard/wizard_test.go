package wizard

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ormasoftchile/guildwiz/pkg/normalize"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// --- fakes ---

type recorder struct {
	prompts   []*Prompt
	done      []Record
	abandoned []error
}

func (r *recorder) renderer() Funcs {
	return Funcs{
		Prompt: func(_ context.Context, p *Prompt) error {
			r.prompts = append(r.prompts, p)
			return nil
		},
		Done: func(_ context.Context, rec Record) error {
			r.done = append(r.done, rec)
			return nil
		},
		Abandoned: func(_ context.Context, reason error) error {
			r.abandoned = append(r.abandoned, reason)
			return nil
		},
	}
}

func (r *recorder) last() *Prompt {
	if len(r.prompts) == 0 {
		return nil
	}
	return r.prompts[len(r.prompts)-1]
}

func (r *recorder) count(kind schema.StepKind) int {
	n := 0
	for _, p := range r.prompts {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

type memStore struct {
	recs  map[string]Record
	calls int
	err   error
}

func newMemStore() *memStore { return &memStore{recs: map[string]Record{}} }

func (m *memStore) Upsert(_ context.Context, guildID, featureKey string, rec Record) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.recs[guildID+"/"+featureKey] = rec
	return nil
}

func (m *memStore) Read(_ context.Context, guildID, featureKey string) (Record, bool, error) {
	rec, ok := m.recs[guildID+"/"+featureKey]
	return rec, ok, nil
}

type countingObserver struct {
	nopObserver
	skipped  []string
	previews []string
}

func (o *countingObserver) StepSkipped(_ string, step string) { o.skipped = append(o.skipped, step) }
func (o *countingObserver) PreviewFailed(_ string, design string) {
	o.previews = append(o.previews, design)
}

// --- helpers ---

func loadFeature(t *testing.T, name string) *schema.Feature {
	t.Helper()
	f, err := schema.LoadFile(filepath.Join("..", "..", "testdata", "features", name+".wizard.yaml"))
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return f
}

type harness struct {
	t     *testing.T
	w     *Wizard
	rec   *recorder
	store *memStore
}

func start(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{t: t, rec: &recorder{}, store: newMemStore()}
	if cfg.Persister == nil {
		cfg.Persister = h.store
	} else if s, ok := cfg.Persister.(*memStore); ok {
		h.store = s
	}
	cfg.Renderer = h.rec.renderer()
	if cfg.GuildID == "" {
		cfg.GuildID = "g1"
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.w = w
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h
}

func (h *harness) expect(key string) *Prompt {
	h.t.Helper()
	p := h.rec.last()
	if p == nil {
		h.t.Fatalf("expected prompt %q, nothing rendered", key)
	}
	if p.StepKey != key {
		h.t.Fatalf("expected prompt %q, got %q (%s)", key, p.StepKey, p.Kind)
	}
	return p
}

func (h *harness) send(action Action, payload any) error {
	p := h.rec.last()
	return h.w.Handle(context.Background(), Callback{Action: action, StepKey: p.StepKey, Payload: payload})
}

func (h *harness) submit(key string, payload any) {
	h.t.Helper()
	h.expect(key)
	if err := h.send(ActionSubmit, payload); err != nil {
		h.t.Fatalf("submit %s: %v", key, err)
	}
}

func (h *harness) back(key string) {
	h.t.Helper()
	h.expect(key)
	if err := h.send(ActionBack, nil); err != nil {
		h.t.Fatalf("back from %s: %v", key, err)
	}
}

var message = map[string]any{
	"heading":           "Welcome {user}!",
	"body":              "Read the rules.",
	normalize.ConcatKey: "See you;icon.png",
}

// --- tests ---

func TestWelcomeHappyPath(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})

	p := h.expect("intro")
	if p.Title != "Welcome setup" {
		t.Errorf("intro title = %q", p.Title)
	}
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", message)
	h.submit("welcomeDesign", "customBlur")
	h.submit("background", "https://example.com/bg.png")
	h.submit("pingRoles", []string{"7", "8"})
	h.submit("color", "green")

	p = h.expect("done")
	if len(p.Summary) != 6 {
		t.Errorf("summary has %d answers, want 6", len(p.Summary))
	}
	h.submit("done", nil)

	if h.w.Phase() != PhaseCompiled {
		t.Fatalf("phase = %s, want compiled", h.w.Phase())
	}
	if h.store.calls != 1 {
		t.Fatalf("upsert calls = %d, want 1", h.store.calls)
	}
	got := h.store.recs["g1/welcome"]
	want := Record{
		"channel":       {Value: "100", Title: "Channel"},
		"message":       {Value: message, Title: "Message"},
		"welcomeDesign": {Value: "customBlur", Title: "Design"},
		"background":    {Value: "https://example.com/bg.png"},
		"pingRoles":     {Value: []string{"7", "8"}},
		"color":         {Value: "green", Style: "accent"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if len(h.rec.done) != 1 {
		t.Errorf("RenderDone calls = %d, want 1", len(h.rec.done))
	}
}

func TestUpsertByKeyKeepsLastAnswer(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", message)
	h.submit("welcomeDesign", "plain")
	h.submit("pingRoles", []string{"7"})
	h.submit("color", "red")
	h.back("done")

	p := h.expect("color")
	if got := p.Choice.Chosen(); !cmp.Equal(got, []string{"red"}) {
		t.Errorf("color prefill = %v, want [red]", got)
	}
	h.submit("color", "blue")
	h.submit("done", nil)

	colors := 0
	for _, a := range h.w.log {
		if a.Key == "color" {
			colors++
		}
	}
	if colors != 2 {
		t.Fatalf("answer log holds %d color answers, want 2", colors)
	}
	rec := h.store.recs["g1/welcome"]
	if rec["color"].Value != "blue" {
		t.Errorf("color = %v, want blue", rec["color"].Value)
	}
	for _, a := range h.w.Answers() {
		if a.Key == "color" && a.Raw != "blue" {
			t.Errorf("stale color answer %v survived", a.Raw)
		}
	}
}

func TestCompileLastWriteWins(t *testing.T) {
	rec := Compile([]Answer{
		{Key: "k", Raw: "first"},
		{Key: "other", Raw: 1},
		{Key: "k", Raw: "second", Title: "K"},
	})
	want := Record{"k": {Value: "second", Title: "K"}, "other": {Value: 1}}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Compile (-want +got):\n%s", diff)
	}

	deduped := Dedupe([]Answer{{Key: "a", Raw: 1}, {Key: "b", Raw: 2}, {Key: "a", Raw: 3}})
	if diff := cmp.Diff([]Answer{{Key: "a", Raw: 3}, {Key: "b", Raw: 2}}, deduped); diff != "" {
		t.Errorf("Dedupe (-want +got):\n%s", diff)
	}
}

func TestConditionUsesLatestAnswer(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", message)
	h.submit("welcomeDesign", "customBlur")
	h.back("background")

	p := h.expect("welcomeDesign")
	if !p.Prefilled || p.Design.Selected != "customBlur" {
		t.Fatalf("design prefill = %q (prefilled %v), want customBlur", p.Design.Selected, p.Prefilled)
	}
	h.submit("welcomeDesign", "serverBlur")

	// background is conditioned notIn [serverBlur, plain]
	h.expect("pingRoles")
}

func TestSkippedStepAnswerIsRetracted(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", message)
	h.submit("welcomeDesign", "customBlur")
	h.submit("background", "https://example.com/bg.png")
	h.back("pingRoles")
	h.back("background")
	h.submit("welcomeDesign", "plain")
	h.submit("pingRoles", []string{"7"})
	h.submit("color", "red")
	h.submit("done", nil)

	rec := h.store.recs["g1/welcome"]
	if _, ok := rec["background"]; ok {
		t.Errorf("background was compiled although its step is now hidden: %v", rec["background"])
	}
	if rec["welcomeDesign"].Value != "plain" {
		t.Errorf("welcomeDesign = %v, want plain", rec["welcomeDesign"].Value)
	}
}

func TestCannotGoBackPastStart(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	if h.expect("intro").CanGoBack {
		t.Error("intro reports CanGoBack")
	}
	h.submit("intro", nil)

	p := h.expect("channel")
	if p.CanGoBack {
		t.Error("step after start reports CanGoBack")
	}
	h.back("channel")
	h.expect("channel")
	if h.w.Phase() != PhaseAwaiting {
		t.Errorf("phase = %s, want awaiting", h.w.Phase())
	}
}

func TestCompositionBoundedByCap(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "socialfeeds")})
	h.submit("intro", nil)
	h.submit("platform", "twitch")

	for i := 0; i < 3; i++ {
		p := h.expect("account")
		if want := fmt.Sprintf("targets[%d]", i); p.Path != want {
			t.Fatalf("entry path = %q, want %q", p.Path, want)
		}
		h.submit("account", map[string]any{"name": fmt.Sprintf("streamer%d", i)})
		h.submit("target", fmt.Sprintf("%d", 10+i))
		h.submit("mention", "here")

		if h.rec.last().StepKey != "targets" {
			// the cap forced the list to finish
			break
		}
		p = h.rec.last()
		if p.Continue == nil || p.Continue.Count != i+1 || p.Continue.Cap != 2 {
			t.Fatalf("continue prompt = %+v", p.Continue)
		}
		if err := h.send(ActionMore, nil); err != nil {
			t.Fatalf("more: %v", err)
		}
	}

	h.expect("done")
	if n := h.rec.count(schema.KindComposition); n != 1 {
		t.Errorf("continue prompts = %d, want 1", n)
	}
	h.submit("done", nil)

	entries, ok := h.store.recs["g1/socialfeeds"]["targets"].Value.([]Record)
	if !ok {
		t.Fatalf("targets = %T, want []Record", h.store.recs["g1/socialfeeds"]["targets"].Value)
	}
	if len(entries) != 2 {
		t.Fatalf("targets has %d entries, want 2", len(entries))
	}
	if entries[1]["target"].Value != "11" {
		t.Errorf("second entry target = %v, want 11", entries[1]["target"].Value)
	}
}

func TestCompositionStopAndNestedCondition(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "socialfeeds")})
	h.submit("intro", nil)
	h.submit("platform", "youtube")
	h.submit("account", map[string]any{"name": "chan"})
	h.submit("target", "10")

	// mention only applies to twitch
	p := h.expect("targets")
	if p.Continue == nil {
		t.Fatal("expected continue prompt")
	}
	if err := h.send(ActionStop, nil); err != nil {
		t.Fatalf("stop: %v", err)
	}
	h.submit("done", nil)

	entries := h.store.recs["g1/socialfeeds"]["targets"].Value.([]Record)
	want := []Record{{
		"account": {Value: map[string]any{"name": "chan"}},
		"target":  {Value: "10"},
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
}

func TestCompositionBackReopensPreviousEntry(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "socialfeeds")})
	h.submit("intro", nil)
	h.submit("platform", "youtube")
	h.submit("account", map[string]any{"name": "first"})
	h.submit("target", "10")
	if err := h.send(ActionMore, nil); err != nil {
		t.Fatalf("more: %v", err)
	}
	h.back("account")

	p := h.expect("account")
	if p.Path != "targets[0]" {
		t.Fatalf("path = %q, want targets[0]", p.Path)
	}
	if !p.Prefilled || p.Text[0].Value != "first" {
		t.Errorf("entry 0 not prefilled: %+v", p.Text)
	}

	// Back on the first entry leaves the composition
	h.back("account")
	h.expect("platform")
}

func TestCompositionCapZeroPassesThrough(t *testing.T) {
	f := loadFeature(t, "socialfeeds")
	caps := schema.CapsFor(f, nil).Merge(map[string]int{"targets": 0})
	h := start(t, Config{Feature: f, Caps: caps})
	h.submit("intro", nil)
	h.submit("platform", "twitch")
	h.expect("done")
	if n := h.rec.count(schema.KindComposition); n != 0 {
		t.Errorf("continue prompts = %d, want 0", n)
	}
	h.submit("done", nil)

	got := h.store.recs["g1/socialfeeds"]["targets"].Value
	if entries, ok := got.([]Record); !ok || len(entries) != 0 {
		t.Errorf("targets = %#v, want empty list", got)
	}
}

func TestEditRoundTrip(t *testing.T) {
	store := newMemStore()
	store.recs["g1/welcome"] = Record{
		"channel":       {Value: "100", Title: "Channel"},
		"welcomeDesign": {Value: "plain"},
		"color":         {Value: "red", Style: "accent"},
	}

	rec := &recorder{}
	w, err := Load(context.Background(), store, Config{
		Feature:   loadFeature(t, "welcome"),
		GuildID:   "g1",
		Renderer:  rec.renderer(),
		Persister: store,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := &harness{t: t, w: w, rec: rec, store: store}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.submit("intro", nil)
	p := h.expect("channel")
	if !p.Prefilled || !cmp.Equal(p.Resource.Selected, []string{"100"}) {
		t.Errorf("channel prefill = %v", p.Resource.Selected)
	}
	h.submit("channel", "100")
	h.submit("message", message)
	p = h.expect("welcomeDesign")
	if p.Design.Selected != "plain" {
		t.Errorf("design prefill = %q, want plain", p.Design.Selected)
	}
	h.submit("welcomeDesign", "plain")
	h.submit("pingRoles", []string{"7"})
	p = h.expect("color")
	if got := p.Choice.Chosen(); !cmp.Equal(got, []string{"red"}) {
		t.Errorf("color prefill = %v, want [red]", got)
	}
	h.submit("color", "blue")
	h.submit("done", nil)

	got := store.recs["g1/welcome"]
	if got["color"].Value != "blue" {
		t.Fatalf("color = %v, want blue", got["color"].Value)
	}
	for k, e := range got {
		if e.Value == "red" {
			t.Errorf("stale red value kept under %q", k)
		}
	}
}

func TestTimeoutNeverUpserts(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	h.submit("intro", nil)
	h.submit("channel", "100")

	if err := h.w.Abandon(context.Background(), ErrTimeout); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if h.store.calls != 0 {
		t.Fatalf("upsert calls = %d, want 0", h.store.calls)
	}
	if h.w.Phase() != PhaseAbandoned || !errors.Is(h.w.Err(), ErrTimeout) {
		t.Errorf("phase = %s err = %v", h.w.Phase(), h.w.Err())
	}
	if err := h.send(ActionSubmit, "x"); !errors.Is(err, ErrFinished) {
		t.Errorf("callback after timeout = %v, want ErrFinished", err)
	}
}

func TestCancelFromComposition(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "socialfeeds")})
	h.submit("intro", nil)
	h.submit("platform", "twitch")
	h.expect("account")
	if err := h.send(ActionCancel, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if h.w.Phase() != PhaseAbandoned || !errors.Is(h.w.Err(), ErrCancelled) {
		t.Errorf("phase = %s err = %v", h.w.Phase(), h.w.Err())
	}
	if h.store.calls != 0 {
		t.Errorf("upsert calls = %d, want 0", h.store.calls)
	}
	if len(h.rec.abandoned) != 1 {
		t.Errorf("RenderAbandoned calls = %d, want 1", len(h.rec.abandoned))
	}
}

func TestPersistFailureAbandons(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	h := start(t, Config{Feature: loadFeature(t, "socialfeeds"), Persister: store})
	h.submit("intro", nil)
	h.submit("platform", "youtube")
	h.submit("account", map[string]any{"name": "x"})
	h.submit("target", "1")
	if err := h.send(ActionStop, nil); err != nil {
		t.Fatalf("stop: %v", err)
	}

	err := h.send(ActionSubmit, nil)
	if !errors.Is(err, ErrNotSaved) {
		t.Fatalf("confirm error = %v, want ErrNotSaved", err)
	}
	if h.w.Phase() != PhaseAbandoned {
		t.Errorf("phase = %s, want abandoned", h.w.Phase())
	}
	if len(h.rec.done) != 0 {
		t.Error("RenderDone called after failed upsert")
	}
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name string
		cb   func(p *Prompt) Callback
	}{
		{"stale step", func(p *Prompt) Callback { return Callback{Action: ActionSubmit, StepKey: "intro", Payload: "1"} }},
		{"unknown option", func(p *Prompt) Callback { return Callback{Action: ActionSubmit, StepKey: p.StepKey, Payload: "purple"} }},
		{"two options", func(p *Prompt) Callback {
			return Callback{Action: ActionSubmit, StepKey: p.StepKey, Payload: []string{"red", "blue"}}
		}},
		{"bad payload", func(p *Prompt) Callback { return Callback{Action: ActionSubmit, StepKey: p.StepKey, Payload: 42} }},
		{"continue on plain step", func(p *Prompt) Callback { return Callback{Action: ActionMore, StepKey: p.StepKey} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := start(t, Config{Feature: loadFeature(t, "welcome")})
			h.submit("intro", nil)
			h.submit("channel", "100")
			h.submit("message", message)
			h.submit("welcomeDesign", "plain")
			h.submit("pingRoles", []string{"7"})
			p := h.expect("color")

			err := h.w.Handle(context.Background(), tt.cb(p))
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("err = %v, want ErrTransport", err)
			}
			if h.w.Phase() != PhaseAbandoned {
				t.Errorf("phase = %s, want abandoned", h.w.Phase())
			}
			if h.store.calls != 0 {
				t.Errorf("upsert calls = %d, want 0", h.store.calls)
			}
		})
	}
}

func TestSchemaErrorAtConstruction(t *testing.T) {
	f := loadFeature(t, "socialfeeds")
	f.Steps[2].ParentKey = "unregistered"
	_, err := New(Config{Feature: f, Renderer: Funcs{}, Persister: newMemStore()})
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}

type fakePreviewer struct{ fail map[string]bool }

func (p fakePreviewer) Preview(_ context.Context, d schema.Option, _ []Answer) (string, error) {
	if p.fail[d.Value] {
		return "", errors.New("no image")
	}
	return "preview:" + d.Value, nil
}

func TestDesignPreviewFailureIsSkipped(t *testing.T) {
	obs := &countingObserver{}
	h := start(t, Config{
		Feature:   loadFeature(t, "welcome"),
		Previewer: fakePreviewer{fail: map[string]bool{"serverBlur": true}},
		Observer:  obs,
	})
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", message)

	p := h.expect("welcomeDesign")
	want := map[string]string{"customBlur": "preview:customBlur", "plain": "preview:plain"}
	if diff := cmp.Diff(want, p.Design.Previews); diff != "" {
		t.Errorf("previews (-want +got):\n%s", diff)
	}
	if !cmp.Equal(obs.previews, []string{"serverBlur"}) {
		t.Errorf("failed previews = %v", obs.previews)
	}
}

func loadDoc(t *testing.T, doc string) *schema.Feature {
	t.Helper()
	f, err := schema.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return f
}

const tagsDoc = `apiVersion: wizard/v0
feature: tags
steps:
  - key: tags
    kind: singleChoice
    multi: true
    options:
      - { value: a, label: A }
      - { value: b, label: B }
  - key: extra
    kind: freeText
    condition: { key: tags, match: in, values: [b] }
    fields:
      - { key: note, label: Note }
  - key: roles
    kind: resourceSelect
    resource: { type: role, multi: true }
  - key: ping
    kind: singleChoice
    condition: { key: roles, match: in, values: ["2"] }
    options:
      - { value: now, label: Now }
`

func TestDelimitedStringAnswers(t *testing.T) {
	h := start(t, Config{Feature: loadDoc(t, tagsDoc)})
	h.submit("tags", "a;b")
	h.submit("extra", map[string]any{"note": "hi"})
	h.submit("roles", "1;2")
	h.submit("ping", "now")

	if h.w.Phase() != PhaseCompiled {
		t.Fatalf("phase = %s, want compiled", h.w.Phase())
	}
	rec := h.store.recs["g1/tags"]
	if rec["tags"].Value != "a;b" || rec["roles"].Value != "1;2" {
		t.Errorf("record = %v", rec)
	}
}

func TestDelimitedStringUnknownOption(t *testing.T) {
	h := start(t, Config{Feature: loadDoc(t, tagsDoc)})
	h.expect("tags")
	if err := h.send(ActionSubmit, "a;c"); !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestRequiredValues(t *testing.T) {
	tests := []struct {
		name    string
		step    string
		payload any
	}{
		{"empty heading", "message", map[string]any{"heading": "", "body": "Body"}},
		{"blank body", "message", map[string]any{"heading": "Hi", "body": "  "}},
		{"missing body", "message", map[string]any{"heading": "Hi"}},
		{"no channel", "channel", ""},
		{"no roles", "pingRoles", []string{}},
		{"numeric role id", "pingRoles", []any{float64(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := start(t, Config{Feature: loadFeature(t, "welcome")})
			h.submit("intro", nil)
			if tt.step != "channel" {
				h.submit("channel", "100")
			}
			if tt.step == "pingRoles" {
				h.submit("message", message)
				h.submit("welcomeDesign", "plain")
			}
			h.expect(tt.step)

			err := h.send(ActionSubmit, tt.payload)
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("err = %v, want ErrTransport", err)
			}
			if h.w.Phase() != PhaseAbandoned {
				t.Errorf("phase = %s, want abandoned", h.w.Phase())
			}
			if h.store.calls != 0 {
				t.Errorf("upsert calls = %d, want 0", h.store.calls)
			}
		})
	}
}

func TestOptionalFieldsMayBeEmpty(t *testing.T) {
	h := start(t, Config{Feature: loadFeature(t, "welcome")})
	h.submit("intro", nil)
	h.submit("channel", "100")
	h.submit("message", map[string]any{"heading": "Hi", "body": "Body", normalize.ConcatKey: ""})
	h.expect("welcomeDesign")
}
