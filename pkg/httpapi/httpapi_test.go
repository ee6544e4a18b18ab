package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ormasoftchile/guildwiz/pkg/metrics"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/store"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	features, err := schema.LoadDir("../../testdata/features")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	m := metrics.New()
	svc, err := service.New(service.Options{Features: features, Store: store.NewMemory(), Observer: m})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return New(Options{Service: svc, Metrics: m.Handler()})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OperatorHeader, "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) session.View {
	t.Helper()
	var v session.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v\n%s", err, w.Body.String())
	}
	return v
}

func TestConversationLifecycle(t *testing.T) {
	r := newRouter(t)

	w := do(t, r, http.MethodPost, "/v1/conversations", `{"feature":"welcome","guild":"g1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	v := decodeView(t, w)
	if v.Prompt == nil || v.Prompt.StepKey != "intro" {
		t.Fatalf("first prompt = %+v", v.Prompt)
	}

	w = do(t, r, http.MethodPost, "/v1/conversations/"+v.ID+"/callback", `{"action":"submit","step":"intro"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("callback status = %d: %s", w.Code, w.Body.String())
	}
	if got := decodeView(t, w).Prompt.StepKey; got != "channel" {
		t.Errorf("after intro step = %q, want channel", got)
	}

	w = do(t, r, http.MethodGet, "/v1/conversations/"+v.ID, "")
	if w.Code != http.StatusOK || decodeView(t, w).Prompt.StepKey != "channel" {
		t.Errorf("get = %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodDelete, "/v1/conversations/"+v.ID, "")
	if w.Code != http.StatusOK || decodeView(t, w).Phase != "abandoned" {
		t.Errorf("cancel = %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/v1/conversations/"+v.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after cancel = %d, want 404", w.Code)
	}
}

func TestCompleteAndShow(t *testing.T) {
	r := newRouter(t)
	v := decodeView(t, do(t, r, http.MethodPost, "/v1/conversations", `{"feature":"welcome","guild":"g2"}`))

	steps := []string{
		`{"action":"submit","step":"intro"}`,
		`{"action":"submit","step":"channel","payload":"100"}`,
		`{"action":"submit","step":"message","payload":{"heading":"Hi","body":"Welcome"}}`,
		`{"action":"submit","step":"welcomeDesign","payload":"plain"}`,
		`{"action":"submit","step":"pingRoles","payload":["7"]}`,
		`{"action":"submit","step":"color","payload":"green"}`,
		`{"action":"submit","step":"done"}`,
	}
	var last session.View
	for _, body := range steps {
		w := do(t, r, http.MethodPost, "/v1/conversations/"+v.ID+"/callback", body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d %s", body, w.Code, w.Body.String())
		}
		last = decodeView(t, w)
	}
	if last.Phase != "compiled" {
		t.Fatalf("phase = %s, want compiled", last.Phase)
	}

	w := do(t, r, http.MethodGet, "/v1/guilds/g2/features/welcome", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"green"`) {
		t.Errorf("show = %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), "guildwiz_conversations_finished_total") {
		t.Errorf("metrics missing finished counter:\n%s", w.Body.String())
	}
}

func TestStaleCallbackAbandons(t *testing.T) {
	r := newRouter(t)
	v := decodeView(t, do(t, r, http.MethodPost, "/v1/conversations", `{"feature":"welcome","guild":"g1"}`))

	w := do(t, r, http.MethodPost, "/v1/conversations/"+v.ID+"/callback", `{"action":"submit","step":"color","payload":"red"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeView(t, w)
	if got.Phase != "abandoned" || !strings.Contains(got.Error, "callback") {
		t.Errorf("view = %+v, want abandoned with a callback error", got)
	}
}

func TestErrors(t *testing.T) {
	r := newRouter(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown feature", http.MethodPost, "/v1/conversations", `{"feature":"nope","guild":"g1"}`, http.StatusNotFound, CodeNotFound},
		{"missing guild", http.MethodPost, "/v1/conversations", `{"feature":"welcome"}`, http.StatusBadRequest, CodeBadRequest},
		{"bad json", http.MethodPost, "/v1/conversations", `{`, http.StatusBadRequest, CodeBadRequest},
		{"unknown conversation", http.MethodPost, "/v1/conversations/x/callback", `{"action":"submit"}`, http.StatusNotFound, CodeNotFound},
		{"nothing saved", http.MethodGet, "/v1/guilds/g9/features/welcome", "", http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestFeaturesAndHealth(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodGet, "/v1/features", "")
	if !strings.Contains(w.Body.String(), `"socialfeeds"`) || !strings.Contains(w.Body.String(), `"welcome"`) {
		t.Errorf("features = %s", w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}
