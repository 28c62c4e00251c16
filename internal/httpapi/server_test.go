package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"promptq/internal/backend"
	"promptq/internal/queue"
	"promptq/pkg/types"
)

type mockService struct {
	mu        sync.Mutex
	settings  backend.ProviderConfig
	providers []string
	models    []string
	modelsErr error
	status    types.StatusResponse
	ready     bool
	// outcome is delivered synchronously from Submit when set.
	outcome  *queue.Delivery
	requests []queue.Request
}

func (m *mockService) Submit(req queue.Request, deliver queue.DeliverFunc) int {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	n := len(m.requests)
	m.mu.Unlock()
	if m.outcome != nil {
		if req.OnStart != nil {
			req.OnStart(0)
		}
		d := *m.outcome
		d.RequestID = req.ID
		deliver(d)
	}
	return n
}
func (m *mockService) Settings() backend.ProviderConfig { return m.settings }
func (m *mockService) UpdateSettings(u types.SettingsUpdate) (backend.ProviderConfig, error) {
	if u.Provider != nil {
		if *u.Provider != "ollama" && *u.Provider != "deepseek" {
			return m.settings, backend.ErrUnknownProvider(*u.Provider)
		}
		m.settings.Provider = *u.Provider
	}
	if u.Model != nil {
		m.settings.Model = *u.Model
	}
	return m.settings, nil
}
func (m *mockService) Providers() []string                        { return m.providers }
func (m *mockService) Models(context.Context) ([]string, error)  { return m.models, m.modelsErr }
func (m *mockService) Status() types.StatusResponse               { return m.status }
func (m *mockService) Ready() bool                                { return m.ready }

func readEvents(t *testing.T, body string) []types.PromptEvent {
	t.Helper()
	var out []types.PromptEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var ev types.PromptEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, ev)
	}
	return out
}

func postPrompt(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPromptStreamsLifecycle(t *testing.T) {
	svc := &mockService{outcome: &queue.Delivery{Outcome: queue.OutcomeSuccess, Text: "hi", Segments: []string{"hi"}, Provider: "ollama"}}
	w := postPrompt(NewMux(svc), `{"id":"m1","prompt":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content-type=%s", ct)
	}
	evs := readEvents(t, w.Body.String())
	if len(evs) != 3 {
		t.Fatalf("events=%+v", evs)
	}
	if evs[0].Type != types.EventQueued || evs[0].Position != 1 || evs[0].ID != "m1" {
		t.Fatalf("queued=%+v", evs[0])
	}
	if evs[1].Type != types.EventStarted || evs[1].Ahead == nil || *evs[1].Ahead != 0 {
		t.Fatalf("started=%+v", evs[1])
	}
	if evs[2].Type != types.EventSuccess || evs[2].Text != "hi" || evs[2].Provider != "ollama" {
		t.Fatalf("final=%+v", evs[2])
	}
}

func TestPromptRateLimitedEvent(t *testing.T) {
	reset := time.UnixMilli(1700000000000)
	svc := &mockService{outcome: &queue.Delivery{Outcome: queue.OutcomeRateLimited, ResetAt: reset, Text: "limited"}}
	evs := readEvents(t, postPrompt(NewMux(svc), `{"prompt":"hello"}`).Body.String())
	last := evs[len(evs)-1]
	if last.Type != types.EventRateLimited || last.ResetAtUnixMs != 1700000000000 {
		t.Fatalf("final=%+v", last)
	}
	if len(evs[0].ID) != 36 {
		t.Fatalf("expected generated id, got %q", evs[0].ID)
	}
}

func TestPromptValidation(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(`{"prompt":"x"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content-type: status=%d", w.Code)
	}
	if w := postPrompt(h, `{"prompt":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", w.Code)
	}
	if w := postPrompt(h, `{"prompt":"   "}`); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "prompt is required") {
		t.Fatalf("empty prompt: status=%d body=%s", w.Code, w.Body.String())
	}
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	if w := postPrompt(h, `{"prompt":"`+strings.Repeat("a", 64)+`"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized: status=%d", w.Code)
	}
}

func TestPromptClientDisconnect(t *testing.T) {
	svc := &mockService{} // never delivers
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(`{"prompt":"x"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		NewMux(svc).ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("handler did not return after disconnect")
	}
	if len(svc.requests) != 1 {
		t.Fatalf("request not submitted")
	}
}

func TestSettingsHandlers(t *testing.T) {
	svc := &mockService{settings: backend.ProviderConfig{Provider: "ollama", SystemPrompt: "sys"}}
	h := NewMux(svc)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
	var s types.SettingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil || s.Provider != "ollama" || s.SystemPrompt != "sys" {
		t.Fatalf("get: %+v err=%v", s, err)
	}

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	if w := put(`{"provider":"gpt"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown provider: status=%d", w.Code)
	}
	w = put(`{"provider":"deepseek","model":"r1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil || s.Provider != "deepseek" || s.Model != "r1" {
		t.Fatalf("put: %+v err=%v", s, err)
	}
}

func TestProvidersAndModels(t *testing.T) {
	svc := &mockService{settings: backend.ProviderConfig{Provider: "ollama"}, providers: []string{"deepseek", "ollama"}, models: []string{"m1"}}
	h := NewMux(svc)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers", nil))
	var p types.ProvidersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil || len(p.Providers) != 2 || p.Current != "ollama" {
		t.Fatalf("providers: %+v err=%v", p, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	var m types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil || m.Provider != "ollama" || len(m.Models) != 1 {
		t.Fatalf("models: %+v err=%v", m, err)
	}

	svc.modelsErr = backend.ErrNotSupported
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("unsupported: status=%d", w.Code)
	}
	svc.modelsErr = errors.New("connection refused")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("backend down: status=%d", w.Code)
	}
}

func TestStatusAndProbes(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Pending: 3, Busy: true}}
	h := NewMux(svc)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.Pending != 3 || !st.Busy {
		t.Fatalf("status: %+v err=%v", st, err)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready: %d", w.Code)
	}
	svc.ready = true
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz ready: %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("security header = %q", got)
	}
}

type echoAdapter struct{}

func (echoAdapter) Name() string { return "echo" }
func (echoAdapter) Execute(_ context.Context, prompt string, _ backend.ProviderConfig) backend.Result {
	return backend.Success("<think>x</think>" + prompt)
}

// TestPromptThroughQueue exercises the handler against a running queue.
func TestPromptThroughQueue(t *testing.T) {
	r := backend.NewRouter()
	r.Register("echo", echoAdapter{})
	q, err := queue.New(queue.Config{Router: r, Settings: backend.ProviderConfig{Provider: "echo"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := q.Start(ctx)
	defer func() { cancel(); <-done }()

	srv := httptest.NewServer(NewMux(q))
	defer srv.Close()
	resp, err := http.Post(srv.URL+"/prompt", "application/json", strings.NewReader(`{"prompt":"pong"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var last types.PromptEvent
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if err := json.Unmarshal(sc.Bytes(), &last); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
	}
	if last.Type != types.EventSuccess || last.Text != "pong" {
		t.Fatalf("final=%+v", last)
	}
}
