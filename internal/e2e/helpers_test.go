package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"promptq/internal/backend"
	"promptq/internal/config"
	"promptq/internal/httpapi"
	"promptq/internal/queue"
	"promptq/internal/registry"
	"promptq/pkg/types"
)

// fakeOllama answers /api/chat with a streamed echo, optionally delayed per
// prompt, and records the maximum number of concurrent calls.
type fakeOllama struct {
	*httptest.Server
	delay    func(prompt string) time.Duration
	inflight atomic.Int32
	max      atomic.Int32
	mu       sync.Mutex
	order    []string
}

func newFakeOllama(t *testing.T, delay func(string) time.Duration) *fakeOllama {
	t.Helper()
	f := &fakeOllama{delay: delay}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOllama) serve(w http.ResponseWriter, r *http.Request) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.max.Load()
		if n <= m || f.max.CompareAndSwap(m, n) {
			break
		}
	}
	var req struct {
		Messages []struct{ Content string } `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	prompt := req.Messages[len(req.Messages)-1].Content
	f.mu.Lock()
	f.order = append(f.order, prompt)
	f.mu.Unlock()
	if f.delay != nil {
		select {
		case <-time.After(f.delay(prompt)):
		case <-r.Context().Done():
			return
		}
	}
	fmt.Fprintf(w, "{\"message\":{\"content\":\"<think>...</think>\"}}\n")
	fmt.Fprintf(w, "not json\n")
	fmt.Fprintf(w, "{\"message\":{\"content\":%q},\"done\":true}\n", "echo "+prompt)
}

// fakeOpenRouter always reports a rate limit.
func newFakeOpenRouter(t *testing.T, resetMs int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprintf(w, `{"error":{"message":"Rate limit exceeded","metadata":{"headers":{"X-RateLimit-Reset":"%d"}}}}`, resetMs)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newStack wires registry, queue and HTTP API the way promptqd serve does.
func newStack(t *testing.T, cfg config.Config, deadline time.Duration) (*httptest.Server, *queue.Queue) {
	t.Helper()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	router, err := registry.Build(cfg, registry.Options{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	q, err := queue.New(queue.Config{
		Router:       router,
		Settings:     backend.ProviderConfig{Provider: cfg.Provider},
		Deadline:     deadline,
		IdleInterval: 5 * time.Millisecond,
		Location:     time.UTC,
	})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := q.Start(ctx)
	srv := httptest.NewServer(httpapi.NewMux(q))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, q
}

func postPrompt(t *testing.T, base, prompt string) []types.PromptEvent {
	t.Helper()
	body, _ := json.Marshal(types.PromptRequest{ID: prompt, Prompt: prompt})
	resp, err := http.Post(base+"/prompt", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Errorf("post: %v", err)
		return nil
	}
	defer resp.Body.Close()
	var out []types.PromptEvent
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var ev types.PromptEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Errorf("line %q: %v", sc.Text(), err)
			return out
		}
		out = append(out, ev)
	}
	return out
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
