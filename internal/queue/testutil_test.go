package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"promptq/internal/backend"
)

// scriptAdapter runs fn for every call and records concurrency.
type scriptAdapter struct {
	name     string
	fn       func(ctx context.Context, prompt string, cfg backend.ProviderConfig) backend.Result
	inflight atomic.Int32
	maxSeen  atomic.Int32

	mu      sync.Mutex
	prompts []string
	configs []backend.ProviderConfig
}

func (a *scriptAdapter) Name() string { return a.name }

func (a *scriptAdapter) Execute(ctx context.Context, prompt string, cfg backend.ProviderConfig) backend.Result {
	n := a.inflight.Add(1)
	defer a.inflight.Add(-1)
	for {
		m := a.maxSeen.Load()
		if n <= m || a.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	a.mu.Lock()
	a.prompts = append(a.prompts, prompt)
	a.configs = append(a.configs, cfg)
	a.mu.Unlock()
	if a.fn == nil {
		return backend.Success("echo: " + prompt)
	}
	return a.fn(ctx, prompt, cfg)
}

func (a *scriptAdapter) seen() ([]string, []backend.ProviderConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.prompts...), append([]backend.ProviderConfig(nil), a.configs...)
}

// collector gathers deliveries in callback order.
type collector struct {
	mu  sync.Mutex
	out []Delivery
	ch  chan Delivery
}

func newCollector() *collector { return &collector{ch: make(chan Delivery, 64)} }

func (c *collector) deliver(d Delivery) {
	c.mu.Lock()
	c.out = append(c.out, d)
	c.mu.Unlock()
	c.ch <- d
}

func (c *collector) wait(t *testing.T, n int, within time.Duration) []Delivery {
	t.Helper()
	timer := time.NewTimer(within)
	defer timer.Stop()
	for i := 0; i < n; i++ {
		select {
		case <-c.ch:
		case <-timer.C:
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Delivery(nil), c.out...)
}

func newRouter(adapters ...*scriptAdapter) *backend.Router {
	r := backend.NewRouter()
	for _, a := range adapters {
		r.Register(a.name, a)
	}
	return r
}

// startQueue builds a queue over adapters (the first is the initial provider)
// and runs its worker until the test ends.
func startQueue(t *testing.T, mutate func(*Config), adapters ...*scriptAdapter) *Queue {
	t.Helper()
	q := newQueue(t, mutate, adapters...)
	ctx, cancel := context.WithCancel(context.Background())
	done := q.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitFor(t, q.Ready, time.Second)
	return q
}

func newQueue(t *testing.T, mutate func(*Config), adapters ...*scriptAdapter) *Queue {
	t.Helper()
	cfg := Config{
		Router:       newRouter(adapters...),
		Settings:     backend.ProviderConfig{Provider: adapters[0].name},
		IdleInterval: 5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	q, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return q
}

func waitFor(t *testing.T, cond func() bool, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", within)
		}
		time.Sleep(time.Millisecond)
	}
}
