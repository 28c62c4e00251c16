package backend

import (
	"sort"
	"strings"
	"sync"
)

// Router maps provider names to adapters. Names are case-insensitive.
type Router struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRouter() *Router {
	return &Router{adapters: make(map[string]Adapter)}
}

// Register binds name to a. A later registration under the same name wins.
func (r *Router) Register(name string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[normalizeName(name)] = a
}

// Resolve returns the adapter for cfg.Provider.
func (r *Router) Resolve(cfg ProviderConfig) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[normalizeName(cfg.Provider)]
	if !ok {
		return nil, ErrUnknownProvider(cfg.Provider)
	}
	return a, nil
}

// Has reports whether name resolves to an adapter.
func (r *Router) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[normalizeName(name)]
	return ok
}

// Names returns the registered provider names in sorted order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
