package connector

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a fresh connector. Registered at startup; the runner only
// ever sees ids, so new boards never touch orchestration code.
type Factory func() (Connector, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(id string, f Factory) {
	if id == "" || f == nil {
		panic("connector: empty id or nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns the registered connector ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Create(id string) (Connector, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown connector %q (available: %s)", id, strings.Join(r.IDs(), ", "))
	}
	c, err := f()
	if err != nil {
		return nil, fmt.Errorf("create connector %q: %w", id, err)
	}
	return c, nil
}
