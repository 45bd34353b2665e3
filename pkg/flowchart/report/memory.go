package report

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps reports in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]Report
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]Report)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	prepare(r)
	stored := *r
	stored.Undated = slices.Clone(r.Undated)
	m.reports[r.ID] = stored
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Report{}, ErrStoreClosed
	}
	r, ok := m.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	r.Undated = slices.Clone(r.Undated)
	return r, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, f Filter) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	out := []Report{}
	for _, r := range m.reports {
		if f.matches(r) {
			r.Undated = slices.Clone(r.Undated)
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Report) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.reports, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.reports = nil
	return nil
}
