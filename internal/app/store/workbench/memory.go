// internal/app/store/workbench/memory.go
package workbench

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/metrics"
)

type memEntry struct {
	state *State
	busy  bool
	seen  time.Time
}

// MemoryStore keeps workbenches in process memory. It suits a single
// instance; use the Valkey store when running several.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.state == nil {
		return nil, ErrNotFound
	}
	e.seen = s.now()
	return e.state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	saved := st.Clone()
	saved.UpdatedAt = now.UTC()
	st.UpdatedAt = saved.UpdatedAt

	e, ok := s.entries[st.ID]
	if !ok {
		e = &memEntry{}
		s.entries[st.ID] = e
	}
	e.state = saved
	e.seen = now
	metrics.ActiveWorkbenches.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	metrics.ActiveWorkbenches.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) TryBegin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &memEntry{}
		s.entries[id] = e
	}
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	e.seen = s.now()
	return nil
}

func (s *MemoryStore) End(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.busy = false
		if e.state == nil {
			delete(s.entries, id)
		}
	}
	return nil
}

// Sweep removes idle workbenches. Busy ones are kept regardless of age.
func (s *MemoryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if e.busy || !e.seen.Before(cutoff) {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	metrics.ActiveWorkbenches.Set(float64(len(s.entries)))
	return removed, nil
}

// Len returns the number of workbenches held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
