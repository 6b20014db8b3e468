// Package memory provides an in-memory slot store for tests and ephemeral
// deployments.
package memory

import (
	"context"
	"sync"

	"bookinghub/backend/internal/store"
)

var _ store.SlotStore = (*Slots)(nil)

type Slots struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewSlots() *Slots {
	return &Slots{values: make(map[string]string)}
}

func (s *Slots) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Slots) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes a slot. It is not part of store.SlotStore and exists so tests
// can simulate a cleared browser profile.
func (s *Slots) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
