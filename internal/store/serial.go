package store

import (
	"context"
	"sync"

	"bookinghub/backend/internal/domain"
)

// Serialize runs every call on p one at a time. The local provider rewrites
// the whole collection on each mutation, so a server handling requests in
// parallel must not let two of them interleave.
func Serialize(p AppointmentProvider) AppointmentProvider {
	return &serialProvider{p: p}
}

type serialProvider struct {
	mu sync.Mutex
	p  AppointmentProvider
}

func (s *serialProvider) GetAll(ctx context.Context) ([]domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.GetAll(ctx)
}

func (s *serialProvider) GetByID(ctx context.Context, id string) (domain.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.GetByID(ctx, id)
}

func (s *serialProvider) Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Create(ctx, in)
}

func (s *serialProvider) Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Update(ctx, id, patch)
}

func (s *serialProvider) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Delete(ctx, id)
}
