// Package local implements the appointment provider on top of a key-value
// slot store. The whole collection lives in one slot as a JSON array and every
// operation reads it, mutates it in memory and writes it back. There is no
// locking: a single logical writer is assumed.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/store"
)

const (
	CollectionKey  = "appointments"
	InitializedKey = "appointments_initialized"

	initializedValue = "true"
	maxIDAttempts    = 3
)

var _ store.AppointmentProvider = (*AppointmentStore)(nil)

type AppointmentStore struct {
	slots store.SlotStore
	now   func() time.Time
	newID func() (string, error)
	seed  []domain.Appointment
	log   *slog.Logger
}

type Option func(*AppointmentStore)

func WithClock(now func() time.Time) Option {
	return func(s *AppointmentStore) { s.now = now }
}

func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *AppointmentStore) { s.newID = fn }
}

// WithSeed replaces the built-in dataset written on first use.
func WithSeed(seed []domain.Appointment) Option {
	return func(s *AppointmentStore) { s.seed = seed }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *AppointmentStore) { s.log = log }
}

// NewAppointmentStore returns a provider over slots. A nil slots value is
// accepted and behaves like unavailable storage.
func NewAppointmentStore(slots store.SlotStore, opts ...Option) *AppointmentStore {
	s := &AppointmentStore{
		slots: slots,
		now:   time.Now,
		newID: newUUID,
		seed:  DefaultSeed(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "store.local"))
	return s
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *AppointmentStore) GetAll(ctx context.Context) ([]domain.Appointment, error) {
	return s.load(ctx)
}

func (s *AppointmentStore) GetByID(ctx context.Context, id string) (domain.Appointment, bool, error) {
	appts, err := s.load(ctx)
	if err != nil {
		return domain.Appointment{}, false, err
	}
	for _, a := range appts {
		if a.ID == id {
			return a, true, nil
		}
	}
	return domain.Appointment{}, false, nil
}

func (s *AppointmentStore) Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error) {
	appts, err := s.load(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}

	id, err := s.uniqueID(appts)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt := in.Build(id, s.now())
	appts = append(appts, appt)
	if err := s.save(ctx, appts); err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (s *AppointmentStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
	appts, err := s.load(ctx)
	if err != nil {
		return domain.Appointment{}, false, err
	}

	for i, a := range appts {
		if a.ID != id {
			continue
		}
		updated := patch.Apply(a, s.now())
		appts[i] = updated
		if err := s.save(ctx, appts); err != nil {
			return domain.Appointment{}, false, err
		}
		return updated, true, nil
	}
	return domain.Appointment{}, false, nil
}

func (s *AppointmentStore) Delete(ctx context.Context, id string) (bool, error) {
	appts, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := make([]domain.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(appts) {
		return false, nil
	}
	if err := s.save(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AppointmentStore) uniqueID(appts []domain.Appointment) (string, error) {
	taken := make(map[string]struct{}, len(appts))
	for _, a := range appts {
		taken[a.ID] = struct{}{}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		if _, ok := taken[id]; !ok {
			return id, nil
		}
	}
	return "", errors.New("generate id: collision with existing appointment")
}

func (s *AppointmentStore) load(ctx context.Context) ([]domain.Appointment, error) {
	if s.slots == nil {
		return []domain.Appointment{}, nil
	}

	if err := s.ensureSeeded(ctx); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.log.Warn("slot storage unavailable; reading empty collection", slog.Any("err", err))
			return []domain.Appointment{}, nil
		}
		return nil, err
	}

	raw, ok, err := s.slots.Get(ctx, CollectionKey)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			s.log.Warn("slot storage unavailable; reading empty collection", slog.Any("err", err))
			return []domain.Appointment{}, nil
		}
		return nil, fmt.Errorf("read appointments: %w", err)
	}
	return decode(ok, raw)
}

func decode(ok bool, raw string) ([]domain.Appointment, error) {
	appts := []domain.Appointment{}
	if !ok || raw == "" {
		return appts, nil
	}
	if err := json.Unmarshal([]byte(raw), &appts); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	return appts, nil
}

// ensureSeeded writes the seed dataset the first time the store is touched.
// An existing collection is never overwritten; only the marker is added.
func (s *AppointmentStore) ensureSeeded(ctx context.Context) error {
	marker, ok, err := s.slots.Get(ctx, InitializedKey)
	if err != nil {
		return fmt.Errorf("read init marker: %w", err)
	}
	if ok && marker != "" {
		return nil
	}

	_, hasCollection, err := s.slots.Get(ctx, CollectionKey)
	if err != nil {
		return fmt.Errorf("read appointments: %w", err)
	}
	if !hasCollection {
		if err := s.write(ctx, s.seed); err != nil {
			return err
		}
		s.log.Info("seeded appointment store", slog.Int("count", len(s.seed)))
	}

	if err := s.slots.Set(ctx, InitializedKey, initializedValue); err != nil {
		return fmt.Errorf("write init marker: %w", err)
	}
	return nil
}

func (s *AppointmentStore) save(ctx context.Context, appts []domain.Appointment) error {
	err := s.write(ctx, appts)
	if errors.Is(err, store.ErrUnavailable) {
		s.log.Warn("slot storage unavailable; write dropped", slog.Any("err", err))
		return nil
	}
	return err
}

func (s *AppointmentStore) write(ctx context.Context, appts []domain.Appointment) error {
	if appts == nil {
		appts = []domain.Appointment{}
	}
	raw, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("encode appointments: %w", err)
	}
	if err := s.slots.Set(ctx, CollectionKey, string(raw)); err != nil {
		return fmt.Errorf("write appointments: %w", err)
	}
	return nil
}
