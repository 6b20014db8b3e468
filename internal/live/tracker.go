// Package live keeps an in-memory view of the appointment collection for
// long-lived consumers. Mutations go through the repository and then patch the
// held list locally, so callers do not have to reload after every change.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"bookinghub/backend/internal/domain"
)

const (
	msgLoadFailed   = "Failed to load appointments"
	msgCreateFailed = "Failed to create appointment"
	msgUpdateFailed = "Failed to update appointment"
	msgDeleteFailed = "Failed to delete appointment"
	msgNotFound     = "Appointment not found"
)

// Repository is the subset of the appointment service the tracker needs.
type Repository interface {
	List(ctx context.Context) ([]domain.Appointment, error)
	Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Result is the uniform outcome of a wrapped mutation. Error holds a message
// suitable for showing inline; Err keeps the underlying cause when there is
// one.
type Result struct {
	Success bool                `json:"success"`
	Data    *domain.Appointment `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Err     error               `json:"-"`
}

type Snapshot struct {
	Appointments []domain.Appointment
	Loading      bool
	Error        string
}

type Tracker struct {
	repo Repository
	log  *slog.Logger

	mu           sync.RWMutex
	appointments []domain.Appointment
	loading      bool
	errMsg       string
	nextSub      int
	subscribers  map[int]func(Snapshot)
}

func NewTracker(repo Repository, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		repo:         repo,
		log:          log.With(slog.String("component", "live.tracker")),
		appointments: []domain.Appointment{},
		loading:      true,
		subscribers:  make(map[int]func(Snapshot)),
	}
}

// Start performs the initial load.
func (t *Tracker) Start(ctx context.Context) error {
	return t.load(ctx)
}

// Refresh forces a full reload from the repository.
func (t *Tracker) Refresh(ctx context.Context) error {
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()
	t.notify()

	appts, err := t.repo.List(ctx)

	t.mu.Lock()
	if err != nil {
		t.errMsg = msgLoadFailed
		t.log.Error("appointments load failed", slog.Any("err", err))
	} else {
		t.appointments = appts
		t.errMsg = ""
	}
	t.loading = false
	t.mu.Unlock()
	t.notify()
	return err
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	appts := make([]domain.Appointment, len(t.appointments))
	copy(appts, t.appointments)
	return Snapshot{Appointments: appts, Loading: t.loading, Error: t.errMsg}
}

// Find looks id up in the held list without touching the repository.
func (t *Tracker) Find(id string) (domain.Appointment, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, a := range t.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Appointment{}, false
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned function removes the subscription.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) notify() {
	t.mu.RLock()
	snap := t.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	t.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (t *Tracker) Create(ctx context.Context, in domain.NewAppointment) Result {
	appt, err := t.repo.Create(ctx, in)
	if err != nil {
		t.log.Error("appointment create failed", slog.Any("err", err))
		return failure(msgCreateFailed, err)
	}

	t.mu.Lock()
	t.appointments = append(t.appointments, appt)
	t.mu.Unlock()
	t.notify()
	return Result{Success: true, Data: &appt}
}

func (t *Tracker) Update(ctx context.Context, id string, patch domain.Patch) Result {
	appt, found, err := t.repo.Update(ctx, id, patch)
	if err != nil {
		t.log.Error("appointment update failed", slog.Any("err", err), slog.String("appointment_id", id))
		return failure(msgUpdateFailed, err)
	}
	if !found {
		return Result{Success: false, Error: msgNotFound}
	}

	t.mu.Lock()
	for i := range t.appointments {
		if t.appointments[i].ID == id {
			t.appointments[i] = appt
		}
	}
	t.mu.Unlock()
	t.notify()
	return Result{Success: true, Data: &appt}
}

func (t *Tracker) Delete(ctx context.Context, id string) Result {
	removed, err := t.repo.Delete(ctx, id)
	if err != nil {
		t.log.Error("appointment delete failed", slog.Any("err", err), slog.String("appointment_id", id))
		return failure(msgDeleteFailed, err)
	}
	if !removed {
		return Result{Success: false, Error: msgNotFound}
	}

	t.mu.Lock()
	kept := t.appointments[:0:0]
	for _, a := range t.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	t.appointments = kept
	t.mu.Unlock()
	t.notify()
	return Result{Success: true}
}

func failure(msg string, err error) Result {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		msg = vErr.Error()
	}
	return Result{Success: false, Error: msg, Err: err}
}
