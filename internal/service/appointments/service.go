package appointments

import (
	"context"
	"time"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/store"
	"bookinghub/backend/internal/views"
)

// Service is the single entry point to appointment data. It delegates to
// exactly one provider chosen at construction time.
//
// Every query helper re-reads the full collection and recomputes from
// scratch. That is fine for a personal or small-business calendar and does
// not scale to large collections.
type Service struct {
	provider store.AppointmentProvider
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone "today" and week boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(provider store.AppointmentProvider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the service's location.
func (s *Service) Today() string {
	return domain.DateOf(s.now(), s.loc)
}

func (s *Service) List(ctx context.Context) ([]domain.Appointment, error) {
	return s.provider.GetAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Appointment, bool, error) {
	return s.provider.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error) {
	return s.provider.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
	return s.provider.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.provider.Delete(ctx, id)
}

func (s *Service) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	appts, err := s.provider.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return views.OnDate(appts, date), nil
}

// ListByDateRange filters on start <= date <= end.
func (s *Service) ListByDateRange(ctx context.Context, start, end string) ([]domain.Appointment, error) {
	appts, err := s.provider.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return views.InRange(appts, start, end), nil
}

// Upcoming returns appointments from today on, soonest first. A limit <= 0
// returns all of them.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]domain.Appointment, error) {
	appts, err := s.provider.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return views.Upcoming(appts, s.Today(), limit), nil
}

func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	appts, err := s.provider.GetAll(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	now := s.now()
	return views.Statistics(appts, domain.DateOf(now, s.loc), domain.WeekStart(now, s.loc)), nil
}

func (s *Service) Clients(ctx context.Context) ([]domain.Client, error) {
	appts, err := s.provider.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return views.Clients(appts), nil
}
