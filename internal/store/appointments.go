package store

import (
	"context"

	"bookinghub/backend/internal/domain"
)

// AppointmentProvider is the persistence contract shared by the local record
// store and the remote API client. An absent id is reported through the found
// and removed results, never as an error.
type AppointmentProvider interface {
	GetAll(ctx context.Context) ([]domain.Appointment, error)
	GetByID(ctx context.Context, id string) (appt domain.Appointment, found bool, err error)
	Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.Patch) (appt domain.Appointment, found bool, err error)
	Delete(ctx context.Context, id string) (removed bool, err error)
}
