// Package notify delivers best-effort side effects of appointment changes:
// client emails and an event stream for downstream consumers.
package notify

import (
	"context"
	"time"

	"bookinghub/backend/internal/domain"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
)

func (k Kind) Valid() bool {
	switch k {
	case KindConfirmation, KindReminder, KindCancellation:
		return true
	default:
		return false
	}
}

type Event struct {
	Kind        Kind               `json:"kind"`
	Appointment domain.Appointment `json:"appointment"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}
