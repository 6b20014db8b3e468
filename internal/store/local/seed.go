package local

import (
	"time"

	"bookinghub/backend/internal/domain"
)

// DefaultSeed is the dataset written into an empty store on first use.
func DefaultSeed() []domain.Appointment {
	seededAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []domain.Appointment{
		domain.NewAppointment{
			Name:    "John Doe",
			Email:   "john@test.com",
			Date:    "2026-03-10",
			Time:    "10:00",
			Service: "Consultation",
		}.Build("1", seededAt),
		domain.NewAppointment{
			Name:    "Anna Smith",
			Email:   "anna@test.com",
			Date:    "2026-03-11",
			Time:    "14:30",
			Service: "Follow-up",
		}.Build("2", seededAt),
	}
}
