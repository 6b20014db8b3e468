package domain

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Appointment is one booked slot. Date and Time are kept as lexically
// sortable strings (YYYY-MM-DD and HH:MM); they are never parsed into an
// instant for ordering purposes.
type Appointment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Service   string    `json:"service"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAppointment is the caller-supplied part of an appointment. Status and
// Notes are optional and defaulted on creation.
type NewAppointment struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Service string `json:"service"`
	Status  Status `json:"status,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Build fills the defaults and stamps both timestamps with now.
func (n NewAppointment) Build(id string, now time.Time) Appointment {
	status := n.Status
	if status == "" {
		status = StatusScheduled
	}
	now = now.UTC()
	return Appointment{
		ID:        id,
		Name:      n.Name,
		Email:     n.Email,
		Date:      n.Date,
		Time:      n.Time,
		Service:   n.Service,
		Status:    status,
		Notes:     n.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Date    *string `json:"date,omitempty"`
	Time    *string `json:"time,omitempty"`
	Service *string `json:"service,omitempty"`
	Status  *Status `json:"status,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Date == nil && p.Time == nil &&
		p.Service == nil && p.Status == nil && p.Notes == nil
}

// Apply merges p over a and refreshes UpdatedAt. The new UpdatedAt is always
// strictly after the previous one, even when the clock has not advanced.
func (p Patch) Apply(a Appointment, now time.Time) Appointment {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Service != nil {
		a.Service = *p.Service
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}

	now = now.UTC()
	if !now.After(a.UpdatedAt) {
		now = a.UpdatedAt.Add(time.Millisecond)
	}
	a.UpdatedAt = now
	return a
}

// Client groups every appointment that shares one email address.
type Client struct {
	Email             string        `json:"email"`
	Name              string        `json:"name"`
	Appointments      []Appointment `json:"appointments"`
	TotalAppointments int           `json:"totalAppointments"`
	FirstAppointment  *string       `json:"firstAppointment"`
	LastAppointment   *string       `json:"lastAppointment"`
	TopService        *string       `json:"topService"`
}

type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

type Statistics struct {
	Total            int            `json:"total"`
	Today            int            `json:"today"`
	ThisWeek         int            `json:"thisWeek"`
	UniqueClients    int            `json:"uniqueClients"`
	ServiceBreakdown map[string]int `json:"serviceBreakdown"`
	TopServices      []ServiceCount `json:"topServices"`
}
