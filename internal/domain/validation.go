package domain

import (
	"strings"
)

// ValidationError reports caller-supplied input that is missing or malformed.
// It is raised at the request boundary; the repository itself trusts its
// callers.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Normalize trims the free-text fields of n.
func (n NewAppointment) Normalize() NewAppointment {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = strings.TrimSpace(n.Email)
	n.Date = strings.TrimSpace(n.Date)
	n.Time = strings.TrimSpace(n.Time)
	n.Service = strings.TrimSpace(n.Service)
	return n
}

func (n NewAppointment) Validate() error {
	switch {
	case n.Name == "":
		return validationError("name is required")
	case n.Email == "":
		return validationError("email is required")
	case n.Date == "":
		return validationError("date is required")
	case n.Time == "":
		return validationError("time is required")
	case n.Service == "":
		return validationError("service is required")
	}
	if !ValidDate(n.Date) {
		return validationError("date must be YYYY-MM-DD")
	}
	if !ValidTime(n.Time) {
		return validationError("time must be HH:MM")
	}
	if n.Status != "" && !n.Status.Valid() {
		return validationError("invalid status")
	}
	return nil
}

func (p Patch) Validate() error {
	if p.Empty() {
		return validationError("at least one field is required")
	}
	required := []struct {
		name string
		v    *string
	}{
		{"name", p.Name},
		{"email", p.Email},
		{"service", p.Service},
	}
	for _, f := range required {
		if f.v != nil && strings.TrimSpace(*f.v) == "" {
			return validationError(f.name + " must not be empty")
		}
	}
	if p.Date != nil && !ValidDate(*p.Date) {
		return validationError("date must be YYYY-MM-DD")
	}
	if p.Time != nil && !ValidTime(*p.Time) {
		return validationError("time must be HH:MM")
	}
	if p.Status != nil && !p.Status.Valid() {
		return validationError("invalid status")
	}
	return nil
}
