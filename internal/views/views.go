// Package views computes derived, never-persisted values from a full
// appointment list. Every function is pure and leaves its input untouched.
package views

import (
	"sort"
	"strings"

	"bookinghub/backend/internal/domain"
)

const topServicesLimit = 3

// OnDate returns appointments whose date equals date exactly.
func OnDate(appts []domain.Appointment, date string) []domain.Appointment {
	out := make([]domain.Appointment, 0)
	for _, a := range appts {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// InRange returns appointments with start <= date <= end, compared lexically.
func InRange(appts []domain.Appointment, start, end string) []domain.Appointment {
	out := make([]domain.Appointment, 0)
	for _, a := range appts {
		if a.Date >= start && a.Date <= end {
			out = append(out, a)
		}
	}
	return out
}

// Upcoming returns appointments on or after today ordered by (date, time).
// A limit <= 0 keeps every match.
func Upcoming(appts []domain.Appointment, today string, limit int) []domain.Appointment {
	out := make([]domain.Appointment, 0)
	for _, a := range appts {
		if a.Date >= today {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ClientKey is the identity appointments are grouped by.
func ClientKey(email string) string {
	return strings.ToLower(email)
}

// Statistics summarizes appts relative to today and weekStart (both
// YYYY-MM-DD). Unique clients are counted by ClientKey, the same identity
// Clients groups by.
func Statistics(appts []domain.Appointment, today, weekStart string) domain.Statistics {
	stats := domain.Statistics{
		Total:            len(appts),
		ServiceBreakdown: make(map[string]int),
	}

	clients := make(map[string]struct{})
	var order []string
	for _, a := range appts {
		if a.Date == today {
			stats.Today++
		}
		if a.Date >= weekStart {
			stats.ThisWeek++
		}
		clients[ClientKey(a.Email)] = struct{}{}
		if _, seen := stats.ServiceBreakdown[a.Service]; !seen {
			order = append(order, a.Service)
		}
		stats.ServiceBreakdown[a.Service]++
	}
	stats.UniqueClients = len(clients)
	stats.TopServices = rankServices(order, stats.ServiceBreakdown, topServicesLimit)
	return stats
}

// rankServices orders services by count descending; ties keep the order in
// which each service was first seen.
func rankServices(order []string, counts map[string]int, limit int) []domain.ServiceCount {
	ranked := make([]domain.ServiceCount, 0, len(order))
	for _, s := range order {
		ranked = append(ranked, domain.ServiceCount{Service: s, Count: counts[s]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Clients groups appts by case-insensitive email. Groups appear in order of
// first occurrence, then are stably sorted by appointment count descending.
func Clients(appts []domain.Appointment) []domain.Client {
	groups := make(map[string][]domain.Appointment)
	var keys []string
	for _, a := range appts {
		k := ClientKey(a.Email)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], a)
	}

	clients := make([]domain.Client, 0, len(keys))
	for _, k := range keys {
		clients = append(clients, buildClient(groups[k]))
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].TotalAppointments > clients[j].TotalAppointments
	})
	return clients
}

func buildClient(appts []domain.Appointment) domain.Client {
	sorted := make([]domain.Appointment, len(appts))
	copy(sorted, appts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	c := domain.Client{
		Email:             appts[0].Email,
		Name:              appts[0].Name,
		Appointments:      sorted,
		TotalAppointments: len(appts),
	}
	if len(sorted) > 0 {
		first := sorted[0].Date
		last := sorted[len(sorted)-1].Date
		c.FirstAppointment = &first
		c.LastAppointment = &last
	}

	counts := make(map[string]int)
	var order []string
	for _, a := range appts {
		if _, seen := counts[a.Service]; !seen {
			order = append(order, a.Service)
		}
		counts[a.Service]++
	}
	if top := rankServices(order, counts, 1); len(top) == 1 {
		service := top[0].Service
		c.TopService = &service
	}
	return c
}
