// Package cli holds the bookinghub admin commands. Each command is a kong
// struct with a Run(*Context) method.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/live"
)

type Queries interface {
	List(ctx context.Context) ([]domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, bool, error)
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
	ListByDateRange(ctx context.Context, start, end string) ([]domain.Appointment, error)
	Upcoming(ctx context.Context, limit int) ([]domain.Appointment, error)
	Clients(ctx context.Context) ([]domain.Client, error)
}

type LoginClient interface {
	Login(ctx context.Context, email, password string) (string, time.Time, error)
}

type Context struct {
	Ctx     context.Context
	Queries Queries
	Tracker *live.Tracker
	Stats   *live.StatsTracker
	Login   LoginClient
	Out     io.Writer
	JSON    bool
}

func (c *Context) printJSON(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Context) printAppointments(appts []domain.Appointment) error {
	if c.JSON {
		return c.printJSON(appts)
	}
	if len(appts) == 0 {
		fmt.Fprintln(c.Out, "No appointments found")
		return nil
	}
	for _, a := range appts {
		c.printAppointmentLine(a)
	}
	return nil
}

func (c *Context) printAppointmentLine(a domain.Appointment) {
	fmt.Fprintf(c.Out, "  %s %s  %-22s %-20s [%s] (ID: %s)\n", a.Date, a.Time, a.Name, a.Service, a.Status, a.ID)
}

func (c *Context) printAppointment(a domain.Appointment) error {
	if c.JSON {
		return c.printJSON(a)
	}
	fmt.Fprintf(c.Out, "ID:       %s\n", a.ID)
	fmt.Fprintf(c.Out, "Name:     %s <%s>\n", a.Name, a.Email)
	fmt.Fprintf(c.Out, "When:     %s %s\n", a.Date, a.Time)
	fmt.Fprintf(c.Out, "Service:  %s\n", a.Service)
	fmt.Fprintf(c.Out, "Status:   %s\n", a.Status)
	if a.Notes != "" {
		fmt.Fprintf(c.Out, "Notes:    %s\n", a.Notes)
	}
	return nil
}

// printResult reports a tracker mutation. A failed result becomes the
// command's error.
func (c *Context) printResult(verb string, res live.Result) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	if c.JSON {
		return c.printJSON(res)
	}
	if res.Data == nil {
		fmt.Fprintf(c.Out, "Appointment %s\n", verb)
		return nil
	}
	fmt.Fprintf(c.Out, "Appointment %s:\n", verb)
	c.printAppointmentLine(*res.Data)
	return nil
}
