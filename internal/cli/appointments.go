package cli

import (
	"fmt"
	"strings"

	"bookinghub/backend/internal/domain"
)

type ListCmd struct {
	Date string `help:"Only appointments on this date (YYYY-MM-DD)."`
	From string `help:"Start of an inclusive date range (YYYY-MM-DD)."`
	To   string `help:"End of an inclusive date range (YYYY-MM-DD)."`
}

func (c *ListCmd) Validate() error {
	if c.Date != "" && (c.From != "" || c.To != "") {
		return fmt.Errorf("--date cannot be combined with --from/--to")
	}
	if c.Date != "" && !domain.ValidDate(c.Date) {
		return fmt.Errorf("--date must be YYYY-MM-DD")
	}
	if (c.From == "") != (c.To == "") {
		return fmt.Errorf("--from and --to must be given together")
	}
	if c.From != "" && (!domain.ValidDate(c.From) || !domain.ValidDate(c.To)) {
		return fmt.Errorf("--from and --to must be YYYY-MM-DD")
	}
	return nil
}

func (c *ListCmd) Run(ctx *Context) error {
	var (
		appts []domain.Appointment
		err   error
	)
	switch {
	case c.Date != "":
		appts, err = ctx.Queries.ListByDate(ctx.Ctx, c.Date)
	case c.From != "":
		appts, err = ctx.Queries.ListByDateRange(ctx.Ctx, c.From, c.To)
	default:
		appts, err = ctx.Queries.List(ctx.Ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}
	return ctx.printAppointments(appts)
}

type GetCmd struct {
	ID string `arg:"" help:"Appointment ID."`
}

func (c *GetCmd) Run(ctx *Context) error {
	appt, found, err := ctx.Queries.Get(ctx.Ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get appointment: %w", err)
	}
	if !found {
		return fmt.Errorf("appointment %s not found", c.ID)
	}
	return ctx.printAppointment(appt)
}

type UpcomingCmd struct {
	Limit int `short:"n" help:"Maximum number of appointments (0 for all)." default:"5"`
}

func (c *UpcomingCmd) Run(ctx *Context) error {
	appts, err := ctx.Queries.Upcoming(ctx.Ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return ctx.printAppointments(appts)
}

type CreateCmd struct {
	Name    string `short:"n" help:"Client name." required:""`
	Email   string `short:"e" help:"Client email." required:""`
	Date    string `short:"d" help:"Date (YYYY-MM-DD)." required:""`
	Time    string `short:"t" help:"Time (HH:MM)." required:""`
	Service string `short:"s" help:"Service booked." required:""`
	Status  string `help:"Initial status (scheduled|completed|cancelled)." default:"scheduled"`
	Notes   string `help:"Free-text notes."`
}

func (c *CreateCmd) Run(ctx *Context) error {
	in := domain.NewAppointment{
		Name:    c.Name,
		Email:   c.Email,
		Date:    c.Date,
		Time:    c.Time,
		Service: c.Service,
		Status:  domain.Status(c.Status),
		Notes:   c.Notes,
	}.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return ctx.printResult("created", ctx.Tracker.Create(ctx.Ctx, in))
}

type UpdateCmd struct {
	ID         string `arg:"" help:"Appointment ID."`
	Name       string `help:"New client name."`
	Email      string `help:"New client email."`
	Date       string `help:"New date (YYYY-MM-DD)."`
	Time       string `help:"New time (HH:MM)."`
	Service    string `help:"New service."`
	Status     string `help:"New status (scheduled|completed|cancelled)."`
	Notes      string `help:"New notes."`
	ClearNotes bool   `help:"Remove the notes." name:"clear-notes"`
}

func (c *UpdateCmd) patch() domain.Patch {
	var p domain.Patch
	set := func(dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = &v
		}
	}
	set(&p.Name, c.Name)
	set(&p.Email, c.Email)
	set(&p.Date, c.Date)
	set(&p.Time, c.Time)
	set(&p.Service, c.Service)
	if c.Status != "" {
		s := domain.Status(strings.TrimSpace(c.Status))
		p.Status = &s
	}
	if c.ClearNotes {
		empty := ""
		p.Notes = &empty
	} else if c.Notes != "" {
		notes := c.Notes
		p.Notes = &notes
	}
	return p
}

func (c *UpdateCmd) Run(ctx *Context) error {
	p := c.patch()
	if err := p.Validate(); err != nil {
		return err
	}
	return ctx.printResult("updated", ctx.Tracker.Update(ctx.Ctx, c.ID, p))
}

type DeleteCmd struct {
	ID string `arg:"" help:"Appointment ID."`
}

func (c *DeleteCmd) Run(ctx *Context) error {
	return ctx.printResult("deleted", ctx.Tracker.Delete(ctx.Ctx, c.ID))
}
