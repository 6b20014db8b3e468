package cli

import (
	"fmt"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	if err := ctx.Stats.Refresh(ctx.Ctx); err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	stats, _ := ctx.Stats.Stats()
	if ctx.JSON {
		return ctx.printJSON(stats)
	}

	fmt.Fprintf(ctx.Out, "Total appointments: %d\n", stats.Total)
	fmt.Fprintf(ctx.Out, "Today:              %d\n", stats.Today)
	fmt.Fprintf(ctx.Out, "This week:          %d\n", stats.ThisWeek)
	fmt.Fprintf(ctx.Out, "Unique clients:     %d\n", stats.UniqueClients)
	if len(stats.TopServices) > 0 {
		fmt.Fprintln(ctx.Out, "Top services:")
		for _, s := range stats.TopServices {
			fmt.Fprintf(ctx.Out, "  %-24s %d\n", s.Service, s.Count)
		}
	}
	return nil
}

type ClientsCmd struct{}

func (c *ClientsCmd) Run(ctx *Context) error {
	clients, err := ctx.Queries.Clients(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}
	if ctx.JSON {
		return ctx.printJSON(clients)
	}
	if len(clients) == 0 {
		fmt.Fprintln(ctx.Out, "No clients found")
		return nil
	}
	for _, cl := range clients {
		last := "-"
		if cl.LastAppointment != nil {
			last = *cl.LastAppointment
		}
		top := "-"
		if cl.TopService != nil {
			top = *cl.TopService
		}
		fmt.Fprintf(ctx.Out, "  %-22s %-28s %3d appointments, last %s, mostly %s\n",
			cl.Name, cl.Email, cl.TotalAppointments, last, top)
	}
	return nil
}
