package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"bookinghub/backend/internal/bootstrap"
	"bookinghub/backend/internal/cli"
	"bookinghub/backend/internal/config"
	"bookinghub/backend/internal/credentials"
	"bookinghub/backend/internal/live"
	"bookinghub/backend/internal/service/appointments"
	"bookinghub/backend/internal/store/remote"
)

var CLI struct {
	JSON bool `help:"Print machine-readable JSON." name:"json"`

	List     cli.ListCmd     `cmd:"" help:"List appointments." default:"1"`
	Get      cli.GetCmd      `cmd:"" help:"Show one appointment."`
	Create   cli.CreateCmd   `cmd:"" help:"Book a new appointment."`
	Update   cli.UpdateCmd   `cmd:"" help:"Change fields of an appointment."`
	Delete   cli.DeleteCmd   `cmd:"" help:"Delete an appointment."`
	Upcoming cli.UpcomingCmd `cmd:"" help:"Show the next appointments from today."`
	Stats    cli.StatsCmd    `cmd:"" help:"Show dashboard statistics."`
	Clients  cli.ClientsCmd  `cmd:"" help:"List clients grouped by email."`
	Login    cli.LoginCmd    `cmd:"" help:"Log in to a remote bookinghub server."`
	Logout   cli.LogoutCmd   `cmd:"" help:"Forget the stored login token."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("bookinghub"),
		kong.Description("Appointment admin for BookingHub"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tokens := credentials.TokenSource{Static: cfg.RemoteToken}
	provider, closeProvider, err := bootstrap.NewProvider(ctx, cfg, tokens, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	svc := appointments.NewService(provider, appointments.WithLocation(loc))
	appCtx := &cli.Context{
		Ctx:     ctx,
		Queries: svc,
		Tracker: live.NewTracker(svc, log),
		Stats:   live.NewStatsTracker(svc, log),
		Out:     os.Stdout,
		JSON:    CLI.JSON,
	}
	if rc, ok := provider.(*remote.Client); ok {
		appCtx.Login = rc
	}

	err = kctx.Run(appCtx)
	if cerr := closeProvider(); cerr != nil {
		log.Warn("storage close failed", slog.Any("err", cerr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
