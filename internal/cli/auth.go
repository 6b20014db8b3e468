package cli

import (
	"errors"
	"fmt"

	"bookinghub/backend/internal/credentials"
)

type LoginCmd struct {
	Email    string `short:"e" help:"Admin email." required:""`
	Password string `short:"p" help:"Admin password." env:"BOOKINGHUB_ADMIN_PASSWORD" required:""`
}

func (c *LoginCmd) Run(ctx *Context) error {
	if ctx.Login == nil {
		return errors.New("login requires provider=remote")
	}
	token, exp, err := ctx.Login.Login(ctx.Ctx, c.Email, c.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := credentials.SetToken(token); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Logged in as %s (token expires %s)\n", c.Email, exp.Local().Format("2006-01-02 15:04"))
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	err := credentials.DeleteToken()
	if errors.Is(err, credentials.ErrNotFound) {
		fmt.Fprintln(ctx.Out, "Not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "Logged out")
	return nil
}
