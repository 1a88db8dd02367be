package commands

import (
	"context"
	"fmt"
)

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	wasAuthenticated := app.session.State().IsAuthenticated()

	if err := app.session.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	if !wasAuthenticated {
		fmt.Fprintln(globals.stdout(), "Not logged in.")
		return nil
	}

	fmt.Fprintln(globals.stdout(), green("Logged out"))
	return nil
}
