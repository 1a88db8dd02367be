package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
)

type MeCmd struct{}

func (c *MeCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	profile, err := app.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	active := green("yes")
	if !profile.IsActive {
		active = red("no")
	}

	company := profile.CompanyName()
	if company == "" {
		company = faint("-")
	}

	w := tabwriter.NewWriter(globals.stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", profile.ID)
	fmt.Fprintf(w, "Name:\t%s\n", profile.FullName)
	fmt.Fprintf(w, "Email:\t%s\n", profile.Email)
	fmt.Fprintf(w, "Company:\t%s\n", company)
	fmt.Fprintf(w, "Active:\t%s\n", active)
	return w.Flush()
}
