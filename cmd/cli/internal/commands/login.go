package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/reception/cmd/cli/internal/credentials"
	"github.com/wolfeidau/reception/internal/session"
)

type LoginCmd struct {
	Username string `help:"Username (email), prompted for when omitted" env:"RECEPTION_USERNAME"`
	Password string `help:"Password, prompted for when omitted" env:"RECEPTION_PASSWORD"`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	out := globals.stdout()

	if app.session.State().IsAuthenticated() {
		return fmt.Errorf("%w, run logout first", session.ErrAlreadyAuthenticated)
	}

	username, password := c.Username, c.Password
	p := newPrompter(globals.stdin(), out)

	if username == "" {
		if username, err = p.ask("Username: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = p.secret("Password: "); err != nil {
			return err
		}
	}

	if err := app.session.Login(ctx, username, password); err != nil {
		if errors.Is(err, session.ErrLoginInProgress) || errors.Is(err, session.ErrAlreadyAuthenticated) {
			return err
		}
		return fmt.Errorf("%s: %w", session.Reason(err), err)
	}

	cred, _ := app.session.Credential()

	fmt.Fprintf(out, "%s as %s\n", green("Logged in"), username)
	fmt.Fprintf(out, "Token:  %s\n", credentials.Fingerprint(cred))
	fmt.Fprintf(out, "Server: %s\n", app.profile.Server)

	return nil
}
