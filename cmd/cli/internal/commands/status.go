package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/reception/cmd/cli/internal/credentials"
)

// StatusCmd reports the local session without calling the server.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	state := app.session.State()

	w := tabwriter.NewWriter(globals.stdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Session:\t%s\n", statusLabel(state))
	fmt.Fprintf(w, "Server:\t%s\n", app.profile.Server)
	fmt.Fprintf(w, "Store:\t%s\n", storeLabel(app.profile.Store, app.profile.StoreDir))

	cred, ok := app.session.Credential()
	if !ok {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To log in:")
		fmt.Fprintln(w, "  reception-cli login")
		return nil
	}

	d := credentials.Describe(cred)
	fmt.Fprintf(w, "Token:\t%s\n", d.Fingerprint)

	if !d.IsJWT {
		return nil
	}

	if d.Subject != "" {
		fmt.Fprintf(w, "Subject:\t%s\n", d.Subject)
	}
	if d.Issuer != "" {
		fmt.Fprintf(w, "Issuer:\t%s\n", d.Issuer)
	}
	if !d.ExpiresAt.IsZero() {
		expires := d.ExpiresAt.Local().Format(time.RFC3339)
		if d.Expired(time.Now()) {
			expires += " " + red("(expired)")
		}
		fmt.Fprintf(w, "Expires:\t%s\n", expires)
	}

	return nil
}

func storeLabel(kind, dir string) string {
	if dir == "" {
		return kind
	}
	return fmt.Sprintf("%s (%s)", kind, faint(dir))
}

