package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/wolfeidau/reception/internal/config"
	"github.com/wolfeidau/reception/internal/models"
)

type MeetingsCmd struct {
	Watch    bool          `help:"Keep refreshing until interrupted or logged out" default:"false"`
	Interval time.Duration `help:"Refresh interval for --watch, overrides the profile's watch_interval"`
}

const defaultWatchInterval = 30 * time.Second

// refreshInterval prefers the flag, then the profile setting.
func (c *MeetingsCmd) refreshInterval(profile config.Profile) time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	if profile.WatchInterval > 0 {
		return profile.WatchInterval
	}
	return defaultWatchInterval
}

func (c *MeetingsCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if c.Watch {
		return c.watchMeetings(ctx, app, globals.stdout())
	}

	return c.listMeetings(ctx, app, globals.stdout())
}

func (c *MeetingsCmd) listMeetings(ctx context.Context, app *app, out io.Writer) error {
	meetings, err := app.api.Meetings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list meetings: %w", err)
	}

	printMeetings(out, meetings)
	return nil
}

// watchMeetings refreshes on a ticker and stops as soon as the session ends,
// including a logout from another process.
func (c *MeetingsCmd) watchMeetings(ctx context.Context, app *app, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := c.refreshInterval(app.profile)

	go app.tokens.Watch(ctx, min(interval, time.Second))

	states := app.session.Observe(ctx)

	fmt.Fprintln(out, "Watching meetings (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	if err := c.listMeetings(ctx, app, out); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-states:
			if state.Status == models.StatusUnauthenticated {
				fmt.Fprintln(out, yellow("Logged out, stopping."))
				return nil
			}
		case <-ticker.C:
			if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				fmt.Fprint(out, "\033[2J\033[H") // Clear screen and move cursor to top
			}
			fmt.Fprintf(out, "Meetings (updated at %s)\n\n", time.Now().Format("15:04:05"))

			if err := c.listMeetings(ctx, app, out); err != nil {
				log.Warn().Err(err).Msg("failed to refresh meetings")
				fmt.Fprintf(out, "Error updating meetings: %v\n", err)
			}
		}
	}
}

func printMeetings(out io.Writer, meetings []models.Meeting) {
	if len(meetings) == 0 {
		fmt.Fprintln(out, "No meetings found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tTITLE\tROOM\tHOSTS\tSTATUS")

	for _, m := range meetings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.StartTime.Format("2006-01-02 15:04"),
			m.EndTime.Format("15:04"),
			truncate(m.Title, 40),
			m.RoomName,
			truncate(strings.Join(m.Hosts, ", "), 30),
			m.Status,
		)
	}

	w.Flush()
	fmt.Fprintf(out, "\nTotal meetings: %d\n", len(meetings))
}
