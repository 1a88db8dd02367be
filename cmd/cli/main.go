package main

import (
	"context"
	"time"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/reception/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login    commands.LoginCmd    `cmd:"" help:"Log in and store the access token"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out and remove the stored access token"`
		Status   commands.StatusCmd   `cmd:"" help:"Show the local session"`
		Me       commands.MeCmd       `cmd:"" help:"Show the profile of the logged in user"`
		Meetings commands.MeetingsCmd `cmd:"" help:"List meetings"`

		Debug    bool          `help:"Enable debug mode." env:"RECEPTION_DEBUG"`
		Config   string        `help:"Path to the YAML profile (default ~/.reception/config.yaml)" type:"path" env:"RECEPTION_CONFIG"`
		Server   string        `help:"API base URL" env:"RECEPTION_SERVER"`
		Store    string        `help:"Token store: file, sqlite or memory" env:"RECEPTION_STORE"`
		StoreDir string        `help:"Token store directory (default ~/.reception)" type:"path" env:"RECEPTION_STORE_DIR"`
		Timeout  time.Duration `help:"HTTP request timeout" env:"RECEPTION_TIMEOUT"`
		Tracing  bool          `help:"Enable tracing" env:"RECEPTION_TRACING"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("reception-cli"),
		kong.Description("Conference reception client."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	commands.SetupLogging(cli.Debug)
	err := cmd.Run(&commands.Globals{
		Debug:    cli.Debug,
		Version:  version,
		Config:   cli.Config,
		Server:   cli.Server,
		Store:    cli.Store,
		StoreDir: cli.StoreDir,
		Timeout:  cli.Timeout,
		Tracing:  cli.Tracing,
	})
	cmd.FatalIfErrorf(err)
}
