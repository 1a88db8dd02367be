package commands

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/reception/internal/config"
	"github.com/wolfeidau/reception/internal/logger"
)

// SetupLogging configures the global logger. Without debug only warnings
// reach stderr so command output stays readable.
func SetupLogging(debug bool) {
	l := logger.Setup(debug)
	if !debug {
		l = l.Level(zerolog.WarnLevel)
	}
	log.Logger = l
}

type Globals struct {
	Debug    bool
	Version  string
	Config   string
	Server   string
	Store    string
	StoreDir string
	Timeout  time.Duration
	Tracing  bool

	In  io.Reader
	Out io.Writer
}

func (g *Globals) stdin() io.Reader {
	if g.In == nil {
		return os.Stdin
	}
	return g.In
}

func (g *Globals) stdout() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// Profile layers the flags over the YAML profile over the defaults.
func (g *Globals) Profile() (config.Profile, error) {
	path := g.Config
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Profile{}, err
		}
	}

	fromFile, err := config.Load(path)
	if err != nil {
		return config.Profile{}, err
	}

	p := config.Defaults().
		Merge(fromFile).
		Merge(config.Profile{
			Server:   g.Server,
			Store:    g.Store,
			StoreDir: g.StoreDir,
			Timeout:  g.Timeout,
			Tracing:  g.Tracing,
		})

	if err := p.Validate(); err != nil {
		return config.Profile{}, err
	}

	return p, nil
}
