// Package commands implements the autopage command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/autopage/internal/config"
	"git.home.luguber.info/inful/autopage/internal/daemon"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "autopage.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"autopage.yaml" env:"AUTOPAGE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API, directory watcher and background jobs"`
	Save    SaveCmd    `cmd:"" help:"Save a page revision from a file or stdin"`
	Show    ShowCmd    `cmd:"" help:"Print the current revision of a page"`
	History HistoryCmd `cmd:"" help:"List the revisions of a page"`
	Import  ImportCmd  `cmd:"" help:"Save every page source file in a directory"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// LoadConfig reads the configuration file and reconfigures logging from it.
// A missing file at the default path falls back to built-in defaults.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if errors.HasCategory(err, errors.CategoryNotFound) && c.Config == DefaultConfigPath {
		g.logger().Debug("No configuration file, using defaults", slog.String("path", c.Config))
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Monitoring.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// openRuntime loads the configuration and wires the wiki.
func (c *CLI) openRuntime(ctx context.Context, g *Global) (*daemon.Runtime, error) {
	cfg, err := c.LoadConfig(g)
	if err != nil {
		return nil, err
	}
	return daemon.Open(ctx, cfg, g.logger())
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
