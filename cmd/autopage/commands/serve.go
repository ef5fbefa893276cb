package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autopage/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Override server.addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	rt, err := daemon.Open(ctx, cfg, g.logger())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	d, err := daemon.New(rt)
	if err != nil {
		return err
	}
	g.logger().Info("Starting autopage; press Ctrl+C to stop")
	return d.Run(ctx)
}
