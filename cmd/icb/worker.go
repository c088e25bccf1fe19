package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/brojonat/influencechain/internal/config"
	"github.com/brojonat/influencechain/worker"
	"github.com/urfave/cli/v2"
)

func workerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "worker",
			Usage: "Run the verification worker",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "check-connection",
					Usage: "Check Temporal connection and exit (for health checks)",
					Value: false,
				},
			},
			Action: runWorker,
		},
	}
}

func runWorker(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := getDefaultLogger(slog.LevelInfo)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if c.Bool("check-connection") {
		return worker.CheckConnection(ctx, l, cfg.Temporal)
	}

	ec, closeChain, err := dialChain(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	return worker.RunWorker(ctx, l, cfg.Temporal, ec)
}
