package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/influencechain/evm"
	"github.com/brojonat/influencechain/http"
	"github.com/brojonat/influencechain/internal/cache"
	"github.com/brojonat/influencechain/internal/config"
	"github.com/urfave/cli/v2"
	"go.temporal.io/sdk/client"
)

func serverCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "http-server",
			Usage: "Run the HTTP server",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "port",
					Aliases: []string{"p"},
					Usage:   "Port to listen on (overrides SERVER_PORT)",
				},
				&cli.StringFlag{
					Name:    "temporal-address",
					Aliases: []string{"ta"},
					Usage:   "Temporal server address (overrides TEMPORAL_ADDRESS)",
				},
				&cli.BoolFlag{
					Name:  "debug",
					Usage: "Log at debug level",
				},
			},
			Action: runServer,
		},
	}
}

// dialChain connects the shared read client for cfg.
func dialChain(ctx context.Context, cfg *config.Config) (*evm.Client, func(), error) {
	ecfg, err := cfg.Chain.EVMConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chain config: %w", err)
	}
	return evm.Dial(ctx, ecfg)
}

func runServer(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lvl := slog.LevelInfo
	if c.Bool("debug") {
		lvl = slog.LevelDebug
	}
	logger := getDefaultLogger(lvl)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if c.IsSet("temporal-address") {
		cfg.Temporal.Address = c.String("temporal-address")
	}

	ec, closeChain, err := dialChain(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeChain()

	store, closeCache, err := cache.New(ctx, cfg.Cache.Backend, cfg.Cache.RedisURL, cfg.Cache.Size)
	if err != nil {
		return fmt.Errorf("failed to set up cache: %w", err)
	}
	defer closeCache()

	// Lazy so the read API comes up even when Temporal is not reachable yet.
	tc, err := client.NewLazyClient(client.Options{
		Logger:    logger,
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to create temporal client: %w", err)
	}
	defer tc.Close()

	deps := http.Deps{
		Reader:   ec,
		Tx:       evm.NewTxBuilder(ec.ChainID(), ec.Addresses()),
		Temporal: tc,
		Cache:    store,
		Now:      time.Now,
	}
	return http.RunServer(ctx, logger, cfg, deps)
}
