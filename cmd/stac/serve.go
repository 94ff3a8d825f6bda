package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-stac-api/internal/api"
	"github.com/robert-malhotra/go-stac-api/internal/assetcheck"
	"github.com/robert-malhotra/go-stac-api/internal/config"
	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/store"
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the STAC API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("STAC_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	if err := expectArgs(cmd, 0, ""); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	st, err := store.Open(store.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close store")
		}
	}()
	logging.Info().Str("driver", cfg.Store.Driver).Msg("store opened")

	checker, err := assetcheck.New(ctx, cfg.Assets)
	if err != nil {
		return fmt.Errorf("asset checker: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.New(cfg, st, api.WithChecker(checker)).Run(ctx)
}
