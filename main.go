package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"royalwager/cmd"
	"royalwager/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Usage:   "path to a TOML config file",
		Sources: cli.EnvVars("CONFIG_FILE"),
	}
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ConfigureLogging(cfg)
	return cfg, nil
}

func runServer(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cmd.Run(ctx, cfg)
}

func runMigrateUp(_ context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cmd.MigrateUp(cfg)
}

func runMigrateDown(_ context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cmd.MigrateDown(cfg, c.Int("steps"))
}

func runMigrateStatus(_ context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cmd.MigrateStatus(cfg)
}

func main() {
	app := &cli.Command{
		Name:  "royalwager",
		Usage: "escrowed 1v1 Clash Royale wagers",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Flags:  []cli.Flag{configFlag()},
				Action: runServer,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Flags:  []cli.Flag{configFlag()},
						Action: runMigrateUp,
					},
					{
						Name: "down",
						Flags: []cli.Flag{
							configFlag(),
							&cli.IntFlag{
								Name:  "steps",
								Value: 1,
							},
						},
						Action: runMigrateDown,
					},
					{
						Name:   "status",
						Flags:  []cli.Flag{configFlag()},
						Action: runMigrateStatus,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
