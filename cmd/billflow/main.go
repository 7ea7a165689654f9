package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/config"
	"github.com/smallbiznis/billflow/internal/migration"
	"github.com/smallbiznis/billflow/internal/observability"
	"github.com/smallbiznis/billflow/internal/server"
	"github.com/smallbiznis/billflow/pkg/db"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

func main() {
	app := &cli.App{
		Name:  "billflow",
		Usage: "small-business billing backend",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "migrate the schema and serve the HTTP API",
				Action: func(*cli.Context) error {
					fx.New(
						config.Module,
						observability.Module,
						fx.Provide(RegisterSnowflake),
						db.Module,
						clock.Module,
						migration.Module,
						server.Module,
					).Run()
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations, seed demo data when enabled, and exit",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "timeout", Value: time.Minute},
				},
				Action: func(c *cli.Context) error {
					app := fx.New(
						config.Module,
						observability.Module,
						fx.Provide(RegisterSnowflake),
						db.Module,
						migration.Module,
					)

					ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
					defer cancel()
					if err := app.Start(ctx); err != nil {
						return fmt.Errorf("migrate: %w", err)
					}
					return app.Stop(ctx)
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
