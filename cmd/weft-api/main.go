package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/weftlabs/weft/pkg/cmd"
	"github.com/weftlabs/weft/pkg/log"
	"github.com/weftlabs/weft/pkg/queue"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "weft-api",
		Usage:                 "Create, manage and execute workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the execution queue",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Weft API")

			persistence := cmd.MustPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			executionQueue, err := queue.NewQueue(ctx, queue.Config{
				Addr: command.String("redis-addr"),
			}, logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := executionQueue.Stop(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to stop execution queue", "error", err)
				}
			}()

			registry, factory := cmd.NewConnectorRegistry(logger)

			api := NewAPI(
				logger,
				persistence,
				registry,
				factory,
				executionQueue,
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
