// Package main provides the Weft worker: it consumes execution requests from
// the queue and runs them through the engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/weftlabs/weft/pkg/cmd"
	"github.com/weftlabs/weft/pkg/compiler"
	"github.com/weftlabs/weft/pkg/engine"
	"github.com/weftlabs/weft/pkg/execution"
	"github.com/weftlabs/weft/pkg/log"
	"github.com/weftlabs/weft/pkg/mapper"
	"github.com/weftlabs/weft/pkg/optimizer"
	"github.com/weftlabs/weft/pkg/otelhelper"
	"github.com/weftlabs/weft/pkg/queue"
	"github.com/weftlabs/weft/pkg/scheduler"
	"github.com/weftlabs/weft/pkg/validator"
)

func main() {
	command := &cli.Command{
		Name:                  "weft-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
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
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("weft-worker").With("worker_id", workerID)
	logger.InfoContext(ctx, "Initializing Weft Worker")

	persistence := cmd.MustPersistence(ctx, logger, command.String("database-url"))

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), "weft-worker", logger)

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	tracer, err := otelhelper.NewTracer(ctx, "weft-worker")
	if err != nil {
		return err
	}

	registry, _ := cmd.NewConnectorRegistry(logger)

	wfValidator := validator.New()
	wfOptimizer := optimizer.New(wfValidator, logger)
	execContext := execution.NewContext(persistence, wfValidator, logger)
	dataMapper := mapper.New(logger)
	stepExecutor := execution.NewStepExecutor(registry, dataMapper, tracer, logger)
	wfCompiler := compiler.New(wfValidator, wfOptimizer, execContext, logger)

	wfEngine := engine.New(
		wfValidator,
		wfOptimizer,
		wfCompiler,
		execContext,
		stepExecutor,
		eventBus,
		tracer,
		workerID,
		logger,
	)

	executionQueue, err := queue.NewQueue(ctx, queue.Config{
		Addr: command.String("redis-addr"),
	}, logger)
	if err != nil {
		return err
	}

	cronScheduler := scheduler.New(executionQueue, logger)
	if err := registerSchedules(ctx, persistence, cronScheduler, logger); err != nil {
		return err
	}

	cronScheduler.Start()
	defer cronScheduler.Stop()

	err = executionQueue.Start(ctx, func(ctx context.Context, request queue.ExecutionRequest) error {
		_, execErr := wfEngine.ExecuteWorkflow(ctx, request.WorkflowID)

		return execErr
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Weft Worker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.InfoContext(ctx, "Shutting down Weft Worker")

	return executionQueue.Stop(ctx)
}
