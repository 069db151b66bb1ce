package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/maestrohq/maestro/pkg/cmd"
	"github.com/maestrohq/maestro/pkg/log"
	"github.com/maestrohq/maestro/pkg/otelhelper"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/providers/n8n"
	"github.com/maestrohq/maestro/pkg/registry"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "maestro-api",
		Usage:                 "Create and run orchestration graphs",
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
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for cross-process run leases",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "flow-engine-url",
				Usage:   "Base URL of the local flow engine",
				Sources: cli.EnvVars("FLOW_ENGINE_URL"),
			},
			&cli.StringFlag{
				Name:    "health-check-schedule",
				Usage:   "Cron schedule for connection health sweeps",
				Value:   "@hourly",
				Sources: cli.EnvVars("HEALTH_CHECK_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing for node execution",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger.InfoContext(ctx, "Initializing Maestro API")

			persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			catalog := providers.NewCatalog(persist)
			catalog.Register(n8n.NewAdapter())

			reg := registry.NewDefaultRegistry(logger, catalog, command.String("flow-engine-url"))

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker, err := cmd.NewLocker(command.String("redis-url"))
			if err != nil {
				return err
			}

			api := NewAPI(logger, persist, catalog, reg, eventBus, locker)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "maestro-api")
				if err != nil {
					return err
				}

				api.runner.WithTracer(tracer)
			}

			monitor := api.Monitor(command.String("health-check-schedule"))
			if err := monitor.Start(); err != nil {
				return err
			}

			defer monitor.Stop()

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
