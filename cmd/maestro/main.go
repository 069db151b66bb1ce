// Package main provides the Maestro command line interface for working with
// graphs locally.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/maestrohq/maestro/pkg/cmd"
	"github.com/maestrohq/maestro/pkg/log"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/providers"
	"github.com/maestrohq/maestro/pkg/providers/n8n"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/runner"
	"github.com/maestrohq/maestro/pkg/services"
)

var databaseFlag = &cli.StringFlag{
	Name:     "database-url",
	Usage:    "Database connection URL for persistence",
	Required: true,
	Sources:  cli.EnvVars("DATABASE_URL"),
}

func main() {
	logger := log.WithModule("cli")

	command := &cli.Command{
		Name:                  "maestro",
		Usage:                 "Run and inspect orchestration graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Execute a graph synchronously and print the run record",
				Flags: []cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:     "graph-id",
						Usage:    "ID of the graph to run",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "inputs",
						Usage: "Run inputs as a JSON object",
					},
					&cli.StringFlag{
						Name:    "flow-engine-url",
						Usage:   "Base URL of the local flow engine",
						Sources: cli.EnvVars("FLOW_ENGINE_URL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"), "text")

					inputs := map[string]any{}
					if raw := command.String("inputs"); raw != "" {
						if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
							return fmt.Errorf("invalid inputs: %w", err)
						}
					}

					orchestrator, closeFn, err := newOrchestrator(ctx, logger, command)
					if err != nil {
						return err
					}
					defer closeFn()

					run, err := orchestrator.RunSync(ctx, command.String("graph-id"), inputs)
					if err != nil {
						return err
					}

					return printJSON(run)
				},
			},
			{
				Name:  "graphs",
				Usage: "List stored graphs",
				Flags: []cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:  "workspace-id",
						Usage: "Filter graphs by workspace",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"), "text")

					orchestrator, closeFn, err := newOrchestrator(ctx, logger, command)
					if err != nil {
						return err
					}
					defer closeFn()

					graphs, err := orchestrator.Graphs(ctx, command.String("workspace-id"))
					if err != nil {
						return err
					}

					return printJSON(graphs)
				},
			},
			{
				Name:  "runs",
				Usage: "List runs of a graph, newest first",
				Flags: []cli.Flag{
					databaseFlag,
					&cli.StringFlag{
						Name:     "graph-id",
						Usage:    "ID of the graph",
						Required: true,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"), "text")

					orchestrator, closeFn, err := newOrchestrator(ctx, logger, command)
					if err != nil {
						return err
					}
					defer closeFn()

					runs, err := orchestrator.Runs(ctx, command.String("graph-id"))
					if err != nil {
						return err
					}

					return printJSON(runs)
				},
			},
			{
				Name:  "validate",
				Usage: "Validate a graph definition from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the graph definition JSON",
						Required: true,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"), "text")

					raw, err := os.ReadFile(command.String("file"))
					if err != nil {
						return err
					}

					var graph models.GraphDefinition
					if err := json.Unmarshal(raw, &graph); err != nil {
						return fmt.Errorf("invalid graph definition: %w", err)
					}

					if err := graph.ValidateStructure(); err != nil {
						return err
					}

					reg := registry.NewDefaultRegistry(logger, nil, "")
					if err := reg.ValidateGraphNodes(&graph); err != nil {
						return err
					}

					fmt.Println("graph is valid")

					return nil
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// newOrchestrator wires the local orchestration stack without an event bus.
func newOrchestrator(ctx context.Context, logger *slog.Logger, command *cli.Command) (*services.Orchestrator, func(), error) {
	persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, err
	}

	catalog := providers.NewCatalog(persist)
	catalog.Register(n8n.NewAdapter())

	reg := registry.NewDefaultRegistry(logger, catalog, command.String("flow-engine-url"))
	run := runner.NewRunner(persist, reg, nil, nil, logger)
	orchestrator := services.NewOrchestrator(persist, reg, run, nil, logger)

	closeFn := func() {
		if err := persist.Close(ctx); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}

	return orchestrator, closeFn, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
