package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/events"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/registry"
	"github.com/maestrohq/maestro/pkg/runner"
)

// Orchestrator manages graph definitions and their runs. Run dispatch is
// fire-and-forget: API callers get the pending run record back immediately
// and follow progress through the run's status and logs.
type Orchestrator struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	runner      *runner.Runner
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewOrchestrator(
	persist persistence.Persistence,
	reg *registry.Registry,
	run *runner.Runner,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		persistence: persist,
		registry:    reg,
		runner:      run,
		publisher:   publisher,
		validator:   validator.New(),
		logger:      logger.With("module", "orchestrator"),
	}
}

// HealthCheck reports the persistence layer's health for the health
// endpoint.
func (o *Orchestrator) HealthCheck(ctx context.Context) (string, bool) {
	if o.persistence == nil {
		return "persistence layer not initialized", false
	}

	if err := o.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// SaveGraph validates and persists a graph definition. New graphs get an
// ID; existing graphs get their version bumped.
func (o *Orchestrator) SaveGraph(ctx context.Context, graph *models.GraphDefinition) (*models.GraphDefinition, error) {
	if graph == nil {
		return nil, ErrGraphNil
	}

	if err := o.validator.Struct(graph); err != nil {
		return nil, NewValidationError("save_graph", "INVALID_GRAPH", err.Error(), ErrInvalidRequest)
	}

	if len(graph.Nodes) == 0 {
		return nil, ErrNodesRequired
	}

	if err := graph.ValidateStructure(); err != nil {
		return nil, NewValidationError("save_graph", "INVALID_STRUCTURE", err.Error(), ErrInvalidRequest)
	}

	if err := o.registry.ValidateGraphNodes(graph); err != nil {
		return nil, NewValidationError("save_graph", "INVALID_NODE_CONFIG", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()

	if graph.ID == "" {
		graph.ID = uuid.New().String()
		graph.Version = 1
		graph.CreatedAt = now
	} else {
		existing, err := o.persistence.GraphByID(ctx, graph.ID)
		if err != nil && !errors.Is(err, persistence.ErrGraphNotFound) {
			return nil, fmt.Errorf("look up graph %s: %w", graph.ID, err)
		}

		if existing != nil {
			graph.Version = existing.Version + 1
			graph.CreatedAt = existing.CreatedAt
		} else if graph.Version == 0 {
			graph.Version = 1
			graph.CreatedAt = now
		}
	}

	graph.UpdatedAt = now

	if err := o.persistence.SaveGraph(ctx, graph); err != nil {
		return nil, fmt.Errorf("save graph %s: %w", graph.ID, err)
	}

	o.logger.Info("Graph saved", "graph_id", graph.ID, "version", graph.Version)

	return graph, nil
}

func (o *Orchestrator) Graphs(ctx context.Context, workspaceID string) ([]*models.GraphDefinition, error) {
	return o.persistence.Graphs(ctx, workspaceID)
}

func (o *Orchestrator) GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error) {
	return o.persistence.GraphByID(ctx, id)
}

func (o *Orchestrator) DeleteGraph(ctx context.Context, id string) error {
	return o.persistence.DeleteGraph(ctx, id)
}

// Run creates a pending run for the graph and dispatches execution in the
// background. The returned record is a snapshot of the pending state: the
// runner mutates its own copy concurrently, so callers never share memory
// with it.
func (o *Orchestrator) Run(ctx context.Context, graphID string, inputs map[string]any) (*models.RunRecord, error) {
	run, err := o.createRun(ctx, graphID, inputs)
	if err != nil {
		return nil, err
	}

	snapshot := run.Clone()

	go func() {
		// Detached from the request context: the run outlives the HTTP
		// request that started it.
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		if err := o.runner.Execute(ctx, run, inputs); err != nil {
			o.logger.Error("Run execution failed", "run_id", run.ID, "error", err)
		}
	}()

	return snapshot, nil
}

// RunSync executes the graph synchronously. Used by the CLI, where the
// caller wants the terminal state before exiting.
func (o *Orchestrator) RunSync(ctx context.Context, graphID string, inputs map[string]any) (*models.RunRecord, error) {
	run, err := o.createRun(ctx, graphID, inputs)
	if err != nil {
		return nil, err
	}

	if err := o.runner.Execute(ctx, run, inputs); err != nil {
		return run, err
	}

	return run, nil
}

func (o *Orchestrator) createRun(ctx context.Context, graphID string, inputs map[string]any) (*models.RunRecord, error) {
	graph, err := o.persistence.GraphByID(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("look up graph %s: %w", graphID, err)
	}

	run := &models.RunRecord{
		ID:               uuid.New().String(),
		GraphID:          graph.ID,
		Status:           models.RunStatusPending,
		CorrelationToken: runner.NewCorrelationToken(),
		Inputs:           inputs,
		Metadata:         make(map[string]any),
		CreatedAt:        time.Now().UTC(),
	}

	run.AppendLog("info", "run created", map[string]any{"graph": graph.Name})

	if err := o.persistence.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	return run, nil
}

func (o *Orchestrator) RunByID(ctx context.Context, runID string) (*models.RunRecord, error) {
	return o.persistence.RunByID(ctx, runID)
}

// Runs returns the graph's runs, newest first.
func (o *Orchestrator) Runs(ctx context.Context, graphID string) ([]*models.RunRecord, error) {
	if _, err := o.persistence.GraphByID(ctx, graphID); err != nil {
		return nil, fmt.Errorf("look up graph %s: %w", graphID, err)
	}

	return o.persistence.RunsByGraphID(ctx, graphID)
}

// HandleCallback resolves a callback token to its run and resumes it
// synchronously. The token is the run's correlation token; callback tokens
// minted for webhook URLs resolve through their embedded run ID.
func (o *Orchestrator) HandleCallback(ctx context.Context, token string, payload map[string]any) (*models.RunRecord, error) {
	run, err := o.persistence.RunByCorrelationToken(ctx, token)
	if errors.Is(err, persistence.ErrRunNotFound) {
		if _, runID, _, decodeErr := runner.DecodeCallbackToken(token); decodeErr == nil {
			run, err = o.persistence.RunByID(ctx, runID)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("resolve callback token: %w", err)
	}

	if o.publisher != nil {
		event := events.CallbackReceived{
			BaseEvent:     events.NewBaseEvent(events.CallbackReceivedEvent, run.GraphID, run.ID),
			CorrelationID: token,
		}
		if err := o.publisher.Publish(ctx, run.GraphID, event); err != nil {
			o.logger.Warn("Failed to publish callback event", "run_id", run.ID, "error", err)
		}
	}

	if err := o.runner.Resume(ctx, run, payload); err != nil {
		return run, fmt.Errorf("resume run %s: %w", run.ID, err)
	}

	return run, nil
}
