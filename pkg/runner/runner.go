// Package runner executes graph definitions: breadth-first traversal from
// the entry nodes, per-node dispatch through registered handlers, durable
// suspension on callback nodes and resumption from persisted state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maestrohq/maestro/pkg/eventbus"
	"github.com/maestrohq/maestro/pkg/events"
	"github.com/maestrohq/maestro/pkg/lease"
	"github.com/maestrohq/maestro/pkg/models"
	"github.com/maestrohq/maestro/pkg/otelhelper"
	"github.com/maestrohq/maestro/pkg/persistence"
	"github.com/maestrohq/maestro/pkg/protocol"
)

// leaseTTL bounds how long a crashed process can block execute/resume of
// the same run.
const leaseTTL = 5 * time.Minute

// NodeRegistry creates a handler for a graph node from its declared type
// and configuration.
type NodeRegistry interface {
	CreateNode(ctx context.Context, node *models.Node) (protocol.NodeHandler, error)
}

// Runner drives run records through their graph. A run is mutated by at
// most one Execute or Resume at a time, enforced by a per-run lease.
type Runner struct {
	persistence persistence.Persistence
	registry    NodeRegistry
	publisher   eventbus.EventPublisher
	locker      lease.Locker
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewRunner wires a runner. Publisher may be nil when no event bus is
// configured; locker may be nil to fall back to in-process locking.
func NewRunner(
	persist persistence.Persistence,
	registry NodeRegistry,
	publisher eventbus.EventPublisher,
	locker lease.Locker,
	logger *slog.Logger,
) *Runner {
	if locker == nil {
		locker = lease.NewMemoryLocker()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		persistence: persist,
		registry:    registry,
		publisher:   publisher,
		locker:      locker,
		logger:      logger.With("module", "runner"),
	}
}

// WithTracer enables per-node spans.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	r.tracer = tracer

	return r
}

// Execute runs the graph for the given run record. Handler and persistence
// failures mark the run failed and are returned to the caller; a graph
// with no entry nodes fails the run but returns nil, so fire-and-forget
// callers never observe it as a dispatch error.
func (r *Runner) Execute(ctx context.Context, run *models.RunRecord, inputs map[string]any) error {
	release, err := r.locker.Acquire(ctx, run.ID, leaseTTL)
	if err != nil {
		return fmt.Errorf("acquire lease for run %s: %w", run.ID, err)
	}
	defer release()

	logger := r.logger.With("run_id", run.ID, "graph_id", run.GraphID)

	graph, err := r.persistence.GraphByID(ctx, run.GraphID)
	if err != nil {
		return r.failRun(ctx, run, fmt.Errorf("fetch graph %s: %w", run.GraphID, err), logger)
	}

	if run.Status == models.RunStatusPending {
		now := time.Now().UTC()
		run.StartedAt = &now

		if err := run.Transition(models.RunStatusRunning); err != nil {
			return err
		}

		run.AppendLog("info", "run started", map[string]any{"graph": graph.Name})

		if err := r.persistence.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("persist run %s: %w", run.ID, err)
		}

		r.publish(ctx, run, events.RunStarted{
			BaseEvent: events.NewBaseEvent(events.RunStartedEvent, run.GraphID, run.ID),
			Inputs:    inputs,
		})
	}

	if len(graph.EntryNodes()) == 0 {
		_ = r.failRun(ctx, run, errors.New("graph has no entry nodes"), logger)

		return nil
	}

	var current any
	if inputs != nil {
		current = inputs
	}

	return r.traverse(ctx, graph, run, current, logger)
}

// Resume records an external callback on the run and, when the run is
// waiting, continues traversal with the callback payload as the current
// data. Callbacks on non-waiting runs are persisted without resuming.
func (r *Runner) Resume(ctx context.Context, run *models.RunRecord, callbackData map[string]any) error {
	release, err := r.locker.Acquire(ctx, run.ID, leaseTTL)
	if err != nil {
		return fmt.Errorf("acquire lease for run %s: %w", run.ID, err)
	}
	defer release()

	logger := r.logger.With("run_id", run.ID, "graph_id", run.GraphID)

	correlation := run.CorrelationToken
	if correlation == "" {
		correlation = run.ID
	}

	run.AppendLog("info", fmt.Sprintf("callback received for %s", correlation), callbackData)

	if run.Metadata == nil {
		run.Metadata = make(map[string]any)
	}

	run.Metadata[models.MetaCallbackData] = callbackData
	run.Metadata[models.MetaCallbackAt] = time.Now().UTC().Format(time.RFC3339)

	if run.Status != models.RunStatusWaiting {
		logger.Info("Callback recorded for non-waiting run", "status", run.Status)

		return r.persistence.SaveRun(ctx, run)
	}

	if err := run.Transition(models.RunStatusRunning); err != nil {
		return err
	}

	if suspended, ok := run.Metadata[models.MetaSuspendedNode].(string); ok && suspended != "" {
		run.MarkNodeCompleted(suspended)
		run.SetNodeOutput(suspended, callbackData)
		delete(run.Metadata, models.MetaSuspendedNode)
	}

	if err := r.persistence.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("persist run %s: %w", run.ID, err)
	}

	r.publish(ctx, run, events.RunResumed{
		BaseEvent: events.NewBaseEvent(events.RunResumedEvent, run.GraphID, run.ID),
	})

	logger.Info("Run resumed")

	graph, err := r.persistence.GraphByID(ctx, run.GraphID)
	if err != nil {
		return r.failRun(ctx, run, fmt.Errorf("fetch graph %s: %w", run.GraphID, err), logger)
	}

	var current any
	if callbackData != nil {
		current = callbackData
	}

	return r.traverse(ctx, graph, run, current, logger)
}

// traverse walks the graph breadth-first from its entry nodes. Nodes found
// in the durable completion ledger are not re-executed; their persisted
// outputs feed the pipeline so resumption is transparent to handlers.
func (r *Runner) traverse(
	ctx context.Context,
	graph *models.GraphDefinition,
	run *models.RunRecord,
	current any,
	logger *slog.Logger,
) error {
	successors := graph.Successors()
	predecessors := graph.Predecessors()
	protection := boundaryProtection(graph, successors)

	completed := make(map[string]bool)
	for _, id := range run.CompletedNodes() {
		completed[id] = true
	}

	outputs := run.NodeOutputs()

	var queue []string

	enqueued := make(map[string]bool)

	enqueue := func(ids []string) {
		for _, id := range ids {
			if !enqueued[id] {
				enqueued[id] = true
				queue = append(queue, id)
			}
		}
	}

	for _, node := range graph.EntryNodes() {
		enqueue([]string{node.ID})
	}

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]

		node, found := graph.NodeByID(nodeID)
		if !found {
			return r.failRun(ctx, run, fmt.Errorf("edge references unknown node %q", nodeID), logger)
		}

		if completed[nodeID] {
			if out, ok := outputs[nodeID]; ok {
				current = out
			}

			enqueue(selectTargets(successors[nodeID], run.SelectedTargets(nodeID)))

			continue
		}

		outcome, err := r.executeNode(ctx, graph, run, node, outputs, predecessors[nodeID], current, logger)
		if err != nil {
			if fallback, protected := protection[nodeID]; protected {
				logger.Warn("Node failed inside error boundary",
					"node_id", nodeID, "fallback", fallback, "error", err)
				run.AppendLog("warn",
					fmt.Sprintf("node %s failed, continuing at %s: %s", nodeID, fallback, err), nil)

				if err := r.persistence.SaveRun(ctx, run); err != nil {
					return fmt.Errorf("persist run %s: %w", run.ID, err)
				}

				enqueue([]string{fallback})

				continue
			}

			return r.failRun(ctx, run, fmt.Errorf("node %s: %w", nodeID, err), logger)
		}

		if outcome.Suspend {
			if run.Metadata == nil {
				run.Metadata = make(map[string]any)
			}

			run.Metadata[models.MetaSuspendedNode] = nodeID
			run.AppendLog("info", fmt.Sprintf("run paused at node %s awaiting callback", nodeID), nil)

			if err := run.Transition(models.RunStatusWaiting); err != nil {
				return err
			}

			if err := r.persistence.SaveRun(ctx, run); err != nil {
				return fmt.Errorf("persist run %s: %w", run.ID, err)
			}

			r.publish(ctx, run, events.RunPaused{
				BaseEvent:        events.NewBaseEvent(events.RunPausedEvent, run.GraphID, run.ID),
				NodeID:           nodeID,
				CorrelationToken: run.CorrelationToken,
			})

			logger.Info("Run paused awaiting callback", "node_id", nodeID)

			return nil
		}

		current = outcome.Data
		completed[nodeID] = true
		outputs[nodeID] = outcome.Data
		run.MarkNodeCompleted(nodeID)
		run.SetNodeOutput(nodeID, outcome.Data)

		if outcome.SelectedTargets != nil {
			run.SetSelectedTargets(nodeID, outcome.SelectedTargets)
		}

		run.AppendLog("info", fmt.Sprintf("executed node %s (%s)", nodeID, node.Type), nil)

		if err := r.persistence.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("persist run %s: %w", run.ID, err)
		}

		r.publish(ctx, run, events.RunNodeExecuted{
			BaseEvent: events.NewBaseEvent(events.RunNodeExecutedEvent, run.GraphID, run.ID),
			NodeID:    nodeID,
			NodeType:  node.Type,
		})

		enqueue(selectTargets(successors[nodeID], outcome.SelectedTargets))
	}

	if err := run.Transition(models.RunStatusCompleted); err != nil {
		return err
	}

	run.AppendLog("info", "run completed", nil)

	if err := r.persistence.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("persist run %s: %w", run.ID, err)
	}

	r.publish(ctx, run, events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, run.GraphID, run.ID),
		Duration:  r.runDuration(run),
	})

	logger.Info("Run completed", "duration", r.runDuration(run))

	return nil
}

func (r *Runner) executeNode(
	ctx context.Context,
	graph *models.GraphDefinition,
	run *models.RunRecord,
	node *models.Node,
	outputs map[string]any,
	predecessors []string,
	current any,
	logger *slog.Logger,
) (protocol.NodeOutcome, error) {
	nodeLogger := logger.With("node_id", node.ID, "node_type", node.Type)

	var span trace.Span

	if r.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "node.execute",
			attribute.String(otelhelper.GraphIDKey, graph.ID),
			attribute.String(otelhelper.RunIDKey, run.ID),
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, node.Type),
		)
		defer span.End()
	}

	handler, err := r.registry.CreateNode(ctx, node)
	if err != nil {
		return protocol.NodeOutcome{}, fmt.Errorf("create handler for node type %q: %w", node.Type, err)
	}

	inputs := make(map[string]any, len(predecessors))

	for _, pred := range predecessors {
		if out, ok := outputs[pred]; ok {
			inputs[pred] = out
		}
	}

	nodeLogger.Info("Executing node")

	outcome, err := handler.Execute(ctx, protocol.ExecutionScope{
		Graph:   graph,
		Run:     run,
		Node:    node,
		Inputs:  inputs,
		Current: current,
		Logger:  nodeLogger,
	})
	if err != nil {
		if span != nil {
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.NodeIDKey, node.ID))
		}

		nodeLogger.Error("Node execution failed", "error", err)

		return protocol.NodeOutcome{}, err
	}

	return outcome, nil
}

// failRun marks the run failed, persists it and publishes the failure.
// Persistence errors here are logged, not returned: the run's failure is
// the error that matters to the caller.
func (r *Runner) failRun(ctx context.Context, run *models.RunRecord, cause error, logger *slog.Logger) error {
	logger.Error("Run failed", "error", cause)
	run.AppendLog("error", cause.Error(), nil)

	if run.Status.CanTransitionTo(models.RunStatusFailed) {
		_ = run.Transition(models.RunStatusFailed)
	}

	if err := r.persistence.SaveRun(ctx, run); err != nil {
		logger.Error("Failed to persist failed run", "error", err)
	}

	r.publish(ctx, run, events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, run.GraphID, run.ID),
		Error:     cause.Error(),
		Duration:  r.runDuration(run),
	})

	return cause
}

func (r *Runner) publish(ctx context.Context, run *models.RunRecord, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, run.GraphID, event); err != nil {
		r.logger.Warn("Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}

func (r *Runner) runDuration(run *models.RunRecord) time.Duration {
	if run.StartedAt == nil {
		return 0
	}

	end := time.Now().UTC()
	if run.FinishedAt != nil {
		end = *run.FinishedAt
	}

	return end.Sub(*run.StartedAt)
}

// selectTargets narrows successors to the selected IDs. A nil selection
// keeps all successors.
func selectTargets(successors, selected []string) []string {
	if selected == nil {
		return successors
	}

	keep := make(map[string]bool, len(selected))
	for _, id := range selected {
		keep[id] = true
	}

	targets := make([]string, 0, len(successors))

	for _, id := range successors {
		if keep[id] {
			targets = append(targets, id)
		}
	}

	return targets
}

// boundaryProtection maps every node downstream of an error boundary to
// that boundary's fallback node. Protection is structural, so it is
// derived from the graph alone and holds across suspension and resume.
func boundaryProtection(graph *models.GraphDefinition, successors map[string][]string) map[string]string {
	protection := make(map[string]string)

	for _, node := range graph.Nodes {
		if node.Type != models.NodeTypeErrorBoundary {
			continue
		}

		fallback, _ := node.Config["fallback"].(string)
		if fallback == "" {
			continue
		}

		queue := []string{}

		for _, succ := range successors[node.ID] {
			if succ != fallback {
				queue = append(queue, succ)
			}
		}

		visited := map[string]bool{node.ID: true, fallback: true}

		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]

			if visited[id] {
				continue
			}

			visited[id] = true

			if _, claimed := protection[id]; !claimed {
				protection[id] = fallback
			}

			queue = append(queue, successors[id]...)
		}
	}

	return protection
}
