// Package events defines event types and structures for run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every run lifecycle event.
const Topic = "maestro.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent       EventType = "run.started"
	RunNodeExecutedEvent  EventType = "run.node.executed"
	RunPausedEvent        EventType = "run.paused"
	RunResumedEvent       EventType = "run.resumed"
	RunCompletedEvent     EventType = "run.completed"
	RunFailedEvent        EventType = "run.failed"
	CallbackReceivedEvent EventType = "run.callback.received"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	GraphID   string         `json:"graph_id"`
	RunID     string         `json:"run_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps identity and time for an event.
func NewBaseEvent(eventType EventType, graphID, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		GraphID:   graphID,
		RunID:     runID,
	}
}

type RunStarted struct {
	BaseEvent

	Inputs map[string]any `json:"inputs,omitempty"`
}

func (e RunStarted) GetType() EventType { return RunStartedEvent }

type RunNodeExecuted struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

func (e RunNodeExecuted) GetType() EventType { return RunNodeExecutedEvent }

type RunPaused struct {
	BaseEvent

	NodeID           string `json:"node_id"`
	CorrelationToken string `json:"correlation_token"`
}

func (e RunPaused) GetType() EventType { return RunPausedEvent }

type RunResumed struct {
	BaseEvent
}

func (e RunResumed) GetType() EventType { return RunResumedEvent }

type RunCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType { return RunCompletedEvent }

type RunFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType { return RunFailedEvent }

type CallbackReceived struct {
	BaseEvent

	CorrelationID string `json:"correlation_id"`
}

func (e CallbackReceived) GetType() EventType { return CallbackReceivedEvent }
