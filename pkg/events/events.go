// Package events defines the event types published over the execution
// lifecycle event bus.
package events

import (
	"time"
)

type EventType string

// Kafka topic carrying execution lifecycle events.
const Topic = "weft.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent       EventType = "execution.started"
	ExecutionStepCompletedEvent EventType = "execution.step.completed"
	ExecutionCompletedEvent     EventType = "execution.completed"
	ExecutionFailedEvent        EventType = "execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	Variables    map[string]any `json:"variables,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionStepCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	StepType    string         `json:"step_type"`
	Output      map[string]any `json:"output,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e ExecutionStepCompleted) GetType() EventType {
	return ExecutionStepCompletedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	Status        string         `json:"status"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
	Result        map[string]any `json:"result,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ExecutionError carries the failure detail attached to a failed execution
// event.
type ExecutionError struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	Error         ExecutionError `json:"error"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
