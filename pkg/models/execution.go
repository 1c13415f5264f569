package models

import "time"

// ExecutionStatus represents the state machine of a single run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ExecutionError records the failure that aborted a run, with node-level detail.
type ExecutionError struct {
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id,omitempty"`
}

// ExecutionState is the mutable bag an execution carries between steps.
type ExecutionState struct {
	Variables   map[string]any  `json:"variables"`
	CurrentNode string          `json:"current_node,omitempty"`
	LastError   *ExecutionError `json:"last_error,omitempty"`
	RetryCount  int             `json:"retry_count"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	// Steps holds the executable payload per node id, filled in at compile time.
	Steps       map[string]*Step       `json:"steps,omitempty"`
	StepResults map[string]*StepResult `json:"step_results,omitempty"`
}

// Execution is one runtime instance of a workflow, tracked independently of
// the workflow definition. It is created by the compiler and mutated only by
// the engine during its run.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id" validate:"required"`
	Status      ExecutionStatus `json:"status"`
	State       *ExecutionState `json:"context"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Fail marks the execution failed and records the aborting error.
func (e *Execution) Fail(execErr *ExecutionError) {
	e.Status = ExecutionStatusFailed

	if e.State == nil {
		e.State = &ExecutionState{}
	}

	e.State.LastError = execErr
}

// Complete marks the execution completed at the given time.
func (e *Execution) Complete(at time.Time) {
	e.Status = ExecutionStatusCompleted
	e.CompletedAt = &at
}
