// Package engine orchestrates a full workflow run: fetch, validate,
// optimize, compile, then execute the node list step by step.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/weftlabs/weft/pkg/compiler"
	"github.com/weftlabs/weft/pkg/eventbus"
	"github.com/weftlabs/weft/pkg/events"
	"github.com/weftlabs/weft/pkg/execution"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/optimizer"
	"github.com/weftlabs/weft/pkg/otelhelper"
	"github.com/weftlabs/weft/pkg/validator"
)

const stepFailureCode = "STEP_EXECUTION_ERROR"

// Result is the aggregated outcome of a completed run.
type Result struct {
	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
	Steps       []*models.StepResult   `json:"steps"`
	Metadata    ResultMetadata         `json:"metadata"`
}

type ResultMetadata struct {
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   time.Time     `json:"completed_at"`
	Duration      time.Duration `json:"duration"`
	StepsExecuted int           `json:"steps_executed"`
}

// Engine runs workflows. A single run executes its steps strictly one at a
// time, in optimized node order, and aborts on the first step failure with no
// retry or rollback.
type Engine struct {
	validator    *validator.WorkflowValidator
	optimizer    *optimizer.Optimizer
	compiler     *compiler.Compiler
	execContext  *execution.Context
	stepExecutor *execution.StepExecutor
	eventBus     eventbus.EventBus
	tracer       trace.Tracer
	workerID     string
	logger       *slog.Logger
}

func New(
	wfValidator *validator.WorkflowValidator,
	wfOptimizer *optimizer.Optimizer,
	wfCompiler *compiler.Compiler,
	execContext *execution.Context,
	stepExecutor *execution.StepExecutor,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	workerID string,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		validator:    wfValidator,
		optimizer:    wfOptimizer,
		compiler:     wfCompiler,
		execContext:  execContext,
		stepExecutor: stepExecutor,
		eventBus:     eventBus,
		tracer:       tracer,
		workerID:     workerID,
		logger:       logger.With("module", "engine"),
	}
}

// ExecuteWorkflow runs the workflow end to end and returns the aggregated
// result. On a step failure the execution is marked failed with the aborting
// error recorded, remaining steps are skipped, and the step error is
// returned.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string) (*Result, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String("weft.workflow.id", workflowID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflowID)

	workflow, err := e.execContext.WorkflowData(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := e.validator.Validate(workflow); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	optimized, err := e.optimizer.Optimize(workflow)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	compiled, err := e.compiler.Compile(ctx, optimized)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	exec, err := e.execContext.ExecutionData(ctx, compiled.ID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String("weft.execution.id", exec.ID))
	logger = logger.With("execution_id", exec.ID)
	logger.Info("Starting workflow execution", "nodes", len(optimized.Nodes))

	e.publish(ctx, exec.ID, events.ExecutionStarted{
		BaseEvent:    e.baseEvent(events.ExecutionStartedEvent, workflowID),
		ExecutionID:  exec.ID,
		WorkflowName: workflow.Name,
		Variables:    exec.State.Variables,
	})

	results := make([]*models.StepResult, 0, len(optimized.Nodes))

	for _, node := range optimized.Nodes {
		if node.Step == nil {
			continue
		}

		stepStart := time.Now()

		output, stepErr := e.stepExecutor.ExecuteStep(ctx, exec, node.ID, exec.State.Variables)
		if stepErr != nil {
			return nil, e.failExecution(ctx, exec, node.ID, stepStart, len(results), stepErr)
		}

		result := exec.State.StepResults[node.ID]
		results = append(results, result)

		e.publish(ctx, exec.ID, events.ExecutionStepCompleted{
			BaseEvent:   e.baseEvent(events.ExecutionStepCompletedEvent, workflowID),
			ExecutionID: exec.ID,
			NodeID:      node.ID,
			StepType:    string(node.Step.Type),
			Output:      output,
			DurationMs:  time.Since(stepStart).Milliseconds(),
		})
	}

	completedAt := time.Now().UTC()
	exec.Complete(completedAt)

	if err := e.execContext.SaveExecution(ctx, exec); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	duration := completedAt.Sub(exec.StartedAt)

	e.publish(ctx, exec.ID, events.ExecutionCompleted{
		BaseEvent:     e.baseEvent(events.ExecutionCompletedEvent, workflowID),
		ExecutionID:   exec.ID,
		Status:        string(exec.Status),
		DurationMs:    duration.Milliseconds(),
		StepsExecuted: len(results),
	})

	logger.Info("Workflow execution completed", "steps_executed", len(results), "duration", duration)

	return &Result{
		ExecutionID: exec.ID,
		Status:      exec.Status,
		Steps:       results,
		Metadata: ResultMetadata{
			StartedAt:     exec.StartedAt,
			CompletedAt:   completedAt,
			Duration:      duration,
			StepsExecuted: len(results),
		},
	}, nil
}

// failExecution records the aborting step error on the execution, persists
// it, emits the failure event and returns the original step error unchanged.
func (e *Engine) failExecution(ctx context.Context, exec *models.Execution, nodeID string, stepStart time.Time, stepsExecuted int, stepErr error) error {
	execError := &models.ExecutionError{
		Message:   stepErr.Error(),
		Code:      stepFailureCode,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
	}

	exec.Fail(execError)

	if saveErr := e.execContext.SaveExecution(ctx, exec); saveErr != nil {
		e.logger.Error("Failed to persist failed execution",
			"execution_id", exec.ID, "error", saveErr)
	}

	e.publish(ctx, exec.ID, events.ExecutionFailed{
		BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, exec.WorkflowID),
		ExecutionID: exec.ID,
		Error: events.ExecutionError{
			NodeID:  nodeID,
			Message: execError.Message,
			Code:    execError.Code,
		},
		DurationMs:    time.Since(stepStart).Milliseconds(),
		StepsExecuted: stepsExecuted,
	})

	return stepErr
}

func (e *Engine) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         e.eventBus.GenerateID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		WorkerID:   e.workerID,
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
