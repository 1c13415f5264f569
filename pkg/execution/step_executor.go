package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/weftlabs/weft/pkg/connectors"
	"github.com/weftlabs/weft/pkg/mapper"
	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/otelhelper"
)

// ErrStepNotFound indicates the execution state carries no step definition
// for the requested node.
var ErrStepNotFound = errors.New("step not found")

// CustomHandler executes a custom step against the current step data.
type CustomHandler func(ctx context.Context, config map[string]any, stepData map[string]any) (map[string]any, error)

// StepExecutor runs a single node of a workflow against the execution state,
// dispatching by step type. It performs no retry; handler errors are logged
// and propagated unmodified.
type StepExecutor struct {
	registry       *connectors.Registry
	mapper         *mapper.DataMapper
	customHandlers map[string]CustomHandler
	tracer         trace.Tracer
	logger         *slog.Logger
}

func NewStepExecutor(registry *connectors.Registry, dataMapper *mapper.DataMapper, tracer trace.Tracer, logger *slog.Logger) *StepExecutor {
	return &StepExecutor{
		registry:       registry,
		mapper:         dataMapper,
		customHandlers: make(map[string]CustomHandler),
		tracer:         tracer,
		logger:         logger.With("module", "step_executor"),
	}
}

// RegisterCustomHandler makes a handler available to custom steps under the
// given name.
func (e *StepExecutor) RegisterCustomHandler(name string, handler CustomHandler) {
	e.customHandlers[name] = handler
}

// ExecuteStep looks up the step for the node in the execution state, marks
// the execution as running on that node, and dispatches to the handler for
// the step's type. The returned output always carries the completed status
// on success.
func (e *StepExecutor) ExecuteStep(ctx context.Context, execution *models.Execution, stepID string, stepData map[string]any) (map[string]any, error) {
	step, exists := execution.State.Steps[stepID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	execution.State.CurrentNode = stepID
	execution.Status = models.ExecutionStatusRunning

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "step.execute",
		attribute.String("weft.execution.id", execution.ID),
		attribute.String("weft.node.id", stepID),
		attribute.String("weft.step.type", string(step.Type)),
	)
	defer span.End()

	logger := e.logger.With("execution_id", execution.ID, "node_id", stepID, "step_type", step.Type)
	logger.Info("Executing step")

	output, err := e.dispatch(ctx, step, stepData)
	if err != nil {
		logger.Error("Step execution failed", "error", err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	// Handlers may legitimately return a nil output map, and StepResults is
	// nil on executions decoded from storage.
	if output == nil {
		output = make(map[string]any)
	}

	if execution.State.StepResults == nil {
		execution.State.StepResults = make(map[string]*models.StepResult)
	}

	output["status"] = string(models.ExecutionStatusCompleted)

	execution.State.StepResults[stepID] = &models.StepResult{
		NodeID:    stepID,
		Status:    models.ExecutionStatusCompleted,
		Output:    output,
		Timestamp: time.Now().UTC(),
	}

	return output, nil
}

func (e *StepExecutor) dispatch(ctx context.Context, step *models.Step, stepData map[string]any) (map[string]any, error) {
	switch step.Type {
	case models.StepTypeIntegration:
		return e.executeIntegration(ctx, step.Integration, stepData)
	case models.StepTypeTransformation:
		return e.executeTransformation(step.Transformation, stepData)
	case models.StepTypeCondition:
		return e.executeCondition(step.Condition, stepData)
	case models.StepTypeCustom:
		return e.executeCustom(ctx, step.Custom, stepData)
	default:
		return nil, fmt.Errorf("unknown step type: %s", step.Type)
	}
}

func (e *StepExecutor) executeIntegration(ctx context.Context, step *models.IntegrationStep, stepData map[string]any) (map[string]any, error) {
	if step == nil {
		return nil, errors.New("integration step without payload")
	}

	protocol := connectors.Protocol(strings.ToUpper(step.Protocol))

	connector, err := e.registry.Get(protocol)
	if err != nil {
		return nil, err
	}

	request := mergedRequest(step.Request, stepData)

	switch typed := connector.(type) {
	case *connectors.RestConnector:
		method := stringField(request, "method", "GET")
		path := stringField(request, "path", "/")
		body, _ := request["body"].(map[string]any)

		return typed.SendRequest(ctx, method, path, body)
	case *connectors.HTTPConnector:
		method := stringField(request, "method", "GET")
		path := stringField(request, "path", "/")
		body := stringField(request, "body", "")

		status, responseBody, err := typed.SendRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		return map[string]any{"status_code": status, "body": responseBody}, nil
	case *connectors.SoapConnector:
		action := stringField(request, "action", "")
		body := stringField(request, "body", "")

		response, err := typed.Call(ctx, action, body)
		if err != nil {
			return nil, err
		}

		return map[string]any{"response": response}, nil
	case *connectors.WebhookConnector:
		if err := typed.ProcessEvent(ctx, request); err != nil {
			return nil, err
		}

		return map[string]any{"delivered": true}, nil
	default:
		return nil, fmt.Errorf("connector for protocol %s has no integration handler", protocol)
	}
}

func (e *StepExecutor) executeTransformation(step *models.TransformationStep, stepData map[string]any) (map[string]any, error) {
	if step == nil {
		return nil, errors.New("transformation step without payload")
	}

	if step.Rules != "" {
		return e.mapper.Transform(stepData, step.Rules)
	}

	config, err := decodeMappingConfig(step.Mapping)
	if err != nil {
		return nil, err
	}

	return e.mapper.MapData(stepData, config)
}

// executeCondition evaluates the step expression against the step data and
// returns the boolean result under "condition_result". Supported forms are a
// boolean literal, a dotted path (truthy check) and "path == literal" /
// "path != literal" comparisons.
func (e *StepExecutor) executeCondition(step *models.ConditionStep, stepData map[string]any) (map[string]any, error) {
	if step == nil {
		return nil, errors.New("condition step without payload")
	}

	result, err := evaluateExpression(step.Expression, stepData)
	if err != nil {
		return nil, err
	}

	return map[string]any{"condition_result": result}, nil
}

func (e *StepExecutor) executeCustom(ctx context.Context, step *models.CustomStep, stepData map[string]any) (map[string]any, error) {
	if step == nil {
		return nil, errors.New("custom step without payload")
	}

	handler, exists := e.customHandlers[step.Handler]
	if !exists {
		return nil, fmt.Errorf("custom handler not registered: %s", step.Handler)
	}

	return handler(ctx, step.Config, stepData)
}

func evaluateExpression(expression string, data map[string]any) (bool, error) {
	expression = strings.TrimSpace(expression)

	switch expression {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	}

	if left, right, found := strings.Cut(expression, "=="); found {
		return compareOperand(left, right, data), nil
	}

	if left, right, found := strings.Cut(expression, "!="); found {
		return !compareOperand(left, right, data), nil
	}

	value, found := mapper.LookupPath(data, expression)
	if !found {
		return false, nil
	}

	return isTruthy(value), nil
}

func compareOperand(pathExpr, literal string, data map[string]any) bool {
	value, found := mapper.LookupPath(data, strings.TrimSpace(pathExpr))
	if !found {
		return false
	}

	expected := strings.Trim(strings.TrimSpace(literal), `'"`)

	return fmt.Sprintf("%v", value) == expected
}

func isTruthy(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return typed != "" && typed != "false"
	case float64:
		return typed != 0
	case int:
		return typed != 0
	case nil:
		return false
	default:
		return true
	}
}

func decodeMappingConfig(raw map[string]any) (mapper.MappingConfig, error) {
	config := mapper.MappingConfig{}

	sources, err := stringSlice(raw["source_fields"])
	if err != nil {
		return config, fmt.Errorf("invalid source_fields: %w", err)
	}

	targets, err := stringSlice(raw["target_fields"])
	if err != nil {
		return config, fmt.Errorf("invalid target_fields: %w", err)
	}

	config.SourceFields = sources
	config.TargetFields = targets

	if transformations, ok := raw["transformations"].(map[string]any); ok {
		config.Transformations = make(map[string]mapper.FieldTransformation, len(transformations))

		for field, spec := range transformations {
			specMap, ok := spec.(map[string]any)
			if !ok {
				return config, fmt.Errorf("transformation for field %q is not an object", field)
			}

			config.Transformations[field] = mapper.FieldTransformation{
				Type:   stringField(specMap, "type", ""),
				Format: stringField(specMap, "format", ""),
			}
		}
	}

	return config, nil
}

func stringSlice(value any) ([]string, error) {
	switch typed := value.(type) {
	case []string:
		return typed, nil
	case []any:
		result := make([]string, 0, len(typed))

		for _, item := range typed {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}

			result = append(result, text)
		}

		return result, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", value)
	}
}

func stringField(data map[string]any, key, fallback string) string {
	if value, ok := data[key].(string); ok && value != "" {
		return value
	}

	return fallback
}

func mergedRequest(request, stepData map[string]any) map[string]any {
	merged := make(map[string]any, len(request)+len(stepData))

	for key, value := range stepData {
		merged[key] = value
	}

	for key, value := range request {
		merged[key] = value
	}

	return merged
}
