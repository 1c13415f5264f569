package execution

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/weftlabs/weft/pkg/connectors"
	"github.com/weftlabs/weft/pkg/log"
	"github.com/weftlabs/weft/pkg/mapper"
	"github.com/weftlabs/weft/pkg/models"
)

func newTestExecutor(t *testing.T) (*StepExecutor, *connectors.Registry) {
	t.Helper()

	logger := log.WithModule("test")
	registry := connectors.NewRegistry(logger)
	tracer := noop.NewTracerProvider().Tracer("test")

	return NewStepExecutor(registry, mapper.New(logger), tracer, logger), registry
}

func executionWithStep(stepID string, step *models.Step) *models.Execution {
	return &models.Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     models.ExecutionStatusPending,
		State: &models.ExecutionState{
			Variables:   map[string]any{},
			Steps:       map[string]*models.Step{stepID: step},
			StepResults: map[string]*models.StepResult{},
		},
	}
}

func TestExecuteStep_NotFound(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("known", &models.Step{
		Type:      models.StepTypeCondition,
		Condition: &models.ConditionStep{Expression: "true"},
	})

	_, err := executor.ExecuteStep(t.Context(), exec, "unknown", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestExecuteStep_MarksRunningAndCurrentNode(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("cond", &models.Step{
		Type:      models.StepTypeCondition,
		Condition: &models.ConditionStep{Expression: "true"},
	})

	output, err := executor.ExecuteStep(t.Context(), exec, "cond", nil)
	require.NoError(t, err)

	assert.Equal(t, "cond", exec.State.CurrentNode)
	assert.Equal(t, models.ExecutionStatusRunning, exec.Status)
	assert.Equal(t, string(models.ExecutionStatusCompleted), output["status"])

	result, exists := exec.State.StepResults["cond"]
	require.True(t, exists)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
}

func TestExecuteStep_ConditionExpressions(t *testing.T) {
	executor, _ := newTestExecutor(t)

	tests := []struct {
		expression string
		data       map[string]any
		expected   bool
	}{
		{"true", nil, true},
		{"false", nil, false},
		{"user.active", map[string]any{"user": map[string]any{"active": true}}, true},
		{"user.role == admin", map[string]any{"user": map[string]any{"role": "admin"}}, true},
		{"user.role != admin", map[string]any{"user": map[string]any{"role": "guest"}}, true},
		{"user.missing", map[string]any{"user": map[string]any{}}, false},
	}

	for _, tc := range tests {
		exec := executionWithStep("cond", &models.Step{
			Type:      models.StepTypeCondition,
			Condition: &models.ConditionStep{Expression: tc.expression},
		})

		output, err := executor.ExecuteStep(t.Context(), exec, "cond", tc.data)
		require.NoError(t, err, tc.expression)
		assert.Equal(t, tc.expected, output["condition_result"], tc.expression)
	}
}

func TestExecuteStep_TransformationRules(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("xform", &models.Step{
		Type: models.StepTypeTransformation,
		Transformation: &models.TransformationStep{
			Rules: `{"greeting": "$concat:user.first,user.last"}`,
		},
	})

	data := map[string]any{"user": map[string]any{"first": "Ada", "last": "Lovelace"}}

	output, err := executor.ExecuteStep(t.Context(), exec, "xform", data)
	require.NoError(t, err)
	assert.Equal(t, "AdaLovelace", output["greeting"])
}

func TestExecuteStep_TransformationMapping(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("map", &models.Step{
		Type: models.StepTypeTransformation,
		Transformation: &models.TransformationStep{
			Mapping: map[string]any{
				"source_fields": []any{"user.firstName"},
				"target_fields": []any{"name"},
			},
		},
	})

	data := map[string]any{"user": map[string]any{"firstName": "John"}}

	output, err := executor.ExecuteStep(t.Context(), exec, "map", data)
	require.NoError(t, err)
	assert.Equal(t, "John", output["name"])
}

func TestExecuteStep_CustomHandler(t *testing.T) {
	executor, _ := newTestExecutor(t)

	executor.RegisterCustomHandler("echo", func(_ context.Context, config, stepData map[string]any) (map[string]any, error) {
		return map[string]any{"config": config["key"], "data": stepData["value"]}, nil
	})

	exec := executionWithStep("custom", &models.Step{
		Type:   models.StepTypeCustom,
		Custom: &models.CustomStep{Handler: "echo", Config: map[string]any{"key": "k"}},
	})

	output, err := executor.ExecuteStep(t.Context(), exec, "custom", map[string]any{"value": "v"})
	require.NoError(t, err)
	assert.Equal(t, "k", output["config"])
	assert.Equal(t, "v", output["data"])
}

// A handler returning (nil, nil) still yields a completed output map and a
// recorded step result.
func TestExecuteStep_CustomHandlerNilOutput(t *testing.T) {
	executor, _ := newTestExecutor(t)

	executor.RegisterCustomHandler("silent", func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
		return nil, nil
	})

	exec := executionWithStep("custom", &models.Step{
		Type:   models.StepTypeCustom,
		Custom: &models.CustomStep{Handler: "silent"},
	})

	output, err := executor.ExecuteStep(t.Context(), exec, "custom", nil)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExecutionStatusCompleted), output["status"])

	result, exists := exec.State.StepResults["custom"]
	require.True(t, exists)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
}

// Executions decoded from storage can carry a nil StepResults map.
func TestExecuteStep_NilStepResultsMap(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("cond", &models.Step{
		Type:      models.StepTypeCondition,
		Condition: &models.ConditionStep{Expression: "true"},
	})
	exec.State.StepResults = nil

	_, err := executor.ExecuteStep(t.Context(), exec, "cond", nil)
	require.NoError(t, err)

	require.NotNil(t, exec.State.StepResults)
	assert.Contains(t, exec.State.StepResults, "cond")
}

func TestExecuteStep_CustomHandlerMissing(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("custom", &models.Step{
		Type:   models.StepTypeCustom,
		Custom: &models.CustomStep{Handler: "ghost"},
	})

	_, err := executor.ExecuteStep(t.Context(), exec, "custom", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom handler not registered")
}

// A handler error propagates to the caller unchanged.
func TestExecuteStep_ErrorPropagatesUnmodified(t *testing.T) {
	executor, _ := newTestExecutor(t)

	sentinel := errors.New("handler exploded")

	executor.RegisterCustomHandler("boom", func(_ context.Context, _, _ map[string]any) (map[string]any, error) {
		return nil, sentinel
	})

	exec := executionWithStep("custom", &models.Step{
		Type:   models.StepTypeCustom,
		Custom: &models.CustomStep{Handler: "boom"},
	})

	_, err := executor.ExecuteStep(t.Context(), exec, "custom", nil)
	require.ErrorIs(t, err, sentinel)
	assert.Empty(t, exec.State.StepResults)
}

func TestExecuteStep_IntegrationRest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id":"o-1"}`))
	}))
	defer server.Close()

	executor, registry := newTestExecutor(t)

	connector := connectors.NewRestConnector(log.WithModule("test"))
	require.NoError(t, connector.Configure(connectors.Config{
		ID:      "orders",
		Name:    "Orders API",
		BaseURL: server.URL,
	}))
	require.NoError(t, registry.Register(connector))

	exec := executionWithStep("call", &models.Step{
		Type: models.StepTypeIntegration,
		Integration: &models.IntegrationStep{
			Protocol: "rest",
			Request:  map[string]any{"method": "GET", "path": "/orders"},
		},
	})

	output, err := executor.ExecuteStep(t.Context(), exec, "call", nil)
	require.NoError(t, err)
	assert.Equal(t, "o-1", output["order_id"])
}

func TestExecuteStep_IntegrationMissingConnector(t *testing.T) {
	executor, _ := newTestExecutor(t)

	exec := executionWithStep("call", &models.Step{
		Type:        models.StepTypeIntegration,
		Integration: &models.IntegrationStep{Protocol: "rest"},
	})

	_, err := executor.ExecuteStep(t.Context(), exec, "call", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, connectors.ErrConnectorNotFound)
}
