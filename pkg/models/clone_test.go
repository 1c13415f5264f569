package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowClone_DeepCopy(t *testing.T) {
	original := &Workflow{
		ID:     "wf-1",
		Name:   "Clone Workflow",
		Status: WorkflowStatusActive,
		Nodes: []*Node{
			{ID: "start", Type: NodeTypeStart},
			{ID: "task", Type: NodeTypeTask,
				Dependencies:   []string{"start"},
				Transformation: map[string]any{"rule": "x"},
				Step: &Step{
					Type:   StepTypeCustom,
					Custom: &CustomStep{Handler: "noop", Config: map[string]any{"k": "v"}},
				}},
			{ID: "end", Type: NodeTypeEnd},
		},
		Transitions: []*Transition{
			{From: "start", To: TargetList{"task"}},
			{From: "task", To: TargetList{"end"}, Condition: "true"},
		},
		Variables: map[string]any{"a": 1, "nested": map[string]any{"b": 2}},
		Metadata:  map[string]any{"team": "core"},
	}

	clone := original.Clone()

	require.NotSame(t, original, clone)
	assert.Equal(t, original.ID, clone.ID)
	assert.Equal(t, original.Name, clone.Name)
	require.Len(t, clone.Nodes, 3)

	// Mutating the clone must not leak into the original.
	clone.Nodes[1].Dependencies[0] = "changed"
	clone.Nodes[1].Transformation["rule"] = "y"
	clone.Nodes[1].Step.Custom.Config["k"] = "changed"
	clone.Transitions[0].To[0] = "changed"
	clone.Variables["a"] = 99

	nested := clone.Variables["nested"].(map[string]any)
	nested["b"] = 99

	assert.Equal(t, "start", original.Nodes[1].Dependencies[0])
	assert.Equal(t, "x", original.Nodes[1].Transformation["rule"])
	assert.Equal(t, "v", original.Nodes[1].Step.Custom.Config["k"])
	assert.Equal(t, TargetList{"task"}, original.Transitions[0].To)
	assert.Equal(t, 1, original.Variables["a"])
	assert.Equal(t, 2, original.Variables["nested"].(map[string]any)["b"])
}

func TestWorkflowClone_Nil(t *testing.T) {
	var workflow *Workflow

	assert.Nil(t, workflow.Clone())
}
