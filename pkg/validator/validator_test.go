package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/models"
)

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:     "wf-1",
		Name:   "Test Workflow",
		Status: models.WorkflowStatusDraft,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeStart},
			{ID: "task", Type: models.NodeTypeTask},
			{ID: "end", Type: models.NodeTypeEnd},
		},
		Transitions: []*models.Transition{
			{From: "start", To: models.TargetList{"task"}},
			{From: "task", To: models.TargetList{"end"}},
		},
	}
}

func TestValidate_ValidWorkflow(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(validWorkflow()))
}

func TestValidate_NilWorkflow(t *testing.T) {
	v := New()

	err := v.Validate(nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrStructural)
}

func TestValidate_MissingStartEnd(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Nodes = []*models.Node{
		{ID: "a", Type: models.NodeTypeTask},
		{ID: "b", Type: models.NodeTypeTask},
	}
	workflow.Transitions = nil

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain both START and END nodes")
	assert.ErrorIs(t, err, ErrBusinessRule)
}

func TestValidate_InvalidName(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Name = "!!!bad"

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusinessRule)
}

func TestValidate_UnknownStatus(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Status = "bogus"

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusinessRule)
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Nodes = append(workflow.Nodes, &models.Node{ID: "task", Type: models.NodeTypeTask})

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestValidate_TransitionToUnknownNode(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Transitions = append(workflow.Transitions,
		&models.Transition{From: "task", To: models.TargetList{"ghost"}})

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestValidate_DuplicateTransition(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Transitions = append(workflow.Transitions,
		&models.Transition{From: "start", To: models.TargetList{"task"}})

	err := v.Validate(workflow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusinessRule)
}

func TestValidate_NestingDepthExceeded(t *testing.T) {
	v := New()

	deepest := validWorkflow()

	for range 4 {
		parent := validWorkflow()
		parent.Subworkflows = []*models.Workflow{deepest}
		deepest = parent
	}

	err := v.Validate(deepest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusinessRule)
}

// The same invalid input must always fail with the same category.
func TestValidate_Deterministic(t *testing.T) {
	v := New()

	workflow := validWorkflow()
	workflow.Nodes = workflow.Nodes[:2] // drop END

	first := v.Validate(workflow)
	require.Error(t, first)

	var firstVE *ValidationError

	require.ErrorAs(t, first, &firstVE)

	for range 10 {
		err := v.Validate(workflow)
		require.Error(t, err)

		var ve *ValidationError

		require.ErrorAs(t, err, &ve)
		assert.Equal(t, firstVE.Category, ve.Category)
		assert.Equal(t, firstVE.Code, ve.Code)
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(newStructural("X", "x")))
	assert.True(t, IsValidationError(newBusinessRule("Y", "y")))
	assert.False(t, IsValidationError(errors.New("plain")))
}
