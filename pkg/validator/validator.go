package validator

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/weftlabs/weft/pkg/models"
)

const (
	minNodes        = 2
	maxNodes        = 200
	maxNestingDepth = 3
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _-]*$`)

// WorkflowValidator checks every workflow invariant. Validation is pure: the
// input is never mutated, and the same input always fails with the same
// category and code.
type WorkflowValidator struct {
	validate *validator.Validate
}

func New() *WorkflowValidator {
	return &WorkflowValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate returns nil for a valid workflow or the first violation found as a
// *ValidationError.
func (v *WorkflowValidator) Validate(workflow *models.Workflow) error {
	if workflow == nil {
		return newStructural("WORKFLOW_NIL", "workflow is nil")
	}

	if err := v.validate.Struct(workflow); err != nil {
		return newStructural("WORKFLOW_FIELDS", "invalid workflow fields: %v", err)
	}

	if !namePattern.MatchString(workflow.Name) {
		return newBusinessRule("WORKFLOW_NAME",
			"workflow name %q contains invalid characters", workflow.Name)
	}

	if !slices.Contains(models.AllWorkflowStatuses(), workflow.Status) {
		return newBusinessRule("WORKFLOW_STATUS", "unknown workflow status %q", workflow.Status)
	}

	if workflow.UpdatedAt.Before(workflow.CreatedAt) {
		return newBusinessRule("WORKFLOW_TIMESTAMPS",
			"updated_at %s precedes created_at %s",
			workflow.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			workflow.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}

	if len(workflow.Nodes) > 0 {
		if err := v.validateGraph(workflow); err != nil {
			return err
		}
	}

	return v.validateNesting(workflow, 0)
}

func (v *WorkflowValidator) validateGraph(workflow *models.Workflow) error {
	if len(workflow.Nodes) < minNodes || len(workflow.Nodes) > maxNodes {
		return newBusinessRule("NODE_COUNT",
			"workflow must contain between %d and %d nodes, got %d",
			minNodes, maxNodes, len(workflow.Nodes))
	}

	nodeIDs := make(map[string]struct{}, len(workflow.Nodes))

	var hasStart, hasEnd bool

	for _, node := range workflow.Nodes {
		if node.ID == "" {
			return newStructural("NODE_ID", "node without id")
		}

		if _, exists := nodeIDs[node.ID]; exists {
			return newStructural("NODE_DUPLICATE", "duplicate node id %q", node.ID)
		}

		nodeIDs[node.ID] = struct{}{}

		switch node.Type {
		case models.NodeTypeStart:
			hasStart = true
		case models.NodeTypeEnd:
			hasEnd = true
		case models.NodeTypeTask:
		default:
			return newStructural("NODE_TYPE", "node %q has unknown type %q", node.ID, node.Type)
		}
	}

	if !hasStart || !hasEnd {
		return newBusinessRule("NODE_BOUNDARIES",
			"workflow must contain both START and END nodes")
	}

	return v.validateTransitions(workflow, nodeIDs)
}

func (v *WorkflowValidator) validateTransitions(workflow *models.Workflow, nodeIDs map[string]struct{}) error {
	seen := make(map[string]struct{}, len(workflow.Transitions))

	for _, transition := range workflow.Transitions {
		if transition.From == "" || len(transition.To) == 0 {
			return newStructural("TRANSITION_ENDPOINTS", "transition missing from/to")
		}

		if _, exists := nodeIDs[transition.From]; !exists {
			return newStructural("TRANSITION_SOURCE",
				"transition references unknown source node %q", transition.From)
		}

		for _, target := range transition.To {
			if _, exists := nodeIDs[target]; !exists {
				return newStructural("TRANSITION_TARGET",
					"transition references unknown target node %q", target)
			}

			pair := fmt.Sprintf("%s->%s", transition.From, target)
			if _, exists := seen[pair]; exists {
				return newBusinessRule("TRANSITION_DUPLICATE",
					"duplicate transition from %q to %q", transition.From, target)
			}

			seen[pair] = struct{}{}
		}
	}

	return nil
}

func (v *WorkflowValidator) validateNesting(workflow *models.Workflow, depth int) error {
	if len(workflow.Subworkflows) == 0 {
		return nil
	}

	if depth+1 > maxNestingDepth {
		return newBusinessRule("NESTING_DEPTH",
			"subworkflow nesting exceeds maximum depth of %d", maxNestingDepth)
	}

	for _, sub := range workflow.Subworkflows {
		if err := v.validateNesting(sub, depth+1); err != nil {
			return err
		}
	}

	return nil
}
