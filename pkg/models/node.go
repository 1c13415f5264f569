package models

import "time"

// NodeType represents the structural role of a node in the workflow graph.
type NodeType string

const (
	NodeTypeStart NodeType = "START"
	NodeTypeEnd   NodeType = "END"
	NodeTypeTask  NodeType = "TASK"
)

// Node represents a single unit of the workflow graph.
type Node struct {
	ID           string   `json:"id"   validate:"required"`
	Type         NodeType `json:"type" validate:"required"`
	Name         string   `json:"name,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	// Transformation carries an optional payload reshaping rule attached to the
	// node. A TASK node without one and with exactly one inbound and one
	// outbound transition is a pass-through candidate for the optimizer.
	Transformation map[string]any `json:"transformation,omitempty"`
	Step           *Step          `json:"step,omitempty"`
}

// IsStart reports whether the node is a START node.
func (n *Node) IsStart() bool { return n.Type == NodeTypeStart }

// IsEnd reports whether the node is an END node.
func (n *Node) IsEnd() bool { return n.Type == NodeTypeEnd }

// StepType identifies which payload variant a step carries.
type StepType string

const (
	StepTypeIntegration    StepType = "integration"
	StepTypeTransformation StepType = "transformation"
	StepTypeCondition      StepType = "condition"
	StepTypeCustom         StepType = "custom"
)

// Step is a tagged union of the executable payload variants a node can carry.
// Exactly the variant named by Type is populated.
type Step struct {
	Type           StepType            `json:"type" validate:"required"`
	Integration    *IntegrationStep    `json:"integration,omitempty"`
	Transformation *TransformationStep `json:"transformation,omitempty"`
	Condition      *ConditionStep      `json:"condition,omitempty"`
	Custom         *CustomStep         `json:"custom,omitempty"`
}

// IntegrationStep calls an external system through a registered connector.
type IntegrationStep struct {
	Protocol string         `json:"protocol" validate:"required"`
	Request  map[string]any `json:"request,omitempty"`
}

// TransformationStep reshapes the execution variables through the data mapper.
type TransformationStep struct {
	Rules   string         `json:"rules,omitempty"` // JSON-encoded rule tree
	Mapping map[string]any `json:"mapping,omitempty"`
}

// ConditionStep evaluates an expression against the execution variables.
type ConditionStep struct {
	Expression string `json:"expression"`
}

// CustomStep carries an opaque handler name and its configuration.
type CustomStep struct {
	Handler string         `json:"handler" validate:"required"`
	Config  map[string]any `json:"config,omitempty"`
}

// StepResult is the outcome of executing one node.
type StepResult struct {
	NodeID    string         `json:"node_id"`
	Status    ExecutionStatus `json:"status"`
	Output    map[string]any `json:"output,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
