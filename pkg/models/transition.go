package models

import "encoding/json"

// TargetList holds the destination node ids of a transition. Most transitions
// point at a single node; the optimizer merges same-condition transitions into
// one carrying multiple targets.
type TargetList []string

// UnmarshalJSON accepts either a single node id string or an array of ids.
func (t *TargetList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TargetList{single}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}

	*t = TargetList(many)

	return nil
}

// MarshalJSON emits a bare string for single-target transitions to keep stored
// definitions in their original shape.
func (t TargetList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}

	return json.Marshal([]string(t))
}

// Contains reports whether the list includes the given node id.
func (t TargetList) Contains(id string) bool {
	for _, target := range t {
		if target == id {
			return true
		}
	}

	return false
}

// Transition is a directed edge of the workflow graph with an optional
// condition expression.
type Transition struct {
	ID        string     `json:"id,omitempty"`
	From      string     `json:"from" validate:"required"`
	To        TargetList `json:"to"   validate:"required,min=1"`
	Condition string     `json:"condition,omitempty"`
}

// IsUnconditional reports whether the transition always fires. An empty
// condition and the literal "true" are equivalent.
func (t *Transition) IsUnconditional() bool {
	return t.Condition == "" || t.Condition == "true"
}
