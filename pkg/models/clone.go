package models

// Clone returns a deep copy of the workflow. The optimizer operates on clones
// so the caller's value is never mutated.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := *w

	if w.Nodes != nil {
		clone.Nodes = make([]*Node, len(w.Nodes))
		for i, node := range w.Nodes {
			clone.Nodes[i] = node.Clone()
		}
	}

	if w.Transitions != nil {
		clone.Transitions = make([]*Transition, len(w.Transitions))
		for i, transition := range w.Transitions {
			clone.Transitions[i] = transition.Clone()
		}
	}

	if w.Subworkflows != nil {
		clone.Subworkflows = make([]*Workflow, len(w.Subworkflows))
		for i, sub := range w.Subworkflows {
			clone.Subworkflows[i] = sub.Clone()
		}
	}

	clone.Variables = cloneAnyMap(w.Variables)
	clone.Metadata = cloneAnyMap(w.Metadata)

	return &clone
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n

	if n.Dependencies != nil {
		clone.Dependencies = make([]string, len(n.Dependencies))
		copy(clone.Dependencies, n.Dependencies)
	}

	clone.Transformation = cloneAnyMap(n.Transformation)
	clone.Step = n.Step.Clone()

	return &clone
}

// Clone returns a deep copy of the transition.
func (t *Transition) Clone() *Transition {
	if t == nil {
		return nil
	}

	clone := *t

	if t.To != nil {
		clone.To = make(TargetList, len(t.To))
		copy(clone.To, t.To)
	}

	return &clone
}

// Clone returns a deep copy of the step payload.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}

	clone := *s

	if s.Integration != nil {
		integration := *s.Integration
		integration.Request = cloneAnyMap(s.Integration.Request)
		clone.Integration = &integration
	}

	if s.Transformation != nil {
		transformation := *s.Transformation
		transformation.Mapping = cloneAnyMap(s.Transformation.Mapping)
		clone.Transformation = &transformation
	}

	if s.Condition != nil {
		condition := *s.Condition
		clone.Condition = &condition
	}

	if s.Custom != nil {
		custom := *s.Custom
		custom.Config = cloneAnyMap(s.Custom.Config)
		clone.Custom = &custom
	}

	return &clone
}

func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = cloneAny(value)
	}

	return dst
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneAnyMap(typed)
	case []any:
		list := make([]any, len(typed))
		for i, item := range typed {
			list[i] = cloneAny(item)
		}

		return list
	default:
		return value
	}
}
