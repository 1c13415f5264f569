// Package optimizer rewrites validated workflow graphs into a leaner,
// execution-ready shape: nodes are reordered, pass-through nodes are elided,
// and redundant transitions are merged.
package optimizer

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/weftlabs/weft/pkg/models"
	"github.com/weftlabs/weft/pkg/validator"
)

// Optimizer rewrites workflow graphs. Every rewrite operates on a deep copy;
// the caller's workflow is never mutated.
type Optimizer struct {
	validator *validator.WorkflowValidator
	logger    *slog.Logger
}

func New(workflowValidator *validator.WorkflowValidator, logger *slog.Logger) *Optimizer {
	return &Optimizer{
		validator: workflowValidator,
		logger:    logger.With("module", "optimizer"),
	}
}

// Optimize returns an optimized deep copy of the workflow. The optimized graph
// is re-validated before returning; optimization must never produce an invalid
// workflow, so a validation failure here propagates as fatal.
func (o *Optimizer) Optimize(workflow *models.Workflow) (*models.Workflow, error) {
	optimized := workflow.Clone()

	o.reorderNodes(optimized)
	elided := o.elidePassThroughNodes(optimized)
	merged := o.mergeTransitions(optimized)

	if err := o.validator.Validate(optimized); err != nil {
		return nil, fmt.Errorf("optimization produced an invalid workflow: %w", err)
	}

	o.logger.Debug("Optimized workflow",
		"workflow_id", workflow.ID,
		"nodes_elided", elided,
		"transitions_merged", merged,
		"nodes", len(optimized.Nodes),
		"transitions", len(optimized.Transitions),
	)

	return optimized, nil
}

// reorderNodes sorts nodes so START nodes come first, END nodes last, and the
// remaining nodes order ascending by declared dependency count. The sort is
// stable so same-rank nodes keep their declared order.
func (o *Optimizer) reorderNodes(workflow *models.Workflow) {
	rank := func(node *models.Node) int {
		switch {
		case node.IsStart():
			return 0
		case node.IsEnd():
			return 2
		default:
			return 1
		}
	}

	sort.SliceStable(workflow.Nodes, func(i, j int) bool {
		ri, rj := rank(workflow.Nodes[i]), rank(workflow.Nodes[j])
		if ri != rj {
			return ri < rj
		}

		if ri == 1 {
			return len(workflow.Nodes[i].Dependencies) < len(workflow.Nodes[j].Dependencies)
		}

		return false
	})
}

// elidePassThroughNodes removes nodes that have exactly one inbound and one
// outbound single-target transition and carry no transformation or step
// payload. The two adjacent transitions are replaced with one direct
// transition that keeps the inbound condition, falling back to the outbound
// one. Runs to fixpoint so chains of pass-through nodes collapse fully.
func (o *Optimizer) elidePassThroughNodes(workflow *models.Workflow) int {
	elided := 0

	for {
		node, in, out := o.findPassThroughNode(workflow)
		if node == nil {
			break
		}

		condition := in.Condition
		if condition == "" {
			condition = out.Condition
		}

		direct := &models.Transition{
			ID:        in.ID,
			From:      in.From,
			To:        append(models.TargetList(nil), out.To...),
			Condition: condition,
		}

		transitions := make([]*models.Transition, 0, len(workflow.Transitions)-1)

		for _, transition := range workflow.Transitions {
			if transition == in {
				transitions = append(transitions, direct)

				continue
			}

			if transition == out {
				continue
			}

			transitions = append(transitions, transition)
		}

		workflow.Transitions = transitions

		nodes := make([]*models.Node, 0, len(workflow.Nodes)-1)

		for _, candidate := range workflow.Nodes {
			if candidate.ID != node.ID {
				nodes = append(nodes, candidate)
			}
		}

		workflow.Nodes = nodes
		elided++
	}

	return elided
}

// findPassThroughNode returns the first elidable node with its single inbound
// and outbound transitions, or nil when none remain.
func (o *Optimizer) findPassThroughNode(workflow *models.Workflow) (*models.Node, *models.Transition, *models.Transition) {
	for _, node := range workflow.Nodes {
		if node.IsStart() || node.IsEnd() || node.Transformation != nil || node.Step != nil {
			continue
		}

		var in, out *models.Transition

		inCount, outCount := 0, 0

		for _, transition := range workflow.Transitions {
			if transition.To.Contains(node.ID) {
				inCount++
				in = transition
			}

			if transition.From == node.ID {
				outCount++
				out = transition
			}
		}

		// Multi-target adjacent transitions make the node load-bearing for
		// routing, so only single-target pairs qualify.
		if inCount == 1 && outCount == 1 && len(in.To) == 1 && len(out.To) == 1 && in != out {
			if multiTargetEdgeExists(workflow.Transitions, in, out) {
				continue
			}

			return node, in, out
		}
	}

	return nil, nil, nil
}

// multiTargetEdgeExists reports whether the direct edge elision would create
// is already covered by a multi-target transition. Deduplication only
// collapses single-target pairs, so eliding across such an edge would leave a
// duplicate behind.
func multiTargetEdgeExists(transitions []*models.Transition, in, out *models.Transition) bool {
	for _, transition := range transitions {
		if transition == in || transition == out || transition.From != in.From {
			continue
		}

		if len(transition.To) > 1 && transition.To.Contains(out.To[0]) {
			return true
		}
	}

	return false
}

// mergeTransitions first collapses transitions sharing the same (from, to)
// pair, preferring the unconditional one, then merges transitions sharing the
// same source and condition by collecting their targets into a single
// transition. Unconditional conditions (empty and the literal "true") compare
// equal; a merged group of them carries "true".
func (o *Optimizer) mergeTransitions(workflow *models.Workflow) int {
	if len(workflow.Transitions) < 2 {
		return 0
	}

	before := len(workflow.Transitions)

	deduped := o.dedupTransitions(workflow.Transitions)

	type group struct {
		transition *models.Transition
		members    int
	}

	order := make([]string, 0, len(deduped))
	groups := make(map[string]*group, len(deduped))

	for _, transition := range deduped {
		key := transition.From + "\x00" + normalizeCondition(transition.Condition)

		existing, ok := groups[key]
		if !ok {
			groups[key] = &group{transition: transition.Clone(), members: 1}
			order = append(order, key)

			continue
		}

		for _, target := range transition.To {
			if !existing.transition.To.Contains(target) {
				existing.transition.To = append(existing.transition.To, target)
			}
		}

		existing.members++
	}

	merged := make([]*models.Transition, 0, len(order))

	for _, key := range order {
		g := groups[key]
		if g.members > 1 {
			g.transition.Condition = normalizeCondition(g.transition.Condition)
		}

		merged = append(merged, g.transition)
	}

	workflow.Transitions = merged

	return before - len(merged)
}

// dedupTransitions collapses transitions with identical (from, to) pairs,
// keeping the unconditional one when the pair appears with and without a
// condition.
func (o *Optimizer) dedupTransitions(transitions []*models.Transition) []*models.Transition {
	type slot struct {
		index      int
		transition *models.Transition
	}

	kept := make([]*slot, 0, len(transitions))
	byPair := make(map[string]*slot, len(transitions))

	for _, transition := range transitions {
		if len(transition.To) != 1 {
			kept = append(kept, &slot{index: len(kept), transition: transition})

			continue
		}

		pair := transition.From + "\x00" + transition.To[0]

		existing, ok := byPair[pair]
		if !ok {
			s := &slot{index: len(kept), transition: transition}
			byPair[pair] = s
			kept = append(kept, s)

			continue
		}

		if !existing.transition.IsUnconditional() && transition.IsUnconditional() {
			existing.transition = transition
		}
	}

	result := make([]*models.Transition, len(kept))
	for i, s := range kept {
		result[i] = s.transition
	}

	return result
}

// normalizeCondition maps the two spellings of "always fire" onto one value so
// they group together during merging.
func normalizeCondition(condition string) string {
	if condition == "" || condition == "true" {
		return "true"
	}

	return condition
}
