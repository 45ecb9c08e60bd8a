package runtime

import (
	"strings"

	"github.com/aretw0/survey/pkg/domain"
)

// UpdateChoice stores a choice answer and reconciles the pending queue with it.
// With replaceQueued the node's previous branch is replaced; otherwise new children are appended.
// It returns the ids discarded by the invalidation cascade.
// A rejected write returns the error and no state.
func (e *Engine) UpdateChoice(state *domain.State, nodeID string, selections []string, replaceQueued bool) (*domain.State, []string, error) {
	node, err := e.graph.Node(nodeID)
	if err != nil {
		return nil, nil, err
	}

	stored, err := acceptSelections(node, selections)
	if err != nil {
		e.logger.Debug("answer rejected", "node", nodeID, "count", len(selections), "err", err)
		return nil, nil, err
	}

	next := state.Clone()
	if len(stored) == 0 {
		delete(next.Answers.Choices, nodeID)
	} else {
		next.Answers.Choices[nodeID] = stored
	}

	children := e.children(node, stored)

	var removed []string
	if replaceQueued {
		removed = e.replaceChildren(next, nodeID, children)
	} else {
		e.appendChildren(next, nodeID, children)
	}

	e.logger.Debug("answer stored",
		"node", nodeID,
		"selections", stored,
		"replace", replaceQueued,
		"invalidated", removed,
		"pending", len(next.Pending),
	)
	return next, removed, nil
}

// acceptSelections applies the node's selection rules and returns the value to store.
func acceptSelections(node domain.Node, selections []string) ([]string, error) {
	if node.AllowMulti {
		n := len(selections)
		if n < node.MinSelect || (node.MaxSelect > 0 && n > node.MaxSelect) {
			return nil, &domain.ValidationError{
				NodeID: node.ID,
				Count:  n,
				Min:    node.MinSelect,
				Max:    node.MaxSelect,
			}
		}
		return append([]string(nil), selections...), nil
	}

	var out []string
	for _, key := range selections {
		if strings.TrimSpace(key) != "" {
			out = append(out, key)
		}
	}
	return out, nil
}

// UpdateText overwrites the free-text answer of a node.
func (e *Engine) UpdateText(state *domain.State, nodeID, text string) *domain.State {
	next := state.Clone()
	next.Answers.Texts[nodeID] = text
	return next
}

// ClearAnswers empties both answer maps. Navigation is untouched.
func (e *Engine) ClearAnswers(state *domain.State) *domain.State {
	next := state.Clone()
	next.Answers = domain.NewAnswers()
	return next
}
