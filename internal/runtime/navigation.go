package runtime

import (
	"strings"

	"github.com/aretw0/survey/pkg/domain"
)

// PeekNext returns where Advance would go without moving: the queue head if any,
// otherwise the current node's default successor. At END it always returns END.
func (e *Engine) PeekNext(state *domain.State) string {
	if state.CurrentNodeID == domain.EndID {
		return domain.EndID
	}
	if len(state.Pending) > 0 {
		return state.Pending[0].NodeID
	}
	return e.PeekNextFrom(state.CurrentNodeID)
}

// PeekNextFrom returns the default successor of nodeID, ignoring the queue.
// Unknown nodes and dangling targets resolve to END.
func (e *Engine) PeekNextFrom(nodeID string) string {
	node, err := e.graph.Node(nodeID)
	if err != nil {
		return domain.EndID
	}
	return e.resolve(node.Next())
}

// GetNextFrom is queue-aware for the current node and a plain graph lookup for any other.
func (e *Engine) GetNextFrom(state *domain.State, nodeID string) string {
	if nodeID == state.CurrentNodeID {
		return e.PeekNext(state)
	}
	return e.PeekNextFrom(nodeID)
}

func (e *Engine) resolve(id string) string {
	if strings.TrimSpace(id) == "" || !e.graph.Has(id) {
		return domain.EndID
	}
	return id
}

// Advance moves forward one step: the queue head is consumed if present, otherwise
// the default successor is taken. The pre-move navigation is pushed to history first.
// Advancing at END is a no-op that returns the same state and END.
func (e *Engine) Advance(state *domain.State) (*domain.State, string) {
	if state.CurrentNodeID == domain.EndID {
		return state, domain.EndID
	}

	next := state.Clone()
	pushHistory(next, e.graph.MaxHistory())

	var dest string
	if len(next.Pending) > 0 {
		dest = next.Pending[0].NodeID
		next.Pending = append([]domain.PendingEntry{}, next.Pending[1:]...)
	} else {
		dest = e.PeekNextFrom(next.CurrentNodeID)
	}

	from := next.CurrentNodeID
	next.CurrentNodeID = dest
	next.MarkVisited(dest)

	e.logger.Debug("advanced", "from", from, "to", dest, "pending", len(next.Pending), "history", len(next.History))
	return next, dest
}

// Back restores the most recent navigation snapshot. Answers are kept.
// It reports false when there is nothing to undo.
func (e *Engine) Back(state *domain.State) (*domain.State, bool) {
	if len(state.History) == 0 {
		return state, false
	}

	next := state.Clone()
	last := len(next.History) - 1
	from := next.CurrentNodeID
	next.Navigation = next.History[last]
	next.History = next.History[:last]

	e.logger.Debug("back", "from", from, "to", next.CurrentNodeID, "history", len(next.History))
	return next, true
}

// CanGoNext reports whether the next step leads anywhere but END.
func (e *Engine) CanGoNext(state *domain.State) bool {
	return e.PeekNext(state) != domain.EndID
}

// IsFinished reports whether the next step is END.
func (e *Engine) IsFinished(state *domain.State) bool {
	return e.PeekNext(state) == domain.EndID
}

// CanGoBack reports whether Back would succeed.
func (e *Engine) CanGoBack(state *domain.State) bool {
	return len(state.History) > 0
}
