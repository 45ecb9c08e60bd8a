package runtime

import (
	"sort"

	"github.com/aretw0/survey/pkg/domain"
)

// children computes the canonical runtime children of an answer.
// Keys are deduplicated and walked in lexical order (never the display order);
// each key contributes its targets in declared order. END, unknown and repeated
// targets are dropped.
func (e *Engine) children(node domain.Node, selections []string) []string {
	keys := make([]string, 0, len(selections))
	seenKey := make(map[string]bool, len(selections))
	for _, k := range selections {
		if !seenKey[k] {
			seenKey[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []string
	seen := make(map[string]bool)
	for _, k := range keys {
		for _, target := range node.Options[k] {
			if target == domain.EndID || seen[target] || !e.graph.Has(target) {
				continue
			}
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}

// replaceChildren swaps the origin's branch for children.
// Previous children that are no longer selected are cascade-invalidated. The new
// list goes to the absolute front of the queue as one block. Ids queued under
// or listed by another origin stay where they are, and retained children the user already
// advanced through are not scheduled again.
func (e *Engine) replaceChildren(s *domain.State, origin string, children []string) []string {
	old := s.Origins[origin]
	owned := make(map[string]bool, len(old))
	for _, id := range old {
		owned[id] = true
	}
	keep := make(map[string]bool, len(children))
	for _, id := range children {
		keep[id] = true
	}

	var roots []string
	for _, id := range old {
		if !keep[id] {
			roots = append(roots, id)
		}
	}
	removed := e.invalidate(s, origin, roots)

	held := heldElsewhere(s, origin)
	rest := make([]domain.PendingEntry, 0, len(s.Pending))
	queued := make(map[string]bool, len(s.Pending))
	for _, p := range s.Pending {
		if p.Origin == origin {
			continue
		}
		rest = append(rest, p)
		queued[p.NodeID] = true
	}

	block := make([]domain.PendingEntry, 0, len(children))
	claimed := make([]string, 0, len(children))
	for _, id := range children {
		if queued[id] || held[id] {
			continue
		}
		claimed = append(claimed, id)
		if owned[id] && s.IsVisited(id) {
			continue
		}
		block = append(block, domain.PendingEntry{NodeID: id, Origin: origin})
	}

	s.Pending = append(block, rest...)
	if len(claimed) == 0 {
		delete(s.Origins, origin)
	} else {
		s.Origins[origin] = claimed
	}
	return removed
}

// appendChildren adds children that are not queued or owned by another origin to
// the tail. Nothing is removed.
func (e *Engine) appendChildren(s *domain.State, origin string, children []string) {
	owned := append([]string(nil), s.Origins[origin]...)
	has := make(map[string]bool, len(owned))
	for _, id := range owned {
		has[id] = true
	}
	held := heldElsewhere(s, origin)

	for _, id := range children {
		if s.IsQueued(id) || held[id] {
			continue
		}
		s.Pending = append(s.Pending, domain.PendingEntry{NodeID: id, Origin: origin})
		if !has[id] {
			has[id] = true
			owned = append(owned, id)
		}
	}

	if len(owned) > 0 {
		s.Origins[origin] = owned
	}
}

// heldElsewhere collects the ids owned by origins other than origin. A node has at
// most one owner, so a cascade never reaches a child another answer still selects.
func heldElsewhere(s *domain.State, origin string) map[string]bool {
	held := make(map[string]bool)
	for o, kids := range s.Origins {
		if o == origin {
			continue
		}
		for _, id := range kids {
			held[id] = true
		}
	}
	return held
}

// invalidate tears down each root: its own scheduled subtree first (depth-first over
// the origin map, not the static graph), then the root's queue entry, visited mark and answers.
// It returns the removed ids in teardown order.
func (e *Engine) invalidate(s *domain.State, origin string, roots []string) []string {
	seen := map[string]bool{origin: true}
	var removed []string

	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true

		if kids, ok := s.Origins[id]; ok {
			delete(s.Origins, id)
			for _, k := range kids {
				walk(k)
			}
		}

		s.Pending = dequeue(s.Pending, id)
		s.Unvisit(id)
		s.Answers.Forget(id)
		removed = append(removed, id)
	}

	for _, r := range roots {
		walk(r)
	}
	return removed
}

func dequeue(pending []domain.PendingEntry, id string) []domain.PendingEntry {
	out := pending[:0]
	for _, p := range pending {
		if p.NodeID != id {
			out = append(out, p)
		}
	}
	return out
}

// Enqueue schedules a node at the tail with no origin.
// It reports false, leaving the state as is, for END, unknown or already queued ids.
func (e *Engine) Enqueue(state *domain.State, nodeID string) (*domain.State, bool) {
	if nodeID == domain.EndID || !e.graph.Has(nodeID) || state.IsQueued(nodeID) {
		return state, false
	}
	next := state.Clone()
	next.Pending = append(next.Pending, domain.PendingEntry{NodeID: nodeID})
	e.logger.Debug("enqueued", "node", nodeID, "pending", len(next.Pending))
	return next, true
}
