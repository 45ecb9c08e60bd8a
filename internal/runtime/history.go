package runtime

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/survey/pkg/domain"
)

// pushHistory appends the current navigation and drops the oldest entries beyond limit.
// A limit of zero keeps everything.
func pushHistory(s *domain.State, limit int) {
	s.History = append(s.History, s.Navigation.Clone())
	if limit > 0 && len(s.History) > limit {
		s.History = append([]domain.Navigation{}, s.History[len(s.History)-limit:]...)
	}
}

// Snapshot captures the full state in its transport form.
func (e *Engine) Snapshot(state *domain.State) domain.Snapshot {
	return domain.NewSnapshot(state)
}

// Restore validates a snapshot against the graph and returns the state it describes.
// Queue entries and origin children that are END, unknown or duplicated are dropped,
// origins left without children are removed, and the history is
// trimmed to the graph's depth. A well-formed snapshot restores unchanged.
func (e *Engine) Restore(snap domain.Snapshot) (*domain.State, error) {
	if snap.Version != 0 && snap.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidSnapshot, snap.Version)
	}
	if snap.CurrentNodeID == "" {
		return nil, fmt.Errorf("%w: missing current node", domain.ErrInvalidSnapshot)
	}
	if !e.graph.Has(snap.CurrentNodeID) {
		return nil, fmt.Errorf("restore: %w: %s", domain.ErrNodeNotFound, snap.CurrentNodeID)
	}

	s := snap.State.Clone()
	s.Navigation = e.sanitize(s.Navigation)
	for i, h := range s.History {
		s.History[i] = e.sanitize(h)
	}
	if limit := e.graph.MaxHistory(); limit > 0 && len(s.History) > limit {
		s.History = append([]domain.Navigation{}, s.History[len(s.History)-limit:]...)
	}

	e.logger.Debug("restored", "node", s.CurrentNodeID, "pending", len(s.Pending), "history", len(s.History))
	return s, nil
}

// RestoreJSON decodes a snapshot and restores it.
func (e *Engine) RestoreJSON(data []byte) (*domain.State, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return e.Restore(snap)
}

func (e *Engine) sanitize(nav domain.Navigation) domain.Navigation {
	pending := make([]domain.PendingEntry, 0, len(nav.Pending))
	seen := make(map[string]bool, len(nav.Pending))
	for _, p := range nav.Pending {
		if p.NodeID == domain.EndID || seen[p.NodeID] || !e.graph.Has(p.NodeID) {
			continue
		}
		seen[p.NodeID] = true
		pending = append(pending, p)
	}
	nav.Pending = pending

	origins := make(map[string][]string, len(nav.Origins))
	for origin, kids := range nav.Origins {
		if !e.graph.Has(origin) {
			continue
		}
		ids := make([]string, 0, len(kids))
		dup := make(map[string]bool, len(kids))
		for _, id := range kids {
			if id == domain.EndID || dup[id] || !e.graph.Has(id) {
				continue
			}
			dup[id] = true
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			origins[origin] = ids
		}
	}
	nav.Origins = origins

	visited := make([]string, 0, len(nav.Visited))
	for _, id := range nav.Visited {
		if id != domain.EndID && id != "" {
			visited = append(visited, id)
		}
	}
	sort.Strings(visited)
	nav.Visited = make([]string, 0, len(visited))
	for i, id := range visited {
		if i == 0 || visited[i-1] != id {
			nav.Visited = append(nav.Visited, id)
		}
	}
	return nav
}
