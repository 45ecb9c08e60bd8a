package domain

import "sort"

// PendingEntry is a scheduled future node.
// Origin is the node whose answer produced the entry, or empty for external scheduling.
type PendingEntry struct {
	NodeID string `json:"node_id"`
	Origin string `json:"origin,omitempty"`
}

// External reports whether the entry was enqueued directly rather than by an answer.
func (p PendingEntry) External() bool {
	return p.Origin == ""
}

// Navigation is the part of the state that back-navigation restores.
// A copy of it is pushed onto the history before every forward move.
type Navigation struct {
	// CurrentNodeID is the identifier of the active node.
	CurrentNodeID string `json:"current_node_id"`

	// Pending is the ordered queue of scheduled nodes. Node ids are unique.
	Pending []PendingEntry `json:"pending"`

	// Origins maps an originating node to the ids its answer scheduled, in queue order.
	Origins map[string][]string `json:"origins"`

	// Visited holds the nodes the engine advanced onto, sorted. EndID is never present.
	Visited []string `json:"visited"`
}

// Clone returns a deep copy. Empty collections are non-nil so copies compare equal
// to their serialized round trips.
func (n Navigation) Clone() Navigation {
	out := Navigation{
		CurrentNodeID: n.CurrentNodeID,
		Pending:       make([]PendingEntry, len(n.Pending)),
		Origins:       make(map[string][]string, len(n.Origins)),
		Visited:       make([]string, len(n.Visited)),
	}
	copy(out.Pending, n.Pending)
	copy(out.Visited, n.Visited)
	for k, v := range n.Origins {
		ids := make([]string, len(v))
		copy(ids, v)
		out.Origins[k] = ids
	}
	return out
}

// PendingIDs returns the queued node ids in order.
func (n Navigation) PendingIDs() []string {
	ids := make([]string, len(n.Pending))
	for i, p := range n.Pending {
		ids[i] = p.NodeID
	}
	return ids
}

// IsQueued reports whether id is anywhere in the pending queue.
func (n Navigation) IsQueued(id string) bool {
	for _, p := range n.Pending {
		if p.NodeID == id {
			return true
		}
	}
	return false
}

// IsVisited reports whether id is in the visited set.
func (n Navigation) IsVisited(id string) bool {
	i := sort.SearchStrings(n.Visited, id)
	return i < len(n.Visited) && n.Visited[i] == id
}

// MarkVisited inserts id into the visited set. EndID is ignored.
func (n *Navigation) MarkVisited(id string) {
	if id == EndID || id == "" {
		return
	}
	i := sort.SearchStrings(n.Visited, id)
	if i < len(n.Visited) && n.Visited[i] == id {
		return
	}
	n.Visited = append(n.Visited, "")
	copy(n.Visited[i+1:], n.Visited[i:])
	n.Visited[i] = id
}

// Unvisit removes id from the visited set.
func (n *Navigation) Unvisit(id string) {
	i := sort.SearchStrings(n.Visited, id)
	if i < len(n.Visited) && n.Visited[i] == id {
		n.Visited = append(n.Visited[:i], n.Visited[i+1:]...)
	}
}

// Answers holds per-node responses. It is never touched by back-navigation.
type Answers struct {
	// Choices stores selected option keys verbatim, in the order supplied.
	Choices map[string][]string `json:"choices"`
	// Texts stores free text.
	Texts map[string]string `json:"texts"`
}

// NewAnswers returns an empty answer store.
func NewAnswers() Answers {
	return Answers{
		Choices: make(map[string][]string),
		Texts:   make(map[string]string),
	}
}

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	out := Answers{
		Choices: make(map[string][]string, len(a.Choices)),
		Texts:   make(map[string]string, len(a.Texts)),
	}
	for k, v := range a.Choices {
		sel := make([]string, len(v))
		copy(sel, v)
		out.Choices[k] = sel
	}
	for k, v := range a.Texts {
		out.Texts[k] = v
	}
	return out
}

// Has reports whether the node has a choice or text answer.
func (a Answers) Has(nodeID string) bool {
	if _, ok := a.Choices[nodeID]; ok {
		return true
	}
	_, ok := a.Texts[nodeID]
	return ok
}

// Forget removes both answers for a node.
func (a Answers) Forget(nodeID string) {
	delete(a.Choices, nodeID)
	delete(a.Texts, nodeID)
}

// Merged returns a combined view: []string for choice answers, string for text answers.
// A node with both keeps its choice answer.
func (a Answers) Merged() map[string]any {
	out := make(map[string]any, len(a.Choices)+len(a.Texts))
	for k, v := range a.Texts {
		out[k] = v
	}
	for k, v := range a.Choices {
		sel := make([]string, len(v))
		copy(sel, v)
		out[k] = sel
	}
	return out
}

// State is the complete survey session: navigation, answers and the undo log.
type State struct {
	Navigation

	Answers Answers `json:"answers"`

	// History holds pre-move navigation snapshots, oldest first.
	History []Navigation `json:"history"`
}

// NewState creates a clean state positioned at startNodeID.
func NewState(startNodeID string) *State {
	return &State{
		Navigation: Navigation{
			CurrentNodeID: startNodeID,
			Pending:       []PendingEntry{},
			Origins:       map[string][]string{},
			Visited:       []string{},
		},
		Answers: NewAnswers(),
		History: []Navigation{},
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Navigation: s.Navigation.Clone(),
		Answers:    s.Answers.Clone(),
		History:    make([]Navigation, len(s.History)),
	}
	for i, h := range s.History {
		out.History[i] = h.Clone()
	}
	return out
}

// HistoryNodeIDs returns the node each history entry was taken at, oldest first.
func (s *State) HistoryNodeIDs() []string {
	ids := make([]string, len(s.History))
	for i, h := range s.History {
		ids[i] = h.CurrentNodeID
	}
	return ids
}

// SnapshotVersion is the current serialized state layout.
const SnapshotVersion = 1

// Snapshot is the transport form of a State.
type Snapshot struct {
	Version int `json:"version"`
	State
}

// NewSnapshot captures a deep copy of s.
func NewSnapshot(s *State) Snapshot {
	return Snapshot{Version: SnapshotVersion, State: *s.Clone()}
}
