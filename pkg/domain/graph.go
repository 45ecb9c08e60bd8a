package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is the immutable node catalogue plus the entry node and the undo depth policy.
type Graph struct {
	startID    string
	maxHistory int
	nodes      map[string]Node
}

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithMaxHistory bounds the number of retained back-navigation snapshots.
// Zero or negative means unbounded.
func WithMaxHistory(n int) GraphOption {
	return func(g *Graph) {
		g.maxHistory = n
	}
}

// NewGraph builds a graph from a node list.
// An EndID node is added when the list does not declare one.
func NewGraph(startID string, nodes []Node, opts ...GraphOption) (*Graph, error) {
	if startID == "" {
		startID = StartID
	}

	g := &Graph{
		startID: startID,
		nodes:   make(map[string]Node, len(nodes)+1),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			return nil, fmt.Errorf("node missing ID")
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node ID: %s", n.ID)
		}
		if n.AllowMulti && n.MaxSelect > 0 && n.MinSelect > n.MaxSelect {
			return nil, fmt.Errorf("node %s: min_select %d exceeds max_select %d", n.ID, n.MinSelect, n.MaxSelect)
		}
		g.nodes[n.ID] = n.Clone()
	}

	if _, ok := g.nodes[EndID]; !ok {
		g.nodes[EndID] = Node{ID: EndID, DefaultNext: EndID}
	}

	if _, ok := g.nodes[startID]; !ok {
		return nil, fmt.Errorf("start node %q: %w", startID, ErrNodeNotFound)
	}

	return g, nil
}

// StartID returns the entry node id.
func (g *Graph) StartID() string {
	return g.startID
}

// MaxHistory returns the undo depth. Zero means unbounded.
func (g *Graph) MaxHistory() int {
	if g.maxHistory < 0 {
		return 0
	}
	return g.maxHistory
}

// Node returns a copy of the node with the given id.
// It returns ErrNodeNotFound when the id is absent.
func (g *Graph) Node(id string) (Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n.Clone(), nil
}

// Has reports whether id is part of the catalogue.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// IDs returns all node ids sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns copies of all nodes, sorted by id.
func (g *Graph) Nodes() []Node {
	ids := g.IDs()
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id].Clone())
	}
	return out
}

// Definition is the serializable construction input for a Graph.
type Definition struct {
	StartID    string `json:"start_id" yaml:"start_id" mapstructure:"start_id"`
	MaxHistory int    `json:"max_history,omitempty" yaml:"max_history,omitempty" mapstructure:"max_history"`
	Nodes      []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Build validates the definition and returns the graph.
func (d Definition) Build() (*Graph, error) {
	return NewGraph(d.StartID, d.Nodes, WithMaxHistory(d.MaxHistory))
}

// Definition returns the construction input that reproduces g.
func (g *Graph) Definition() Definition {
	return Definition{
		StartID:    g.startID,
		MaxHistory: g.maxHistory,
		Nodes:      g.Nodes(),
	}
}
