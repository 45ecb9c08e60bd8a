package dsl

import (
	"fmt"

	"github.com/aretw0/survey/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	startID    string
	maxHistory int
	order      []string
	nodes      map[string]*NodeBuilder
}

// New creates a new graph builder starting at domain.StartID.
func New() *Builder {
	return &Builder{
		startID: domain.StartID,
		nodes:   make(map[string]*NodeBuilder),
	}
}

// Start overrides the entry node.
func (b *Builder) Start(id string) *Builder {
	b.startID = id
	return b
}

// MaxHistory bounds the back-navigation depth of the built graph.
func (b *Builder) MaxHistory(n int) *Builder {
	b.maxHistory = n
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Definition returns the serializable form of the graph, nodes in insertion order.
func (b *Builder) Definition() domain.Definition {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].Build())
	}
	return domain.Definition{
		StartID:    b.startID,
		MaxHistory: b.maxHistory,
		Nodes:      nodes,
	}
}

// Build validates the nodes and returns the graph.
func (b *Builder) Build() (*domain.Graph, error) {
	g, err := b.Definition().Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
