package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/survey/pkg/domain"
)

// Loader implements ports.GraphLoader over an in-memory definition.
type Loader struct {
	def domain.Definition
}

// NewLoader creates a Loader for def.
func NewLoader(def domain.Definition) *Loader {
	return &Loader{def: def}
}

// NewFromNodes creates a Loader from domain objects, starting at startID.
// This improves DX for tests and embedded surveys.
func NewFromNodes(startID string, nodes ...domain.Node) (*Loader, error) {
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
	}
	return &Loader{def: domain.Definition{StartID: startID, Nodes: nodes}}, nil
}

// Load validates the definition and returns the graph.
func (l *Loader) Load(ctx context.Context) (*domain.Graph, error) {
	g, err := l.def.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
