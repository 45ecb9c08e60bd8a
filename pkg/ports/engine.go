package ports

import "github.com/aretw0/survey/pkg/domain"

// Navigator is the stateless survey core used by request-scoped adapters (HTTP, MCP).
// Each call works on the state it is given and returns a new one.
type Navigator interface {
	// Graph returns the node catalogue.
	Graph() *domain.Graph

	// Start returns a fresh state at the graph entry node.
	Start() *domain.State

	// Apply runs one command against state.
	Apply(state *domain.State, cmd domain.Command) (*domain.State, domain.Result, error)

	// Restore validates a stored snapshot against the graph.
	Restore(snap domain.Snapshot) (*domain.State, error)

	// PeekNext returns where the next advance would go.
	PeekNext(state *domain.State) string
}
