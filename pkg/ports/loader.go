package ports

import (
	"context"

	"github.com/aretw0/survey/pkg/domain"
)

// GraphLoader defines how a survey graph is obtained.
// This allows the source (Go builder, YAML/JSON file, Memory) to be decoupled.
type GraphLoader interface {
	// Load builds and validates the graph.
	Load(ctx context.Context) (*domain.Graph, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying graph changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
