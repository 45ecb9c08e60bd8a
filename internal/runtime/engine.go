package runtime

import (
	"log/slog"

	"github.com/aretw0/survey/internal/logging"
	"github.com/aretw0/survey/pkg/domain"
)

// Engine is the stateless navigation core.
// Every operation takes a state, works on a clone and returns the new state;
// the input state is never mutated, so callers may keep it as a rollback point.
type Engine struct {
	graph  *domain.Graph
	logger *slog.Logger
}

// EngineOption configures the runtime Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a runtime over an already validated graph.
func NewEngine(graph *domain.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:  graph,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the node catalogue the engine navigates.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Start returns a fresh state positioned at the graph entry node.
func (e *Engine) Start() *domain.State {
	return domain.NewState(e.graph.StartID())
}
