package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/survey/internal/metrics"
	"github.com/aretw0/survey/internal/runtime"
	"github.com/aretw0/survey/internal/validator"
	"github.com/aretw0/survey/pkg/domain"
	"github.com/aretw0/survey/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Services bundles the graph, store and session manager the server commands share.
type Services struct {
	Graph    *domain.Graph
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	backend *Backend
}

// NewServices loads the graph, opens the store and wires the session manager.
// Engine events are counted on reg.
func NewServices(ctx context.Context, cfg Config, reg prometheus.Registerer) (*Services, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	graph, err := cfg.LoadGraph(ctx, logger)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateGraph(graph); err != nil {
		logger.Warn("graph has problems", "err", err)
	}

	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New(reg)
	opts := []session.Option{
		session.WithHooks(m.Hooks(domain.Hooks{})),
		session.WithLogger(logger),
	}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}

	nav := runtime.NewEngine(graph, runtime.WithLogger(logger))
	return &Services{
		Graph:    graph,
		Sessions: session.NewManager(backend.Store, nav, opts...),
		Metrics:  m,
		Logger:   logger,
		backend:  backend,
	}, nil
}

// Close releases the store.
func (s *Services) Close() error {
	return s.backend.Close()
}

// Validate loads the graph and checks it for broken links and unreachable nodes.
func Validate(ctx context.Context, cfg Config) error {
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	graph, err := cfg.LoadGraph(ctx, logger)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return validator.ValidateGraph(graph)
}
