package metrics

import (
	"github.com/aretw0/survey/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the survey collectors. Feed it through Hooks.
type Metrics struct {
	Events           *prometheus.CounterVec
	NodeVisits       *prometheus.CounterVec
	InvalidatedNodes prometheus.Counter
	PendingDepth     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_events_total",
			Help: "Total number of engine events, labelled by type.",
		}, []string{"type"}),

		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_node_visits_total",
			Help: "Total number of advances onto a node, labelled by node ID.",
		}, []string{"node_id"}),

		InvalidatedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_invalidated_nodes_total",
			Help: "Total number of nodes removed by answer changes.",
		}),

		PendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_pending_depth",
			Help: "Pending queue length after the most recent event.",
		}),
	}

	reg.MustRegister(m.Events, m.NodeVisits, m.InvalidatedNodes, m.PendingDepth)
	return m
}

// Observe records one event.
func (m *Metrics) Observe(ev domain.Event) {
	m.Events.WithLabelValues(string(ev.Type)).Inc()
	m.PendingDepth.Set(float64(ev.Pending))

	switch ev.Type {
	case domain.EventAdvanced:
		m.NodeVisits.WithLabelValues(ev.NodeID).Inc()
	case domain.EventInvalidated:
		m.InvalidatedNodes.Add(float64(len(ev.Nodes)))
	}
}

// Hooks returns engine hooks that feed m, chained after next when next is set.
func (m *Metrics) Hooks(next domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnEvent: func(ev domain.Event) {
			m.Observe(ev)
			if next.OnEvent != nil {
				next.OnEvent(ev)
			}
		},
	}
}
