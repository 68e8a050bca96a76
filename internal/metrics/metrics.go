// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tictactoe"

type Metrics struct {
	GamesCreated   prometheus.Counter
	GamesFinished  *prometheus.CounterVec
	MovesTotal     prometheus.Counter
	ProtocolErrors prometheus.Counter
	ActiveSessions prometheus.Gauge
	QueueSize      prometheus.Gauge
}

// New builds the collectors and registers them against the given
// registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		GamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Total number of sessions created by the matchmaker.",
		}),
		GamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Total number of finished games by result.",
		}, []string{"result"}),
		MovesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Total number of accepted moves.",
		}),
		ProtocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of undecodable inbound messages.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of registered game sessions.",
		}),
		QueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_size",
			Help:      "Number of connections waiting for an opponent.",
		}),
	}
}
