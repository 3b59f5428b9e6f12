package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are registered against an injected registerer so test coordinators
// don't collide on the default registry.
type Metrics struct {
	Online            prometheus.Gauge
	QueueDepth        prometheus.Gauge
	PairingsProposed  prometheus.Counter
	PairingsConfirmed prometheus.Counter
	PairingsDissolved *prometheus.CounterVec
	CallsPlaced       prometheus.Counter
	CallsAccepted     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duet", Name: "online_connections",
			Help: "Currently registered connections.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duet", Name: "queue_depth",
			Help: "Connections waiting for a random match.",
		}),
		PairingsProposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duet", Name: "pairings_proposed_total",
			Help: "Pairings proposed by the matchmaker.",
		}),
		PairingsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duet", Name: "pairings_confirmed_total",
			Help: "Pairings confirmed by both sides (matches and calls).",
		}),
		PairingsDissolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duet", Name: "pairings_dissolved_total",
			Help: "Pairings dissolved, by reason.",
		}, []string{"reason"}),
		CallsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duet", Name: "calls_placed_total",
			Help: "Friend calls placed.",
		}),
		CallsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duet", Name: "calls_accepted_total",
			Help: "Friend calls accepted into a confirmed pairing.",
		}),
	}
	reg.MustRegister(
		m.Online, m.QueueDepth,
		m.PairingsProposed, m.PairingsConfirmed, m.PairingsDissolved,
		m.CallsPlaced, m.CallsAccepted,
	)
	return m
}
