// Package obsv wires the engine's Prometheus counters (spec.md's ambient
// observability surface, expanded in SPEC_FULL.md §2). Grounded on
// DimaJoyti's pkg/observability/middleware.go, which registers
// request-scoped prometheus.Counter/Gauge vectors against a
// prometheus.Registry and exposes them over promhttp.Handler(); this
// narrows that pattern to the handful of domain counters the matching core
// itself produces.
package obsv

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter the control plane and the periodic reconcile
// loop in cmd/ome increment.
type Metrics struct {
	MarketsCreated  prometheus.Counter
	OrdersSubmitted prometheus.Counter
	OrdersMatched   prometheus.Counter
	OrdersCancelled prometheus.Counter
	ReconcileReaped prometheus.Counter
}

// New registers the engine's counters against reg and returns the handle
// used to increment them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MarketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome",
			Name:      "markets_created_total",
			Help:      "Number of markets created.",
		}),
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome",
			Name:      "orders_submitted_total",
			Help:      "Number of orders admitted across all books.",
		}),
		OrdersMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome",
			Name:      "orders_matched_total",
			Help:      "Number of submits that produced at least one fill.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome",
			Name:      "orders_cancelled_total",
			Help:      "Number of orders cancelled.",
		}),
		ReconcileReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome",
			Name:      "reconcile_reaped_total",
			Help:      "Number of expired resting orders reaped by reconciliation.",
		}),
	}
	reg.MustRegister(m.MarketsCreated, m.OrdersSubmitted, m.OrdersMatched, m.OrdersCancelled, m.ReconcileReaped)
	return m
}
