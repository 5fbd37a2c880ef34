// Package metrics exposes settlement outcome counters on a private
// Prometheus registry. A nil *Settlement is valid and counts nothing, so
// domain code never guards its calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeDistributed = "distributed"
	OutcomeRefunded    = "refunded"
	OutcomeKept        = "kept"
	OutcomeRolledBack  = "rolled_back"
)

type Settlement struct {
	registry  *prometheus.Registry
	purchases *prometheus.CounterVec
	transfers *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

func NewSettlement() *Settlement {
	s := &Settlement{
		registry: prometheus.NewRegistry(),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketd",
			Name:      "purchases_resolved_total",
			Help:      "Purchase sagas resolved, by outcome.",
		}, []string{"outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketd",
			Name:      "transfers_resolved_total",
			Help:      "Transfer-with-notification sagas resolved, by outcome.",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketd",
			Name:      "calls_rejected_total",
			Help:      "Synchronously rejected operations, by error category.",
		}, []string{"category"}),
	}
	s.registry.MustRegister(s.purchases, s.transfers, s.rejected)
	return s
}

func (s *Settlement) Registry() *prometheus.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Settlement) PurchaseResolved(outcome string) {
	if s == nil {
		return
	}
	s.purchases.WithLabelValues(outcome).Inc()
}

func (s *Settlement) TransferResolved(outcome string) {
	if s == nil {
		return
	}
	s.transfers.WithLabelValues(outcome).Inc()
}

func (s *Settlement) CallRejected(category string) {
	if s == nil {
		return
	}
	s.rejected.WithLabelValues(category).Inc()
}
