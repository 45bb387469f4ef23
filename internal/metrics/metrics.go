package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the boost engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	boosts         *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		boosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mgmtboost_boosts_total",
			Help: "Boost requests by the layer that produced the result",
		}, []string{"source"}),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mgmtboost_remote_failures_total",
			Help: "Failed remote advisor calls by failure kind",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mgmtboost_cache_lookups_total",
			Help: "Analysis cache lookups by result",
		}, []string{"result"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mgmtboost_remote_call_duration_seconds",
			Help:    "Latency of remote completion calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 10},
		}, []string{"op"}),
	}
	reg.MustRegister(m.boosts, m.remoteFailures, m.cacheLookups, m.remoteDuration)
	return m
}

func (m *Metrics) RecordBoost(source string) {
	if m == nil {
		return
	}
	m.boosts.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordRemoteFailure(kind string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(kind).Inc()
}

// RecordCacheLookup counts a hit or a miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRemoteCall(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(op).Observe(d.Seconds())
}
