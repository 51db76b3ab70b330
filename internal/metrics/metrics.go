// Package metrics defines the Prometheus collectors exported by the records
// service. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Retrieval outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeStoreError = "store_error"
)

const namespace = "managedrecords"

// Metrics holds the service collectors.
type Metrics struct {
	retrievals    *prometheus.CounterVec
	storeRequests *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		retrievals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Managed record retrievals by outcome.",
		}, []string{"outcome"}),
		storeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_requests_total",
			Help:      "Requests served by the records store, by status code.",
		}, []string{"code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// ObserveRetrieval counts one retrieval with the given outcome.
func (m *Metrics) ObserveRetrieval(outcome string) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(outcome).Inc()
}

// ObserveStoreRequest counts one records store response.
func (m *Metrics) ObserveStoreRequest(code int) {
	if m == nil {
		return
	}
	m.storeRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveHTTP records the latency of one HTTP request.
func (m *Metrics) ObserveHTTP(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
