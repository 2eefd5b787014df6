// Package metrics exposes Prometheus collectors for HTTP traffic, publishing,
// reconciliation, provider calls and scheduled jobs. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pazar"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups every collector the API records.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	publishJobs  *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	reconcile    *prometheus.CounterVec
	matches      *prometheus.HistogramVec
	provider     *prometheus.CounterVec

	Cron *CronJobMetrics
}

// New registers all collectors on reg. A nil reg returns a no-op instance.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		publishJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_jobs_total",
			Help:      "Finished publish jobs by channel and status.",
		}, []string{"channel", "status"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_queue_depth",
			Help:      "Instagram jobs waiting across all users.",
		}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
		matches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_matches",
			Help:      "Rows returned per reconciliation run.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"kind"}),
		provider: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Outgoing provider operations by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.publishJobs, m.queueDepth, m.reconcile, m.matches, m.provider)
	m.Cron = NewCronJobMetrics(reg)
	return m
}

// ObserveHTTP records one handled request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// PublishFinished counts a terminal publish outcome.
func (m *Metrics) PublishFinished(channel, status string) {
	if m == nil || m.publishJobs == nil {
		return
	}
	m.publishJobs.WithLabelValues(channel, status).Inc()
}

// QueueDelta moves the queue depth gauge.
func (m *Metrics) QueueDelta(n int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Add(float64(n))
}

// Reconciled records a reconciliation run. matches is ignored on failure.
func (m *Metrics) Reconciled(kind string, matches int, err error) {
	if m == nil || m.reconcile == nil {
		return
	}
	if err != nil {
		m.reconcile.WithLabelValues(kind, OutcomeFailure).Inc()
		return
	}
	m.reconcile.WithLabelValues(kind, OutcomeSuccess).Inc()
	m.matches.WithLabelValues(kind).Observe(float64(matches))
}

// ProviderCall counts one outgoing provider operation.
func (m *Metrics) ProviderCall(provider, operation string, err error) {
	if m == nil || m.provider == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.provider.WithLabelValues(provider, operation, outcome).Inc()
}
