package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueDepther is satisfied by the admission bucket.
type QueueDepther interface {
	Pending() int
	Tokens() int
}

type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	AdmissionWait    prometheus.Histogram
	FetchRetries     *prometheus.CounterVec
	StaleResponses   *prometheus.CounterVec
}

func New(reg prometheus.Registerer, bucket QueueDepther) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadlock_upstream_requests_total",
				Help: "Total requests sent to the upstream statistics service",
			},
			[]string{"endpoint", "code"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deadlock_upstream_request_duration_seconds",
				Help:    "Upstream round-trip duration in seconds, excluding admission wait",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		AdmissionWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deadlock_admission_wait_seconds",
				Help:    "Time spent waiting for a rate limiter token",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
			},
		),
		FetchRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadlock_fetch_retries_total",
				Help: "Fetch attempts retried after a retryable upstream failure",
			},
			[]string{"endpoint"},
		),
		StaleResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deadlock_stale_responses_total",
				Help: "Panel responses discarded because a newer fetch was issued",
			},
			[]string{"panel"},
		),
	}

	queueDepth := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "deadlock_admission_queue_depth",
			Help: "Callers currently waiting for a rate limiter token",
		},
		func() float64 { return float64(bucket.Pending()) },
	)
	tokens := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "deadlock_admission_tokens",
			Help: "Rate limiter tokens currently available",
		},
		func() float64 { return float64(bucket.Tokens()) },
	)

	reg.MustRegister(m.UpstreamRequests, m.UpstreamDuration, m.AdmissionWait, m.FetchRetries, m.StaleResponses, queueDepth, tokens)
	return m
}

// ObserveUpstream records one upstream round trip. code 0 means the transport failed.
func (m *Metrics) ObserveUpstream(endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.UpstreamRequests.WithLabelValues(endpoint, label).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveAdmission(d time.Duration) {
	if m == nil {
		return
	}
	m.AdmissionWait.Observe(d.Seconds())
}

func (m *Metrics) IncRetry(endpoint string) {
	if m == nil {
		return
	}
	m.FetchRetries.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncStale(panel string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(panel).Inc()
}
