// Package metrics exposes Prometheus collectors for vote writes, score
// aggregation and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote kinds and outcomes used as label values.
const (
	KindPeer    = "peer"
	KindTeacher = "teacher"

	OutcomeCreated  = "created"
	OutcomeEdited   = "edited"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds every collector the service records into. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	votesSubmitted      *prometheus.CounterVec
	aggregationDuration *prometheus.HistogramVec
	leaderboardTeams    *prometheus.GaugeVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers all collectors in a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		votesSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classboard_votes_submitted_total",
				Help: "Vote submissions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		aggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classboard_aggregation_duration_seconds",
				Help:    "Time spent reading votes and aggregating a session.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		leaderboardTeams: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "classboard_leaderboard_teams",
				Help: "Number of ranked teams in the last leaderboard built per class.",
			},
			[]string{"class_id"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classboard_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classboard_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) VoteSubmitted(kind, outcome string) {
	if m == nil {
		return
	}
	m.votesSubmitted.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveAggregation(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.aggregationDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) SetLeaderboardTeams(classID string, n int) {
	if m == nil {
		return
	}
	m.leaderboardTeams.WithLabelValues(classID).Set(float64(n))
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
