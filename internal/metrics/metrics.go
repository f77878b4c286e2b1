// Package metrics holds the Prometheus collectors for scoring runs and the
// HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/lead-scorer/internal/model"
)

var (
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_runs_total",
			Help: "Total number of completed scoring runs",
		},
	)

	LeadsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_leads_scored_total",
			Help: "Total number of leads scored",
		},
	)

	LeadsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_leads_returned_total",
			Help: "Leads returned after the min_score floor, by priority",
		},
		[]string{"priority"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadscore_run_duration_seconds",
			Help:    "Duration of a scoring run (score, filter, sort) in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadscore_http_request_duration_seconds",
			Help:    "HTTP request latency by route in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RequestsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_requests_rejected_total",
			Help: "Requests rejected before scoring, by reason",
		},
		[]string{"reason"},
	)

	SourceCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadscore_source_circuit_state",
			Help: "Lead source circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)
)

// Recorder feeds scoring runs into the collectors above.
type Recorder struct{}

// ObserveRun records one completed run.
func (Recorder) ObserveRun(elapsed time.Duration, scored int, returned []model.ScoredLead) {
	RunsTotal.Inc()
	LeadsScored.Add(float64(scored))
	RunDuration.Observe(elapsed.Seconds())

	tiers := model.CountTiers(returned)
	LeadsReturned.WithLabelValues(string(model.PriorityHot)).Add(float64(tiers.Hot))
	LeadsReturned.WithLabelValues(string(model.PriorityWarm)).Add(float64(tiers.Warm))
	LeadsReturned.WithLabelValues(string(model.PriorityCold)).Add(float64(tiers.Cold))
}

// ObserveHTTP records one served request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
