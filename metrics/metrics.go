package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	stepSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_step_submissions_total",
			Help: "Wizard step submissions by flow, step and result.",
		},
		[]string{"flow", "step", "result"},
	)

	replicationTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_replication_tasks_total",
			Help: "Background checkpoint replication tasks by task and result (succeeded/failed/dropped).",
		},
		[]string{"task", "result"},
	)

	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Completed registrations stored by the backend, by flow.",
		},
		[]string{"flow"},
	)

	pricingFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_fallbacks_total",
			Help: "Fee quotes that used the fallback flat rate, by item kind.",
		},
		[]string{"kind"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency by method and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			stepSubmissionsTotal,
			replicationTasksTotal,
			registrationsTotal,
			pricingFallbacksTotal,
			httpRequestDuration,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncStepSubmission(flow, step, result string) {
	stepSubmissionsTotal.WithLabelValues(norm(flow), norm(step), norm(result)).Inc()
}

func IncReplication(task, result string) {
	replicationTasksTotal.WithLabelValues(norm(task), norm(result)).Inc()
}

func IncRegistration(flow string) {
	registrationsTotal.WithLabelValues(norm(flow)).Inc()
}

func IncPricingFallback(kind string) {
	pricingFallbacksTotal.WithLabelValues(norm(kind)).Inc()
}

func ObserveHTTPRequest(method string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
