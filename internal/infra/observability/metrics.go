package observability

import (
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Failure kinds counted by the reporter, beyond the request failure kinds.
const (
	FailureAPI        = "api_error"
	FailureUnexpected = "unexpected_response"
)

var outcomes = []string{"2xx", "3xx", "4xx", "5xx", "error"}

var requestFailures = []domain.RequestFailure{
	domain.RequestBuild, domain.RequestTimeout, domain.RequestCanceled, domain.RequestNetwork,
}

// Metrics holds all Prometheus metrics for the gateway and the Rotessa client.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	callDuration    *prometheus.HistogramVec
	callsTotal      *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Duration of gateway operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rotessa_call_duration_seconds",
				Help:    "Duration of Rotessa round trips by route template and outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "outcome"},
		),
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotessa_calls_total",
				Help: "Total Rotessa round trips by outcome.",
			},
			[]string{"outcome"},
		),
		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotessa_failures_total",
				Help: "Total errors returned by the Rotessa client, by kind.",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequestDuration records the duration of a gateway operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordCall records one Rotessa round trip.
func (m *Metrics) RecordCall(route, outcome string, d time.Duration) {
	m.callDuration.WithLabelValues(route, outcome).Observe(d.Seconds())
	m.callsTotal.WithLabelValues(outcome).Inc()
}

// IncrFailure counts one client error of the given kind.
func (m *Metrics) IncrFailure(kind string) {
	m.failuresTotal.WithLabelValues(kind).Inc()
}

// Snapshot summarizes the Rotessa counters for GET /v1/metrics/rotessa.
func (m *Metrics) Snapshot() *domain.RotessaMetrics {
	byOutcome := make(map[string]int64, len(outcomes))
	var total float64
	for _, o := range outcomes {
		v := getCounterValue(m.callsTotal, o)
		total += v
		if v > 0 {
			byOutcome[o] = int64(v)
		}
	}

	apiErrors := getCounterValue(m.failuresTotal, FailureAPI)
	unexpected := getCounterValue(m.failuresTotal, FailureUnexpected)
	var requestErrors float64
	for _, k := range requestFailures {
		requestErrors += getCounterValue(m.failuresTotal, string(k))
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = (apiErrors + unexpected + requestErrors) / total
	}

	return &domain.RotessaMetrics{
		TotalCalls:     int64(total),
		APIErrors:      int64(apiErrors),
		RequestErrors:  int64(requestErrors),
		Unexpected:     int64(unexpected),
		Timeouts:       int64(getCounterValue(m.failuresTotal, string(domain.RequestTimeout))),
		ErrorRate:      errorRate,
		CallsByOutcome: byOutcome,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
