package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/zschema"
)

// Metrics holds the Prometheus instruments updated by ValidateJSON.
type Metrics struct {
	Validations *prometheus.CounterVec
	Issues      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zschema_validations_total",
				Help: "Request bodies validated, by schema and result.",
			}, []string{"schema", "result"}),
		Issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zschema_issues_total",
				Help: "Validation issues reported, by schema and code.",
			}, []string{"schema", "code"}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zschema_validation_duration_seconds",
				Help:    "Time spent decoding and validating a request body.",
				Buckets: prometheus.DefBuckets,
			}, []string{"schema"}),
	}
	if reg != nil {
		reg.MustRegister(m.Validations, m.Issues, m.Duration)
	}
	return m
}

// observe is a no-op on a nil receiver.
func (m *Metrics) observe(schema string, issues zschema.Issues, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case len(issues) > 0:
		result = "invalid"
	case err != nil:
		result = "error"
	}
	m.Validations.WithLabelValues(schema, result).Inc()
	for _, it := range issues {
		m.Issues.WithLabelValues(schema, it.Code).Inc()
	}
	m.Duration.WithLabelValues(schema).Observe(d.Seconds())
}
