package metricsvc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/alama/core/grading"
	"github.com/trezcool/alama/core/result"
)

// Metrics provides observability for grading and the HTTP API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Subject evaluations by letter grade
	SubjectGrades *prometheus.CounterVec

	// Aggregations by overall grade
	AggregateGrades *prometheus.CounterVec

	// Aggregations settled by a failed compulsory subject
	FailOverrides prometheus.Counter

	// Inputs refused by the engine, by kind
	Rejected *prometheus.CounterVec

	// API request latencies by route and status
	RequestLatency *prometheus.HistogramVec
}

var _ result.Recorder = (*Metrics)(nil)

// New creates a Metrics instance with every metric registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubjectGrades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alama_grading_subject_grades_total",
			Help: "Total subjects graded by letter, from marks written and grading requests",
		}, []string{"letter"}),

		AggregateGrades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alama_grading_aggregate_grades_total",
			Help: "Total results graded by overall grade, from marks written and grading requests",
		}, []string{"grade"}),

		FailOverrides: factory.NewCounter(prometheus.CounterOpts{
			Name: "alama_grading_fail_overrides_total",
			Help: "Total graded results failed by a compulsory subject",
		}),

		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alama_grading_rejected_total",
			Help: "Total grading inputs rejected by kind",
		}, []string{"kind"}), // kind: "out_of_range", "invalid_grade_point", "multiple_optional"

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alama_http_request_duration_seconds",
			Help:    "Duration of API requests by method, route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "code"}),
	}
}

// ObserveSubject records one subject evaluation.
func (m *Metrics) ObserveSubject(letter grading.Letter) {
	if m != nil {
		m.SubjectGrades.WithLabelValues(string(letter)).Inc()
	}
}

// ObserveAggregate records one aggregation.
func (m *Metrics) ObserveAggregate(res grading.AggregateResult) {
	if m == nil {
		return
	}
	m.AggregateGrades.WithLabelValues(string(res.Grade)).Inc()
	if res.Failed() {
		m.FailOverrides.Inc()
	}
}

// ObserveRejected records an input refused by the engine.
func (m *Metrics) ObserveRejected(kind string) {
	if m != nil {
		m.Rejected.WithLabelValues(kind).Inc()
	}
}

// ObserveRequest records the duration of an API request.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
	}
}
