package metricsvc

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/alama/core/grading"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubject(grading.APlus)
	m.ObserveSubject(grading.APlus)
	m.ObserveSubject(grading.F)
	m.ObserveAggregate(grading.AggregateResult{GPA: 4.17, Grade: grading.A})
	m.ObserveAggregate(grading.AggregateResult{GPA: 0, Grade: grading.F})
	m.ObserveRejected("out_of_range")
	m.ObserveRequest(http.MethodGet, "/v1/results/:id", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SubjectGrades.WithLabelValues("A+")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubjectGrades.WithLabelValues("F")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AggregateGrades.WithLabelValues("A")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FailOverrides))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Rejected.WithLabelValues("out_of_range")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestLatency))
}

func TestMetrics_nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSubject(grading.A)
		m.ObserveAggregate(grading.AggregateResult{Grade: grading.NotApplicable})
		m.ObserveRejected("invalid_grade_point")
		m.ObserveRequest(http.MethodPost, "/", http.StatusCreated, time.Second)
	})
}
