package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/alama/core/user"
	apptest "github.com/trezcool/alama/tests"
)

func Test_gradingApi(t *testing.T) {
	app := setup(t)
	teacher := apptest.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	token := getToken(t, app.conf, teacher)

	tests := []httpTest{
		{
			name:     "evaluate: no token",
			path:     "/v1/grading/evaluate",
			body:     []byte(`{"written": 60, "objective": 25}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "evaluate: top band",
			path:     "/v1/grading/evaluate",
			body:     []byte(`{"written": 60, "objective": 25}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"total": 85, "grade_point": 5, "letter_grade": "A+"}`),
		},
		{
			name:     "evaluate: lower bound of D",
			path:     "/v1/grading/evaluate",
			body:     []byte(`{"written": 33, "objective": 0}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"total": 33, "grade_point": 1, "letter_grade": "D"}`),
		},
		{
			name:     "evaluate: written out of range",
			path:     "/v1/grading/evaluate",
			body:     []byte(`{"written": 71, "objective": 0}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"written": "written score 71 violates maximum 70 (range 0-70)"}`),
		},
		{
			name:     "evaluate: negative objective",
			path:     "/v1/grading/evaluate",
			body:     []byte(`{"written": 10, "objective": -1}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"objective": "objective score -1 violates minimum 0 (range 0-30)"}`),
		},
		{
			name: "aggregate: optional bonus",
			path: "/v1/grading/aggregate",
			body: []byte(`{"grades": [
				{"grade_point": 5.0, "role": "compulsory"},
				{"grade_point": 4.0},
				{"grade_point": 3.5},
				{"grade_point": 4.0, "role": "optional"}
			]}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"gpa": 4.83, "grade": "A"}`),
		},
		{
			name: "aggregate: failed compulsory",
			path: "/v1/grading/aggregate",
			body: []byte(`{"grades": [
				{"grade_point": 5.0},
				{"grade_point": 0.0},
				{"grade_point": 5.0, "role": "optional"}
			]}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"gpa": 0, "grade": "F"}`),
		},
		{
			name:     "aggregate: nothing to grade",
			path:     "/v1/grading/aggregate",
			body:     []byte(`{"grades": []}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"gpa": 0, "grade": "N/A"}`),
		},
		{
			name:     "aggregate: grade point off the scale",
			path:     "/v1/grading/aggregate",
			body:     []byte(`{"grades": [{"grade_point": 2.5}]}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "invalid grade point 2.5: must be one of 0.0, 1.0, 2.0, 3.0, 3.5, 4.0, 5.0"}`),
		},
		{
			name: "aggregate: two optional subjects",
			path: "/v1/grading/aggregate",
			body: []byte(`{"grades": [
				{"grade_point": 3.0},
				{"grade_point": 4.0, "role": "optional"},
				{"grade_point": 5.0, "role": "optional"}
			]}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "at most one optional subject is allowed per exam sitting"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			if tt.wantCode != http.StatusUnauthorized {
				tt.token = token
			}
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.SubjectGrades.WithLabelValues("A+")))
		assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.AggregateGrades.WithLabelValues("F")))
		assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.FailOverrides))
		assert.Equal(t, float64(2), testutil.ToFloat64(app.metrics.Rejected.WithLabelValues("out_of_range")))
		assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.Rejected.WithLabelValues("invalid_grade_point")))
		assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.Rejected.WithLabelValues("multiple_optional")))

		rec := app.do(httpTest{method: http.MethodGet, path: "/metrics"})
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.Contains(body, `alama_grading_subject_grades_total{letter="D"} 1`), body)
		assert.True(t, strings.Contains(body, `alama_http_request_duration_seconds_count{code="200",method="POST",route="/v1/grading/evaluate"} 2`), body)
	})
}
