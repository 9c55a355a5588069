package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/result"
)

func Test_resultRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(Open())

	marks := []result.SubjectMark{{SubjectID: "math", Written: 60, Objective: 25}}
	newResult := func(student, class string, exam result.Exam, year int) result.Result {
		r, err := repo.CreateResult(ctx, result.Result{
			StudentID: student, StudentName: student, Class: class, Exam: exam, Year: year, Marks: marks,
		})
		require.NoError(t, err)
		require.NotEmpty(t, r.ID)
		return r
	}

	r1 := newResult("s1", "form-1", result.ExamFinal, 2023)
	r2 := newResult("s2", "form-1", result.ExamFinal, 2023)
	r3 := newResult("s1", "form-2", result.ExamMidTerm, 2024)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetResult(ctx, result.GetFilter{ID: r2.ID})
		require.NoError(t, err)
		assert.Equal(t, r2, got)
	})

	t.Run("get by sitting", func(t *testing.T) {
		got, err := repo.GetResult(ctx, result.GetFilter{StudentID: "s1", Exam: result.ExamMidTerm, Year: 2024})
		require.NoError(t, err)
		assert.Equal(t, r3.ID, got.ID)

		_, err = repo.GetResult(ctx, result.GetFilter{StudentID: "s1", Exam: result.ExamTest, Year: 2024})
		assert.Equal(t, result.ErrNotFound, err)
	})

	t.Run("stored marks are detached", func(t *testing.T) {
		got, err := repo.GetResult(ctx, result.GetFilter{ID: r1.ID})
		require.NoError(t, err)
		got.Marks[0].Written = 0

		again, err := repo.GetResult(ctx, result.GetFilter{ID: r1.ID})
		require.NoError(t, err)
		assert.Equal(t, 60, again.Marks[0].Written)
	})

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name      string
			filter    result.QueryFilter
			orderings []core.DBOrdering
			want      []string
		}{
			{name: "all, default ordering", want: []string{r3.ID, r1.ID, r2.ID}},
			{name: "by student", filter: result.QueryFilter{StudentID: "s1"}, want: []string{r3.ID, r1.ID}},
			{name: "by class and year", filter: result.QueryFilter{Class: "form-1", Year: 2023}, want: []string{r1.ID, r2.ID}},
			{name: "by exam", filter: result.QueryFilter{Exam: result.ExamMidTerm}, want: []string{r3.ID}},
			{name: "no match", filter: result.QueryFilter{Year: 1999}, want: []string{}},
			{
				name:      "order by -student_id,year",
				orderings: []core.DBOrdering{{Field: "student_id"}, {Field: "year", Ascending: true}},
				want:      []string{r2.ID, r1.ID, r3.ID},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				results, err := repo.QueryResults(ctx, tt.filter, tt.orderings...)
				require.NoError(t, err)
				ids := make([]string, 0, len(results))
				for _, r := range results {
					ids = append(ids, r.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		r := r2
		r.StudentName = "Renamed"
		_, err := repo.UpdateResult(ctx, r)
		require.NoError(t, err)

		got, err := repo.GetResult(ctx, result.GetFilter{ID: r2.ID})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.StudentName)

		_, err = repo.UpdateResult(ctx, result.Result{ID: "unknown"})
		assert.Equal(t, result.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteResults(ctx, r1.ID, "unknown"))
		_, err := repo.GetResult(ctx, result.GetFilter{ID: r1.ID})
		assert.Equal(t, result.ErrNotFound, err)
	})
}
