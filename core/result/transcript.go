package result

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/grading"
)

// PolicyResolver picks the subject role policy that applies to a Result.
type PolicyResolver interface {
	PolicyFor(r Result) grading.RolePolicy
}

// ClassPolicy maps a class to the subject that is optional for its students.
type ClassPolicy map[string]string

func (cp ClassPolicy) PolicyFor(r Result) grading.RolePolicy {
	if subjectID, ok := cp[r.Class]; ok {
		return grading.OptionalTable{r.StudentID: subjectID}
	}
	return grading.AllCompulsory
}

// Recorder observes grading outcomes, e.g. for metrics.
// The service reports marks when they are written (Create, Update), never on reads.
type Recorder interface {
	ObserveSubject(letter grading.Letter)
	ObserveAggregate(res grading.AggregateResult)
	ObserveRejected(kind string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveSubject(grading.Letter)            {}
func (noopRecorder) ObserveAggregate(grading.AggregateResult) {}
func (noopRecorder) ObserveRejected(string)                   {}

// evaluateMarks evaluates each mark once. Range errors become field errors on "marks[i].<field>".
func evaluateMarks(marks []SubjectMark, rec Recorder) ([]grading.SubjectGrade, error) {
	grades := make([]grading.SubjectGrade, 0, len(marks))
	for i, m := range marks {
		grade, err := grading.Evaluate(m.Mark())
		if err != nil {
			var rangeErr *grading.OutOfRangeError
			if errors.As(err, &rangeErr) {
				rec.ObserveRejected("out_of_range")
				return nil, core.NewValidationError(err, core.FieldError{
					Field: fmt.Sprintf("marks[%d].%s", i, rangeErr.Field),
					Error: rangeErr.Error(),
				})
			}
			return nil, errors.Wrap(err, "evaluating mark")
		}
		rec.ObserveSubject(grade.Letter)
		grades = append(grades, grade)
	}
	return grades, nil
}

// buildTranscript evaluates r's marks, then aggregates them with the roles resolved by policy.
func buildTranscript(r Result, policy grading.RolePolicy, rec Recorder) (Transcript, error) {
	grades, err := evaluateMarks(r.Marks, rec)
	if err != nil {
		return Transcript{}, err
	}

	subjectIDs := make([]string, 0, len(r.Marks))
	for _, m := range r.Marks {
		subjectIDs = append(subjectIDs, m.SubjectID)
	}
	entries, err := grading.Entries(policy, r.StudentID, subjectIDs, grades)
	if err != nil {
		return Transcript{}, errors.Wrap(err, "resolving subject roles")
	}

	agg, err := grading.Aggregate(entries)
	if err != nil {
		// grade points come from Evaluate and OptionalTable yields at most one optional subject
		return Transcript{}, errors.Wrap(err, "aggregating grades")
	}
	rec.ObserveAggregate(agg)

	lines := make([]SubjectLine, 0, len(r.Marks))
	for i, m := range r.Marks {
		lines = append(lines, SubjectLine{
			SubjectID: m.SubjectID,
			Role:      entries[i].Role,
			Mark:      m.Mark(),
			Grade:     grades[i],
		})
	}
	return Transcript{Result: r, Subjects: lines, Aggregate: agg}, nil
}
