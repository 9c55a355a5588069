// Package grading turns raw subject marks into grade points and letter grades,
// and aggregates a student's subject grades for one exam sitting into a GPA.
//
// Both Evaluate and Aggregate are pure functions and are safe for concurrent use.
package grading

import "fmt"

// Valid mark ranges, inclusive.
const (
	MaxWritten   = 70
	MaxObjective = 30
)

// Mark is the raw score of one subject.
type Mark struct {
	Written   int `json:"written"`
	Objective int `json:"objective"`
}

// SubjectGrade is the evaluation of a single Mark.
type SubjectGrade struct {
	Total      int        `json:"total"`
	GradePoint GradePoint `json:"grade_point"`
	Letter     Letter     `json:"letter_grade"`
}

// OutOfRangeError reports a mark component outside its valid range.
type OutOfRangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (err *OutOfRangeError) Error() string {
	bound := "maximum"
	limit := err.Max
	if err.Value < err.Min {
		bound, limit = "minimum", err.Min
	}
	return fmt.Sprintf("%s score %d violates %s %d (range %d-%d)", err.Field, err.Value, bound, limit, err.Min, err.Max)
}

// Validate checks both components of m; written is checked first.
func (m Mark) Validate() error {
	if m.Written < 0 || m.Written > MaxWritten {
		return &OutOfRangeError{Field: "written", Value: m.Written, Min: 0, Max: MaxWritten}
	}
	if m.Objective < 0 || m.Objective > MaxObjective {
		return &OutOfRangeError{Field: "objective", Value: m.Objective, Min: 0, Max: MaxObjective}
	}
	return nil
}

// Evaluate maps a mark to its total, grade point and letter grade.
// Out of range components are reported as *OutOfRangeError, never clamped.
func Evaluate(m Mark) (SubjectGrade, error) {
	if err := m.Validate(); err != nil {
		return SubjectGrade{}, err
	}
	total := m.Written + m.Objective
	b := bandFor(total)
	return SubjectGrade{Total: total, GradePoint: b.point, Letter: b.letter}, nil
}
