package grading

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMultipleOptional is returned when more than one entry of a sitting is tagged Optional.
var ErrMultipleOptional = errors.New("at most one optional subject is allowed per exam sitting")

// Entry is one subject's contribution to an aggregate.
type Entry struct {
	GradePoint GradePoint  `json:"grade_point"`
	Role       SubjectRole `json:"role"`
}

// AggregateResult is the GPA and letter grade of one student's exam sitting.
type AggregateResult struct {
	GPA   float64 `json:"gpa"`
	Grade Letter  `json:"grade"`
}

// Failed reports whether the sitting was failed.
func (r AggregateResult) Failed() bool { return r.Grade == F }

// InvalidRoleError reports an entry whose role is neither Compulsory nor Optional.
type InvalidRoleError struct {
	Role SubjectRole
}

func (err *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid subject role %d: must be compulsory or optional", int(err.Role))
}

// InvalidGradePointError reports a grade point outside the fixed scale.
type InvalidGradePointError struct {
	Value GradePoint
}

func (err *InvalidGradePointError) Error() string {
	return fmt.Sprintf("invalid grade point %v: must be one of 0.0, 1.0, 2.0, 3.0, 3.5, 4.0, 5.0", float64(err.Value))
}

var (
	failed = AggregateResult{GPA: 0, Grade: F}
	empty  = AggregateResult{GPA: 0, Grade: NotApplicable}
	gpaCap = decimal.NewFromFloat(float64(MaxGradePoint))
)

// Aggregate combines the subject grades of one exam sitting into a GPA.
//
// Any failed compulsory subject fails the whole sitting, whatever the optional subject scored.
// The optional subject only adds its surplus above 2.0 to the sum; it is never counted in the divisor.
func Aggregate(entries []Entry) (AggregateResult, error) {
	var (
		compulsory []GradePoint
		optional   *GradePoint
	)
	for i, e := range entries {
		if !e.GradePoint.Valid() {
			return AggregateResult{}, &InvalidGradePointError{Value: e.GradePoint}
		}
		switch e.Role {
		case Optional:
			if optional != nil {
				return AggregateResult{}, ErrMultipleOptional
			}
			optional = &entries[i].GradePoint
		case Compulsory:
			compulsory = append(compulsory, e.GradePoint)
		default:
			return AggregateResult{}, &InvalidRoleError{Role: e.Role}
		}
	}

	// fail override comes before everything else, bonus included
	for _, gp := range compulsory {
		if gp == failBand.point {
			return failed, nil
		}
	}
	if len(compulsory) == 0 {
		return empty, nil
	}

	sum := decimal.Zero
	for _, gp := range compulsory {
		sum = sum.Add(decimal.NewFromFloat(float64(gp)))
	}
	if optional != nil && *optional > optionalThreshold {
		sum = sum.Add(decimal.NewFromFloat(float64(*optional - optionalThreshold)))
	}

	gpa := sum.Div(decimal.NewFromInt(int64(len(compulsory)))).Round(2)
	if gpa.GreaterThan(gpaCap) {
		gpa = gpaCap
	}
	value, _ := gpa.Float64()
	return AggregateResult{GPA: value, Grade: LetterForGPA(value)}, nil
}
