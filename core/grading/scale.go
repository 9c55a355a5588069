package grading

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GradePoint is a subject's performance tier on the fixed 0-5 scale.
type GradePoint float64

// Letter is the symbolic label paired with a GradePoint.
type Letter string

const (
	APlus         Letter = "A+"
	A             Letter = "A"
	AMinus        Letter = "A-"
	B             Letter = "B"
	C             Letter = "C"
	D             Letter = "D"
	F             Letter = "F"
	NotApplicable Letter = "N/A"
)

const (
	// MaxGradePoint is the highest grade point a single subject can earn, and the GPA cap.
	MaxGradePoint GradePoint = 5.0

	// optionalThreshold is the grade point an optional subject must exceed to earn a bonus.
	optionalThreshold GradePoint = 2.0
)

// Valid reports whether gp is one of the seven points of the scale.
func (gp GradePoint) Valid() bool {
	for _, band := range subjectScale {
		if band.point == gp {
			return true
		}
	}
	return gp == failBand.point
}

func (gp GradePoint) String() string {
	return strconv.FormatFloat(float64(gp), 'f', 1, 64)
}

type band struct {
	minTotal int
	point    GradePoint
	letter   Letter
}

// subjectScale is evaluated top-down, first match wins; minTotal is inclusive.
var (
	subjectScale = []band{
		{minTotal: 80, point: 5.0, letter: APlus},
		{minTotal: 70, point: 4.0, letter: A},
		{minTotal: 60, point: 3.5, letter: AMinus},
		{minTotal: 50, point: 3.0, letter: B},
		{minTotal: 40, point: 2.0, letter: C},
		{minTotal: 33, point: 1.0, letter: D},
	}
	failBand = band{point: 0.0, letter: F}
)

func bandFor(total int) band {
	for _, b := range subjectScale {
		if total >= b.minTotal {
			return b
		}
	}
	return failBand
}

// gpaScale maps an aggregate GPA to a letter. It does not share breakpoints with subjectScale.
var gpaScale = []struct {
	min    float64
	letter Letter
}{
	{min: 4.0, letter: A},
	{min: 3.5, letter: AMinus},
	{min: 3.0, letter: B},
	{min: 2.0, letter: C},
	{min: 1.0, letter: D},
}

// LetterForGPA maps an aggregate GPA to its letter grade.
func LetterForGPA(gpa float64) Letter {
	if gpa == float64(MaxGradePoint) {
		return APlus
	}
	for _, s := range gpaScale {
		if gpa >= s.min {
			return s.letter
		}
	}
	return F
}

// SubjectRole tells the Aggregator how a subject counts towards the GPA.
type SubjectRole int

const (
	Compulsory SubjectRole = iota
	Optional
)

var roleNames = map[SubjectRole]string{
	Compulsory: "compulsory",
	Optional:   "optional",
}

func (r SubjectRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("SubjectRole(%d)", int(r))
}

// ParseSubjectRole parses "compulsory" or "optional" (case-insensitive).
// An empty string is Compulsory.
func ParseSubjectRole(s string) (SubjectRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", roleNames[Compulsory]:
		return Compulsory, nil
	case roleNames[Optional]:
		return Optional, nil
	}
	return Compulsory, errors.Errorf("invalid subject role %q", s)
}

func (r SubjectRole) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, errors.Errorf("invalid subject role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *SubjectRole) UnmarshalText(text []byte) error {
	role, err := ParseSubjectRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
