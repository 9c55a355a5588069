package result

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/grading"
)

// Exam identifies an exam sitting within an academic year.
type Exam string

const (
	ExamFirstTerm Exam = "first_term"
	ExamMidTerm   Exam = "mid_term"
	ExamFinal     Exam = "final"
	ExamTest      Exam = "test"
)

var Exams = []Exam{ExamFirstTerm, ExamMidTerm, ExamFinal, ExamTest}

func (e Exam) Valid() bool {
	for _, exam := range Exams {
		if e == exam {
			return true
		}
	}
	return false
}

// SubjectMark is the raw mark of one subject.
type SubjectMark struct {
	SubjectID string `json:"subject_id" validate:"required,code"`
	Written   int    `json:"written" validate:"min=0,max=70"`
	Objective int    `json:"objective" validate:"min=0,max=30"`
}

func (sm SubjectMark) Mark() grading.Mark {
	return grading.Mark{Written: sm.Written, Objective: sm.Objective}
}

// Result holds a student's raw marks for one exam sitting.
type Result struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	StudentName   string        `json:"student_name"`
	GuardianEmail string        `json:"guardian_email,omitempty"`
	Class         string        `json:"class"`
	Exam          Exam          `json:"exam"`
	Year          int           `json:"year"`
	Marks         []SubjectMark `json:"marks"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"` // UTC
}

// NewResult contains information needed to record a new Result.
type NewResult struct {
	StudentID     string        `json:"student_id" validate:"required,code"`
	StudentName   string        `json:"student_name" validate:"required"`
	GuardianEmail string        `json:"guardian_email" validate:"omitempty,email"`
	Class         string        `json:"class" validate:"required,code"`
	Exam          Exam          `json:"exam" validate:"required,exam"`
	Year          int           `json:"year" validate:"required,year"`
	Marks         []SubjectMark `json:"marks" validate:"required,min=1,dive"`
}

func (nr *NewResult) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID, true /* lower */)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.GuardianEmail = core.CleanString(nr.GuardianEmail, true /* lower */)
	nr.Class = core.CleanString(nr.Class, true /* lower */)
	nr.Exam = Exam(core.CleanString(string(nr.Exam), true /* lower */))
	cleanMarks(nr.Marks)
	return validate.Struct(nr)
}

// UpdateResult defines what may be changed on an existing Result.
// Marks, when set, replace all the marks of the Result; an empty list is rejected.
type UpdateResult struct {
	StudentName   string        `json:"student_name"`
	GuardianEmail string        `json:"guardian_email" validate:"omitempty,email"`
	Marks         []SubjectMark `json:"marks" validate:"omitempty,min=1,dive"`
}

func (ur *UpdateResult) Validate(validate *validator.Validate) error {
	ur.StudentName = core.CleanString(ur.StudentName)
	ur.GuardianEmail = core.CleanString(ur.GuardianEmail, true /* lower */)
	cleanMarks(ur.Marks)
	return validate.Struct(ur)
}

func cleanMarks(marks []SubjectMark) {
	for i := range marks {
		marks[i].SubjectID = core.CleanString(marks[i].SubjectID, true /* lower */)
	}
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Class     string `query:"class"`
	Exam      Exam   `query:"exam"`
	Year      int    `query:"year"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
	qf.Class = core.CleanString(qf.Class, true /* lower */)
	qf.Exam = Exam(core.CleanString(string(qf.Exam), true /* lower */))
}

// GetFilter selects a single Result, by ID or by sitting (student, exam, year).
type GetFilter struct {
	ID        string
	StudentID string
	Exam      Exam
	Year      int
}

// SubjectLine is one evaluated subject of a Transcript.
type SubjectLine struct {
	SubjectID string               `json:"subject_id"`
	Role      grading.SubjectRole  `json:"role"`
	Mark      grading.Mark         `json:"mark"`
	Grade     grading.SubjectGrade `json:"grade"`
}

// Transcript is a Result with every subject evaluated and the sitting aggregated.
type Transcript struct {
	Result           Result                  `json:"result"`
	Subjects         []SubjectLine           `json:"subjects"`
	Aggregate        grading.AggregateResult `json:"aggregate"`
	VerificationCode string                  `json:"verification_code"`
}
