package result

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

const (
	minYear = 2000
	maxYear = 2100
)

var (
	examTag  = "exam"
	examText = fmt.Sprintf("must be one of %v", Exams)

	yearTag  = "year"
	yearText = fmt.Sprintf("must be an academic year between %d and %d", minYear, maxYear)

	uniqueSubjectsTag  = "uniquesubjects"
	uniqueSubjectsText = "a subject can only be marked once per result"
)

// InitValidators registers the result validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examTag, examValidation)
	core.RegisterCustomTranslation(validate, translator, examTag, examText)

	_ = validate.RegisterValidation(yearTag, yearValidation)
	core.RegisterCustomTranslation(validate, translator, yearTag, yearText)

	validate.RegisterStructValidation(resultStructValidation, NewResult{}, UpdateResult{})
	core.RegisterCustomTranslation(validate, translator, uniqueSubjectsTag, uniqueSubjectsText)
}

func examValidation(fl validator.FieldLevel) bool {
	return Exam(fl.Field().String()).Valid()
}

func yearValidation(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= minYear && year <= maxYear
}

// resultStructValidation checks that no subject is marked twice.
func resultStructValidation(sl validator.StructLevel) {
	var marks []SubjectMark
	switch r := sl.Current().Interface().(type) {
	case NewResult:
		marks = r.Marks
	case UpdateResult:
		marks = r.Marks
	}
	if !uniqueSubjects(marks) {
		sl.ReportError(marks, "marks", "Marks", uniqueSubjectsTag, "")
	}
}

func uniqueSubjects(marks []SubjectMark) bool {
	seen := make(map[string]struct{}, len(marks))
	for _, m := range marks {
		if _, ok := seen[m.SubjectID]; ok {
			return false
		}
		seen[m.SubjectID] = struct{}{}
	}
	return true
}
