package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/result"
	"github.com/trezcool/alama/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student account bound to the given registry ID.
func CreateStudent(t *testing.T, repo user.Repository, uname, studentID, pwd string) user.User {
	usr := CreateUser(t, repo, "Student "+uname, uname, uname+"@test.cd", pwd, []string{user.RoleStudent}, true)
	usr.StudentID = studentID
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr
}

// Marks builds subject marks from "subject", written, objective triples.
func Marks(triples ...interface{}) []result.SubjectMark {
	marks := make([]result.SubjectMark, 0, len(triples)/3)
	for i := 0; i+2 < len(triples); i += 3 {
		marks = append(marks, result.SubjectMark{
			SubjectID: triples[i].(string),
			Written:   triples[i+1].(int),
			Objective: triples[i+2].(int),
		})
	}
	return marks
}

func CreateResult(
	t *testing.T,
	repo result.Repository,
	studentID, class string,
	exam result.Exam,
	year int,
	marks []result.SubjectMark,
) result.Result {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r, err := repo.CreateResult(context.Background(), result.Result{
		StudentID:     studentID,
		StudentName:   "Student " + studentID,
		GuardianEmail: "guardian." + studentID + "@test.cd",
		Class:         class,
		Exam:          exam,
		Year:          year,
		Marks:         marks,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	return r
}

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	result.InitValidators(validate, translator)
	return validate, translator
}

// NewConfig returns the test config with WorkDir set to the module root, where assets live.
func NewConfig() *core.Config {
	conf := core.NewTestConfig()
	conf.WorkDir = core.Getwd()
	return conf
}

// Logger is a core.Logger writing to stderr.
type Logger struct {
	std *log.Logger
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stderr, "TEST : ", log.LstdFlags|log.Lshortfile)}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.std.Output(3, fmt.Sprintf("%s: %s %v", level, msg, args)) // nolint
}

func (l *Logger) Debug(msg string, args ...interface{})    { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})     { l.log("INFO", msg, args) }
func (l *Logger) Warning(msg string, args ...interface{})  { l.log("WARNING", msg, args) }
func (l *Logger) Error(msg string, args ...interface{})    { l.log("ERROR", msg, args) }
func (l *Logger) Critical(msg string, args ...interface{}) { l.log("CRITICAL", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	os.Exit(1)
}
