// Package result records students' exam marks and turns them into graded transcripts.
package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	// errors
	ErrNotFound      = errors.New("result not found")
	ErrSittingExists = errors.New("a result already exists for this student, exam and year")
	ErrNoGuardian    = errors.New("no guardian email on record")
	ErrNoMarks       = errors.New("a result needs at least one subject mark")
)

type (
	Repository interface {
		CreateResult(ctx context.Context, r Result) (Result, error)
		// GetResult returns ErrNotFound when no Result matches the filter.
		GetResult(ctx context.Context, filter GetFilter) (Result, error)
		// QueryResults applies AND operation on the non-zero QueryFilter fields.
		QueryResults(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Result, error)
		UpdateResult(ctx context.Context, r Result) (Result, error)
		DeleteResults(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, nr NewResult) (Result, error)
		Get(ctx context.Context, id string) (Result, error)
		Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Result, error)
		Update(ctx context.Context, id string, ur UpdateResult) (Result, error)
		Delete(ctx context.Context, ids ...string) error
		Transcript(ctx context.Context, id string) (Transcript, error)
		Verify(ctx context.Context, code string) (Transcript, error)
		SendSlip(ctx context.Context, id string) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		policy   PolicyResolver
		recorder Recorder
		signer   codeSigner
	}

	Option func(*service)
)

var _ Service = (*service)(nil)

// WithPolicy overrides the class policy built from the configuration.
func WithPolicy(p PolicyResolver) Option {
	return func(svc *service) { svc.policy = p }
}

// WithRecorder sets the observer of grading outcomes.
func WithRecorder(rec Recorder) Option {
	return func(svc *service) {
		if rec != nil {
			svc.recorder = rec
		}
	}
}

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, opts ...Option) Service {
	svc := &service{
		repo:     repo,
		mailSvc:  mailSvc,
		policy:   ClassPolicy(conf.Grading.OptionalSubjects),
		recorder: noopRecorder{},
		signer: codeSigner{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.Grading.VerificationTimeout,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func now() time.Time {
	// postgres keeps microseconds
	return NowFunc().UTC().Truncate(time.Microsecond)
}

func (svc *service) Create(ctx context.Context, nr NewResult) (Result, error) {
	if len(nr.Marks) == 0 {
		return Result{}, noMarksError()
	}

	_, err := svc.repo.GetResult(ctx, GetFilter{StudentID: nr.StudentID, Exam: nr.Exam, Year: nr.Year})
	switch {
	case err == nil:
		return Result{}, core.NewValidationError(ErrSittingExists, core.FieldError{Field: "exam", Error: ErrSittingExists.Error()})
	case pkgerrors.Cause(err) != ErrNotFound:
		return Result{}, pkgerrors.Wrap(err, "checking sitting")
	}

	ts := now()
	r := Result{
		StudentID:     nr.StudentID,
		StudentName:   nr.StudentName,
		GuardianEmail: nr.GuardianEmail,
		Class:         nr.Class,
		Exam:          nr.Exam,
		Year:          nr.Year,
		Marks:         nr.Marks,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	// marks passed request validation already; the engine checks them again
	if err = svc.grade(r); err != nil {
		return Result{}, err
	}
	return svc.repo.CreateResult(ctx, r)
}

func (svc *service) Get(ctx context.Context, id string) (Result, error) {
	return svc.repo.GetResult(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Result, error) {
	filter.Clean()
	return svc.repo.QueryResults(ctx, filter, orderings...)
}

func (svc *service) Update(ctx context.Context, id string, ur UpdateResult) (Result, error) {
	r, err := svc.repo.GetResult(ctx, GetFilter{ID: id})
	if err != nil {
		return Result{}, err
	}
	if ur.Marks != nil {
		if len(ur.Marks) == 0 {
			return Result{}, noMarksError()
		}
		r.Marks = ur.Marks
		if err = svc.grade(r); err != nil {
			return Result{}, err
		}
	}
	if ur.StudentName != "" {
		r.StudentName = ur.StudentName
	}
	if ur.GuardianEmail != "" {
		r.GuardianEmail = ur.GuardianEmail
	}
	r.UpdatedAt = now()
	return svc.repo.UpdateResult(ctx, r)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteResults(ctx, ids...)
}

func noMarksError() error {
	return core.NewValidationError(ErrNoMarks, core.FieldError{Field: "marks", Error: ErrNoMarks.Error()})
}

// grade runs r's marks through the engine and reports the outcome to the recorder.
func (svc *service) grade(r Result) error {
	_, err := buildTranscript(r, svc.policy.PolicyFor(r), svc.recorder)
	return err
}

func (svc *service) transcript(r Result) (Transcript, error) {
	return buildTranscript(r, svc.policy.PolicyFor(r), noopRecorder{})
}

func (svc *service) Transcript(ctx context.Context, id string) (Transcript, error) {
	r, err := svc.repo.GetResult(ctx, GetFilter{ID: id})
	if err != nil {
		return Transcript{}, err
	}
	tr, err := svc.transcript(r)
	if err != nil {
		return Transcript{}, err
	}
	if tr.VerificationCode, err = svc.signer.make(tr); err != nil {
		return Transcript{}, pkgerrors.Wrap(err, "signing transcript")
	}
	return tr, nil
}

// Verify returns the Transcript a verification code was issued for.
// ErrInvalidCode is returned for unknown results and for results changed since issuance.
func (svc *service) Verify(ctx context.Context, code string) (Transcript, error) {
	id, err := resultIDFromCode(code)
	if err != nil {
		return Transcript{}, err
	}
	r, err := svc.repo.GetResult(ctx, GetFilter{ID: id})
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Transcript{}, ErrInvalidCode
		}
		return Transcript{}, err
	}
	tr, err := svc.transcript(r)
	if err != nil {
		return Transcript{}, err
	}
	if err = svc.signer.verify(tr, code); err != nil {
		return Transcript{}, err
	}
	tr.VerificationCode = code
	return tr, nil
}

// SendSlip emails the result slip to the student's guardian, with the transcript attached as CSV.
func (svc *service) SendSlip(ctx context.Context, id string) error {
	tr, err := svc.Transcript(ctx, id)
	if err != nil {
		return err
	}
	if tr.Result.GuardianEmail == "" {
		return core.NewValidationError(ErrNoGuardian, core.FieldError{Field: "guardian_email", Error: ErrNoGuardian.Error()})
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: tr.Result.StudentName, Address: tr.Result.GuardianEmail}},
		Subject:      fmt.Sprintf("Result slip: %s (%s %d)", tr.Result.StudentName, tr.Result.Exam, tr.Result.Year),
		TemplateName: "result_slip",
		TemplateData: tr,
	}
	content, err := transcriptCSV(tr)
	if err != nil {
		return pkgerrors.Wrap(err, "writing transcript csv")
	}
	filename := fmt.Sprintf("%s_%s_%d.csv", tr.Result.StudentID, tr.Result.Exam, tr.Result.Year)
	if err = msg.Attach(bytes.NewReader(content), filename, "text/csv"); err != nil {
		return pkgerrors.Wrap(err, "attaching transcript")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func transcriptCSV(tr Transcript) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"subject", "role", "written", "objective", "total", "grade_point", "letter_grade"}}
	for _, s := range tr.Subjects {
		rows = append(rows, []string{
			s.SubjectID,
			s.Role.String(),
			strconv.Itoa(s.Mark.Written),
			strconv.Itoa(s.Mark.Objective),
			strconv.Itoa(s.Grade.Total),
			s.Grade.GradePoint.String(),
			string(s.Grade.Letter),
		})
	}
	rows = append(rows, []string{"gpa", "", "", "", "", strconv.FormatFloat(tr.Aggregate.GPA, 'f', 2, 64), string(tr.Aggregate.Grade)})
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
