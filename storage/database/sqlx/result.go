package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/result"
)

const resultColumns = `id, student_id, student_name, guardian_email, class, exam, year, created_at, updated_at`

var (
	// {api field: column}
	resultOrderings = map[string]string{
		"student_id":   "student_id",
		"student_name": "student_name",
		"class":        "class",
		"exam":         "exam",
		"year":         "year",
		"created_at":   "created_at",
	}
	defaultResultOrdering = "year DESC, exam ASC, student_id ASC"
)

type (
	resultRow struct {
		ID            string      `db:"id"`
		StudentID     string      `db:"student_id"`
		StudentName   string      `db:"student_name"`
		GuardianEmail null.String `db:"guardian_email"`
		Class         string      `db:"class"`
		Exam          string      `db:"exam"`
		Year          int         `db:"year"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	markRow struct {
		ResultID  string `db:"result_id"`
		Position  int    `db:"position"`
		SubjectID string `db:"subject_id"`
		Written   int    `db:"written"`
		Objective int    `db:"objective"`
	}
)

type resultRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *sql.DB) result.Repository {
	return &resultRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo resultRepository) toRow(r result.Result) resultRow {
	return resultRow{
		ID:            r.ID,
		StudentID:     r.StudentID,
		StudentName:   r.StudentName,
		GuardianEmail: null.NewString(r.GuardianEmail, r.GuardianEmail != ""),
		Class:         r.Class,
		Exam:          string(r.Exam),
		Year:          r.Year,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (repo resultRepository) fromRow(row resultRow, marks []markRow) result.Result {
	r := result.Result{
		ID:            row.ID,
		StudentID:     row.StudentID,
		StudentName:   row.StudentName,
		GuardianEmail: row.GuardianEmail.String,
		Class:         row.Class,
		Exam:          result.Exam(row.Exam),
		Year:          row.Year,
		Marks:         make([]result.SubjectMark, 0, len(marks)),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	for _, m := range marks {
		r.Marks = append(r.Marks, result.SubjectMark{SubjectID: m.SubjectID, Written: m.Written, Objective: m.Objective})
	}
	return r
}

// trapNoRowsErr maps psql "no rows" err to result.ErrNotFound
func (repo resultRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return result.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// inTx runs fn in a transaction, rolled back when fn fails.
func (repo resultRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo resultRepository) insertMarks(ctx context.Context, tx *sqlx.Tx, r result.Result) error {
	if len(r.Marks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO result_mark (result_id, position, subject_id, written, objective) `+
		`VALUES (:result_id, :position, :subject_id, :written, :objective)`)
	if err != nil {
		return errors.Wrap(err, "preparing marks insert")
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range r.Marks {
		row := markRow{ResultID: r.ID, Position: i, SubjectID: m.SubjectID, Written: m.Written, Objective: m.Objective}
		if _, err = stmt.ExecContext(ctx, row); err != nil {
			return errors.Wrapf(err, "inserting mark %s", m.SubjectID)
		}
	}
	return nil
}

// loadMarks returns the marks of the given results, keyed by result ID.
func (repo resultRepository) loadMarks(ctx context.Context, ids []string) (map[string][]markRow, error) {
	marks := make(map[string][]markRow, len(ids))
	if len(ids) == 0 {
		return marks, nil
	}
	q, args, err := sqlx.In(`SELECT result_id, position, subject_id, written, objective FROM result_mark `+
		`WHERE result_id IN (?) ORDER BY result_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building marks query")
	}
	var rows []markRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	for _, row := range rows {
		marks[row.ResultID] = append(marks[row.ResultID], row)
	}
	return marks, nil
}

func (repo resultRepository) CreateResult(ctx context.Context, r result.Result) (result.Result, error) {
	r.ID = uuid.New().String()
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `INSERT INTO result (` + resultColumns + `) VALUES ` +
			`(:id, :student_id, :student_name, :guardian_email, :class, :exam, :year, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, q, repo.toRow(r)); err != nil {
			return errors.Wrap(err, "inserting result")
		}
		return repo.insertMarks(ctx, tx, r)
	})
	if err != nil {
		return result.Result{}, err
	}
	return r, nil
}

func (repo resultRepository) GetResult(ctx context.Context, filter result.GetFilter) (result.Result, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return result.Result{}, result.ErrNotFound
		}
		q = `SELECT ` + resultColumns + ` FROM result WHERE id = ?`
		args = append(args, filter.ID)
	case filter.StudentID != "":
		q = `SELECT ` + resultColumns + ` FROM result WHERE student_id = ? AND exam = ? AND year = ?`
		args = append(args, filter.StudentID, string(filter.Exam), filter.Year)
	default:
		return result.Result{}, result.ErrNotFound
	}

	var row resultRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), args...); err != nil {
		return result.Result{}, repo.trapNoRowsErr(err, "finding result")
	}
	marks, err := repo.loadMarks(ctx, []string{row.ID})
	if err != nil {
		return result.Result{}, err
	}
	return repo.fromRow(row, marks[row.ID]), nil
}

func (repo resultRepository) QueryResults(ctx context.Context, filter result.QueryFilter, orderings ...core.DBOrdering) ([]result.Result, error) {
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.StudentID != "" {
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Class != "" {
		conds = append(conds, "class = ?")
		args = append(args, filter.Class)
	}
	if filter.Exam != "" {
		conds = append(conds, "exam = ?")
		args = append(args, string(filter.Exam))
	}
	if filter.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, filter.Year)
	}

	q := `SELECT ` + resultColumns + ` FROM result`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += core.OrderByClause(orderings, resultOrderings, defaultResultOrdering) + `, id`

	var rows []resultRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	marks, err := repo.loadMarks(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, repo.fromRow(row, marks[row.ID]))
	}
	return results, nil
}

func (repo resultRepository) UpdateResult(ctx context.Context, r result.Result) (result.Result, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `UPDATE result SET student_name = :student_name, guardian_email = :guardian_email, ` +
			`updated_at = :updated_at WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, q, repo.toRow(r))
		if err != nil {
			return errors.Wrap(err, "updating result")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return result.ErrNotFound
		}

		// marks are replaced as a whole
		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM result_mark WHERE result_id = ?`), r.ID); err != nil {
			return errors.Wrap(err, "deleting marks")
		}
		return repo.insertMarks(ctx, tx, r)
	})
	if err != nil {
		return result.Result{}, err
	}
	return r, nil
}

func (repo resultRepository) DeleteResults(ctx context.Context, ids ...string) error {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM result WHERE id IN (?)`, valid)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	return errors.Wrap(err, "deleting results")
}
