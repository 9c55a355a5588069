package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/result"
)

type resultRepository struct {
	db *resultTable
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

// copyResult detaches r from the stored marks.
func copyResult(r result.Result) result.Result {
	r.Marks = append([]result.SubjectMark(nil), r.Marks...)
	return r
}

func (repo *resultRepository) CreateResult(_ context.Context, r result.Result) (result.Result, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = uuid.New().String()
	stored := copyResult(r)
	repo.db.table[r.ID] = &stored
	return copyResult(r), nil
}

func (repo *resultRepository) GetResult(_ context.Context, filter result.GetFilter) (result.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if r, ok := repo.db.table[filter.ID]; ok {
			return copyResult(*r), nil
		}
		return result.Result{}, result.ErrNotFound
	}
	if filter.StudentID == "" {
		return result.Result{}, result.ErrNotFound
	}
	for _, r := range repo.db.table {
		if r.StudentID == filter.StudentID && r.Exam == filter.Exam && r.Year == filter.Year {
			return copyResult(*r), nil
		}
	}
	return result.Result{}, result.ErrNotFound
}

// resultLess compares a and b along orderings; ties fall back to the ID.
func resultLess(a, b result.Result, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var cmp int
		switch ord.Field {
		case "student_id":
			cmp = strings.Compare(a.StudentID, b.StudentID)
		case "student_name":
			cmp = strings.Compare(a.StudentName, b.StudentName)
		case "class":
			cmp = strings.Compare(a.Class, b.Class)
		case "exam":
			cmp = strings.Compare(string(a.Exam), string(b.Exam))
		case "year":
			cmp = a.Year - b.Year
		case "created_at":
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		}
		if cmp == 0 {
			continue
		}
		if ord.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return a.ID < b.ID
}

var defaultResultOrdering = []core.DBOrdering{
	{Field: "year", Ascending: false},
	{Field: "exam", Ascending: true},
	{Field: "student_id", Ascending: true},
}

func (repo *resultRepository) QueryResults(_ context.Context, filter result.QueryFilter, orderings ...core.DBOrdering) ([]result.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]result.Result, 0)
	for _, r := range repo.db.table {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Class != "" && r.Class != filter.Class {
			continue
		}
		if filter.Exam != "" && r.Exam != filter.Exam {
			continue
		}
		if filter.Year != 0 && r.Year != filter.Year {
			continue
		}
		results = append(results, copyResult(*r))
	}

	if len(orderings) == 0 {
		orderings = defaultResultOrdering
	}
	sort.Slice(results, func(i, j int) bool { return resultLess(results[i], results[j], orderings) })
	return results, nil
}

func (repo *resultRepository) UpdateResult(_ context.Context, r result.Result) (result.Result, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[r.ID]; !ok {
		return result.Result{}, result.ErrNotFound
	}
	stored := copyResult(r)
	repo.db.table[r.ID] = &stored
	return copyResult(r), nil
}

func (repo *resultRepository) DeleteResults(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
