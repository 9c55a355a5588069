package core

import "strings"

// DBOrdering is one `ORDER BY` term.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderByClause builds an `ORDER BY` clause from orderings, keeping only fields listed in allowed
// ({api field: column}). It returns fallback when nothing is left.
func OrderByClause(orderings []DBOrdering, allowed map[string]string, fallback string) string {
	terms := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		terms = append(terms, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(terms) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
