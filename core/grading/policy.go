package grading

import "fmt"

// RolePolicy decides whether a subject is compulsory or optional for a student.
// Institution specific rules live behind this interface, never in Evaluate or Aggregate.
type RolePolicy interface {
	SubjectRole(studentID, subjectID string) SubjectRole
}

// RolePolicyFunc adapts a function to a RolePolicy.
type RolePolicyFunc func(studentID, subjectID string) SubjectRole

func (f RolePolicyFunc) SubjectRole(studentID, subjectID string) SubjectRole {
	return f(studentID, subjectID)
}

// AllCompulsory treats every subject as compulsory.
var AllCompulsory RolePolicy = RolePolicyFunc(func(string, string) SubjectRole { return Compulsory })

// OptionalTable maps a student ID to their single optional subject ID.
type OptionalTable map[string]string

func (t OptionalTable) SubjectRole(studentID, subjectID string) SubjectRole {
	if opt, ok := t[studentID]; ok && opt == subjectID {
		return Optional
	}
	return Compulsory
}

// Entries builds aggregation entries for a student, resolving each subject's role with policy.
// grades and subjectIDs are parallel slices and must have the same length.
func Entries(policy RolePolicy, studentID string, subjectIDs []string, grades []SubjectGrade) ([]Entry, error) {
	if len(subjectIDs) != len(grades) {
		return nil, fmt.Errorf("entries: %d subject IDs for %d grades", len(subjectIDs), len(grades))
	}
	if policy == nil {
		policy = AllCompulsory
	}
	entries := make([]Entry, 0, len(grades))
	for i, g := range grades {
		entries = append(entries, Entry{
			GradePoint: g.GradePoint,
			Role:       policy.SubjectRole(studentID, subjectIDs[i]),
		})
	}
	return entries, nil
}
