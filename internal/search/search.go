// Package search provides pure filtering, searching and sorting over
// student and activity collections. Nothing here mutates its input.
package search

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"golang.org/x/text/cases"
)

// StudentField names a searchable student field.
type StudentField string

const (
	StudentName  StudentField = "name"
	StudentEmail StudentField = "email"
	StudentID    StudentField = "id"
)

// ActivityField names a searchable activity field.
type ActivityField string

const (
	ActivityName        ActivityField = "name"
	ActivityDescription ActivityField = "description"
)

// Options tunes a text search. Zero values mean: default fields, case
// insensitive, substring match, minimum query length 1.
type Options struct {
	CaseSensitive bool
	ExactMatch    bool
	MinLength     int
}

// StudentOptions is Options plus the student fields to look at.
type StudentOptions struct {
	Options
	Fields []StudentField
}

// ActivityOptions is Options plus the activity fields to look at.
type ActivityOptions struct {
	Options
	Fields []ActivityField
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// matcher returns a predicate over field values, or nil when the query
// is too short and everything should match.
func (o Options) matcher(query string) func(string) bool {
	minLen := max(o.MinLength, 1)
	term := strings.TrimSpace(query)
	if len([]rune(term)) < minLen {
		return nil
	}
	if !o.CaseSensitive {
		term = fold(term)
	}

	return func(value string) bool {
		if !o.CaseSensitive {
			value = fold(value)
		}
		if o.ExactMatch {
			return value == term
		}
		return strings.Contains(value, term)
	}
}

func studentField(s types.Student, f StudentField) string {
	switch f {
	case StudentName:
		return s.Name
	case StudentEmail:
		return s.Email
	case StudentID:
		return s.ID
	}
	return ""
}

func activityField(a types.Activity, f ActivityField) string {
	switch f {
	case ActivityName:
		return a.Name
	case ActivityDescription:
		return a.Description
	}
	return ""
}

// Students returns the students where any of opts.Fields matches query.
// A query shorter than the minimum length returns all students.
func Students(students []types.Student, query string, opts StudentOptions) []types.Student {
	match := opts.matcher(query)
	if match == nil {
		return slices.Clone(students)
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []StudentField{StudentName, StudentEmail, StudentID}
	}

	out := make([]types.Student, 0)
	for _, s := range students {
		for _, f := range fields {
			if match(studentField(s, f)) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Activities returns the activities where any of opts.Fields matches query.
func Activities(activities []types.Activity, query string, opts ActivityOptions) []types.Activity {
	match := opts.matcher(query)
	if match == nil {
		return slices.Clone(activities)
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []ActivityField{ActivityName, ActivityDescription}
	}

	out := make([]types.Activity, 0)
	for _, a := range activities {
		for _, f := range fields {
			if match(activityField(a, f)) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// FilterByActivity keeps students enrolled in activityID. An empty id
// keeps everyone.
func FilterByActivity(students []types.Student, activityID string) []types.Student {
	if activityID == "" {
		return slices.Clone(students)
	}
	return FilterByActivities(students, []string{activityID})
}

// FilterByActivities keeps students enrolled in every one of activityIDs.
func FilterByActivities(students []types.Student, activityIDs []string) []types.Student {
	if len(activityIDs) == 0 {
		return slices.Clone(students)
	}

	out := make([]types.Student, 0)
	for _, s := range students {
		all := true
		for _, id := range activityIDs {
			if !slices.Contains(s.Activities, id) {
				all = false
				break
			}
		}
		if all {
			out = append(out, s)
		}
	}
	return out
}

// FilterByDateRange keeps students registered within [start, end]. A nil
// bound is open.
func FilterByDateRange(students []types.Student, start, end *time.Time) []types.Student {
	out := make([]types.Student, 0, len(students))
	for _, s := range students {
		if start != nil && s.RegisteredAt.Before(*start) {
			continue
		}
		if end != nil && s.RegisteredAt.After(*end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// StudentFilters combines every student filter. Empty fields are skipped.
type StudentFilters struct {
	Query       string
	ActivityID  string
	ActivityIDs []string
	Start       *time.Time
	End         *time.Time
	Options     StudentOptions
}

// SearchAndFilter applies text search, the single and multiple activity
// filters and the date range, in that order.
func SearchAndFilter(students []types.Student, f StudentFilters) []types.Student {
	result := slices.Clone(students)

	if f.Query != "" {
		result = Students(result, f.Query, f.Options)
	}
	if f.ActivityID != "" {
		result = FilterByActivity(result, f.ActivityID)
	}
	if len(f.ActivityIDs) > 0 {
		result = FilterByActivities(result, f.ActivityIDs)
	}
	if f.Start != nil || f.End != nil {
		result = FilterByDateRange(result, f.Start, f.End)
	}
	return result
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// StudentSortKey names a student sort key.
type StudentSortKey string

const (
	SortStudentName          StudentSortKey = "name"
	SortStudentEmail         StudentSortKey = "email"
	SortStudentID            StudentSortKey = "id"
	SortStudentRegisteredAt  StudentSortKey = "registeredAt"
	SortStudentActivityCount StudentSortKey = "activityCount"
)

// ActivitySortKey names an activity sort key.
type ActivitySortKey string

const (
	SortActivityName         ActivitySortKey = "name"
	SortActivityCreatedAt    ActivitySortKey = "createdAt"
	SortActivityStudentCount ActivitySortKey = "studentCount"
)

func directed(c int, dir Direction) int {
	if dir == Desc {
		return -c
	}
	return c
}

func studentCompare(by StudentSortKey) func(a, b types.Student) int {
	switch by {
	case SortStudentName:
		return func(a, b types.Student) int { return cmp.Compare(fold(a.Name), fold(b.Name)) }
	case SortStudentEmail:
		return func(a, b types.Student) int { return cmp.Compare(fold(a.Email), fold(b.Email)) }
	case SortStudentID:
		return func(a, b types.Student) int { return cmp.Compare(fold(a.ID), fold(b.ID)) }
	case SortStudentRegisteredAt:
		return func(a, b types.Student) int { return a.RegisteredAt.Compare(b.RegisteredAt) }
	case SortStudentActivityCount:
		return func(a, b types.Student) int { return cmp.Compare(len(a.Activities), len(b.Activities)) }
	}
	return nil
}

func activityCompare(by ActivitySortKey) func(a, b types.Activity) int {
	switch by {
	case SortActivityName:
		return func(a, b types.Activity) int { return cmp.Compare(fold(a.Name), fold(b.Name)) }
	case SortActivityCreatedAt:
		return func(a, b types.Activity) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortActivityStudentCount:
		return func(a, b types.Activity) int { return cmp.Compare(a.StudentCount, b.StudentCount) }
	}
	return nil
}

// SortStudents returns a sorted copy. Ties keep their input order; an
// unknown key returns the input order unchanged.
func SortStudents(students []types.Student, by StudentSortKey, dir Direction) []types.Student {
	out := slices.Clone(students)
	if c := studentCompare(by); c != nil {
		slices.SortStableFunc(out, func(a, b types.Student) int { return directed(c(a, b), dir) })
	}
	return out
}

// SortActivities returns a sorted copy. Ties keep their input order.
func SortActivities(activities []types.Activity, by ActivitySortKey, dir Direction) []types.Activity {
	out := slices.Clone(activities)
	if c := activityCompare(by); c != nil {
		slices.SortStableFunc(out, func(a, b types.Activity) int { return directed(c(a, b), dir) })
	}
	return out
}

// Suggestions returns up to limit distinct names, emails or ids that
// contain query. Queries shorter than two characters suggest nothing.
func Suggestions(students []types.Student, query string, limit int) []string {
	term := fold(strings.TrimSpace(query))
	if len([]rune(term)) < 2 || limit <= 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, s := range students {
		for _, v := range []string{s.Name, s.Email, s.ID} {
			if len(out) == limit {
				return out
			}
			if !seen[v] && strings.Contains(fold(v), term) {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// FilterStats describes how much of a collection a filter kept.
type FilterStats struct {
	Total      int `json:"total"`
	Filtered   int `json:"filtered"`
	Percentage int `json:"percentage"`
	Hidden     int `json:"hidden"`
}

// Stats compares a filtered collection with the full one.
func Stats(all, filtered []types.Student) FilterStats {
	total := len(all)
	stats := FilterStats{Total: total, Filtered: len(filtered), Hidden: total - len(filtered)}
	if total > 0 {
		stats.Percentage = int(math.Round(float64(len(filtered)) / float64(total) * 100))
	}
	return stats
}
