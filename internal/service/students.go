package service

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aanand-mishra/activity-registry/internal/search"
	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/validation"
)

// StudentService manages student registrations.
type StudentService struct {
	store     storage.Storage
	validator *validation.Validator
	log       *slog.Logger

	mu    sync.Mutex
	index *search.Index
}

// invalidate drops the cached search index. Called after every change to
// the student collection, including cascades from activity deletion.
func (s *StudentService) invalidate() {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// uniqueIDs drops blanks and repeated ids, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func normalizeForm(f types.StudentForm) types.StudentForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.SelectedActivities = uniqueIDs(f.SelectedActivities)
	return f
}

func normalizeUpdate(u types.StudentUpdate) types.StudentUpdate {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		u.Email = &email
	}
	u.SelectedActivities = uniqueIDs(u.SelectedActivities)
	return u
}

func (s *StudentService) activityIDs() ([]string, error) {
	activities, err := s.store.GetActivities()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *StudentService) rules() (validation.StudentRules, error) {
	students, err := s.store.GetStudents()
	if err != nil {
		return validation.StudentRules{}, err
	}
	known, err := s.activityIDs()
	if err != nil {
		return validation.StudentRules{}, err
	}

	existing := make([]string, 0, len(students))
	for _, st := range students {
		existing = append(existing, st.ID)
	}
	return validation.StudentRules{ExistingIDs: existing, KnownActivities: known}, nil
}

// List returns every student in registration order.
func (s *StudentService) List() (res types.Result[[]types.Student]) {
	defer guard(s.log, "students.list", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[[]types.Student](s.log, "students.list", err)
	}
	return types.OK(students)
}

// Get returns the student with id.
func (s *StudentService) Get(id string) (res types.Result[types.Student]) {
	defer guard(s.log, "students.get", &res)

	student, err := s.store.GetStudentByID(id)
	if err != nil {
		return fromError[types.Student](s.log, "students.get", err)
	}
	return types.OK(student)
}

// ByActivity returns the students enrolled in activityID.
func (s *StudentService) ByActivity(activityID string) (res types.Result[[]types.Student]) {
	defer guard(s.log, "students.by_activity", &res)

	if _, err := s.store.GetActivityByID(activityID); err != nil {
		return fromError[[]types.Student](s.log, "students.by_activity", err)
	}
	students, err := s.store.GetStudentsByActivity(activityID)
	if err != nil {
		return fromError[[]types.Student](s.log, "students.by_activity", err)
	}
	return types.OK(students)
}

// Search runs a text search over the students.
func (s *StudentService) Search(query string, opts search.StudentOptions) (res types.Result[[]types.Student]) {
	defer guard(s.log, "students.search", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[[]types.Student](s.log, "students.search", err)
	}
	return types.OK(search.Students(students, query, opts))
}

// StudentQuery is a combined filter and sort request.
type StudentQuery struct {
	Filters   search.StudentFilters
	SortBy    search.StudentSortKey
	Direction search.Direction
}

// FindResult is a filtered page of students plus how much was hidden.
type FindResult struct {
	Students []types.Student    `json:"students"`
	Stats    search.FilterStats `json:"stats"`
}

// Find filters then sorts the students.
func (s *StudentService) Find(q StudentQuery) (res types.Result[FindResult]) {
	defer guard(s.log, "students.find", &res)

	all, err := s.store.GetStudents()
	if err != nil {
		return fromError[FindResult](s.log, "students.find", err)
	}

	found := search.SearchAndFilter(all, q.Filters)
	if q.SortBy != "" {
		found = search.SortStudents(found, q.SortBy, q.Direction)
	}
	return types.OK(FindResult{Students: found, Stats: search.Stats(all, found)})
}

// IndexedSearch answers token queries from a cached index that is rebuilt
// after any change to the students.
func (s *StudentService) IndexedSearch(query string) (res types.Result[[]types.Student]) {
	defer guard(s.log, "students.indexed_search", &res)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		students, err := s.store.GetStudents()
		if err != nil {
			return fromError[[]types.Student](s.log, "students.indexed_search", err)
		}
		s.index = search.BuildIndex(students)
		s.log.Debug("search index rebuilt", slog.Int("tokens", s.index.Len()))
	}
	return types.OK(s.index.Search(query))
}

// Suggestions returns up to limit autocomplete values for query.
func (s *StudentService) Suggestions(query string, limit int) (res types.Result[[]string]) {
	defer guard(s.log, "students.suggestions", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[[]string](s.log, "students.suggestions", err)
	}
	return types.OK(search.Suggestions(students, query, limitOrDefault(limit)))
}

// ValidateForm checks form against the field rules and the current
// store. It never writes.
func (s *StudentService) ValidateForm(form types.StudentForm) (res types.Result[types.ValidationResult]) {
	defer guard(s.log, "students.validate", &res)

	rules, err := s.rules()
	if err != nil {
		return fromError[types.ValidationResult](s.log, "students.validate", err)
	}
	return types.OK(s.validator.ValidateStudentForm(normalizeForm(form), rules))
}

// IsIDAvailable reports whether id is free for a new student.
func (s *StudentService) IsIDAvailable(id string) (res types.Result[bool]) {
	defer guard(s.log, "students.id_available", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[bool](s.log, "students.id_available", err)
	}
	return types.OK(!slices.ContainsFunc(students, func(st types.Student) bool { return st.ID == id }))
}

// IsEmailAvailable reports whether email is unused by anyone other than
// excludeID. Pass an empty excludeID for new registrations.
func (s *StudentService) IsEmailAvailable(email, excludeID string) (res types.Result[bool]) {
	defer guard(s.log, "students.email_available", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[bool](s.log, "students.email_available", err)
	}
	email = normalizeEmail(email)
	taken := slices.ContainsFunc(students, func(st types.Student) bool {
		return st.ID != excludeID && st.Email == email
	})
	return types.OK(!taken)
}

// Create registers a new student. Soft warnings are returned alongside
// the created record.
func (s *StudentService) Create(form types.StudentForm) (res types.Result[types.Student]) {
	defer guard(s.log, "students.create", &res)

	form = normalizeForm(form)
	rules, err := s.rules()
	if err != nil {
		return fromError[types.Student](s.log, "students.create", err)
	}

	vr := s.validator.ValidateStudentForm(form, rules)
	if !vr.Valid {
		s.log.Info("student rejected", slog.String("id", form.StudentID), slog.Int("errors", len(vr.Errors)))
		return invalid[types.Student](vr)
	}

	created, err := s.store.CreateStudent(types.Student{
		ID:         form.StudentID,
		Name:       form.Name,
		Email:      form.Email,
		Activities: form.SelectedActivities,
	})
	if err != nil {
		return fromError[types.Student](s.log, "students.create", err)
	}
	s.invalidate()

	s.log.Info("student created", slog.String("id", created.ID))
	res = types.OK(created)
	res.Warnings = vr.Warnings
	return res
}

// Update applies a partial update. The id and registration time never
// change.
func (s *StudentService) Update(id string, update types.StudentUpdate) (res types.Result[types.Student]) {
	defer guard(s.log, "students.update", &res)

	if _, err := s.store.GetStudentByID(id); err != nil {
		return fromError[types.Student](s.log, "students.update", err)
	}

	update = normalizeUpdate(update)
	known, err := s.activityIDs()
	if err != nil {
		return fromError[types.Student](s.log, "students.update", err)
	}
	vr := s.validator.ValidateStudentUpdate(update, known)
	if !vr.Valid {
		return invalid[types.Student](vr)
	}

	updated, err := s.store.UpdateStudentByID(id, update)
	if err != nil {
		return fromError[types.Student](s.log, "students.update", err)
	}
	s.invalidate()

	s.log.Info("student updated", slog.String("id", id))
	res = types.OK(updated)
	res.Warnings = vr.Warnings
	return res
}

// Delete removes a student and returns the removed record.
func (s *StudentService) Delete(id string) (res types.Result[types.Student]) {
	defer guard(s.log, "students.delete", &res)

	student, err := s.store.GetStudentByID(id)
	if err != nil {
		return fromError[types.Student](s.log, "students.delete", err)
	}
	if err := s.store.DeleteStudentByID(id); err != nil {
		return fromError[types.Student](s.log, "students.delete", err)
	}
	s.invalidate()

	s.log.Info("student deleted", slog.String("id", id))
	return types.OK(student)
}

// BulkDelete deletes each id independently. Missing ids are reported in
// Failed and do not stop the rest.
func (s *StudentService) BulkDelete(ids []string) (res types.Result[BulkResult]) {
	defer guard(s.log, "students.bulk_delete", &res)

	out := newBulkResult()
	for _, id := range uniqueIDs(ids) {
		if err := s.store.DeleteStudentByID(id); err != nil {
			r := fromError[BulkResult](s.log, "students.bulk_delete", err)
			out.Failed[id] = r.Error
			continue
		}
		out.Done = append(out.Done, id)
	}
	if len(out.Done) > 0 {
		s.invalidate()
	}

	s.log.Info("students bulk deleted", slog.Int("deleted", len(out.Done)), slog.Int("failed", len(out.Failed)))
	return types.OK(out)
}

// StudentStats summarizes the student collection.
type StudentStats struct {
	Total             int             `json:"total"`
	AverageActivities float64         `json:"averageActivities"`
	MostActive        *types.Student  `json:"mostActive,omitempty"`
	Recent            []types.Student `json:"recent"`
}

// Stats computes StudentStats. Recent holds the five newest registrations.
func (s *StudentService) Stats() (res types.Result[StudentStats]) {
	defer guard(s.log, "students.stats", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[StudentStats](s.log, "students.stats", err)
	}

	stats := StudentStats{Total: len(students), Recent: []types.Student{}}
	if len(students) == 0 {
		return types.OK(stats)
	}

	enrollments := 0
	for i, st := range students {
		enrollments += len(st.Activities)
		if stats.MostActive == nil || len(st.Activities) > len(stats.MostActive.Activities) {
			stats.MostActive = &students[i]
		}
	}
	stats.AverageActivities = round2(float64(enrollments) / float64(len(students)))

	recent := search.SortStudents(students, search.SortStudentRegisteredAt, search.Desc)
	stats.Recent = recent[:min(5, len(recent))]
	return types.OK(stats)
}
