package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/activity-registry/internal/search"
	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/validation"
)

// ActivityService manages the activity catalog students enroll in.
type ActivityService struct {
	store     storage.Storage
	validator *validation.Validator
	log       *slog.Logger

	// studentsChanged runs after a cascade rewrote student activity lists.
	studentsChanged func()
}

func (s *ActivityService) nameTaken(name, excludeID string) (bool, error) {
	activities, err := s.store.GetActivities()
	if err != nil {
		return false, err
	}
	key := storage.NameKey(name)
	for _, a := range activities {
		if a.ID != excludeID && storage.NameKey(a.Name) == key {
			return true, nil
		}
	}
	return false, nil
}

// List returns every activity with its current enrollment count.
func (s *ActivityService) List() (res types.Result[[]types.Activity]) {
	defer guard(s.log, "activities.list", &res)

	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[[]types.Activity](s.log, "activities.list", err)
	}
	return types.OK(activities)
}

// Get returns the activity with id.
func (s *ActivityService) Get(id string) (res types.Result[types.Activity]) {
	defer guard(s.log, "activities.get", &res)

	activity, err := s.store.GetActivityByID(id)
	if err != nil {
		return fromError[types.Activity](s.log, "activities.get", err)
	}
	return types.OK(activity)
}

// EnrolledStudents returns the students enrolled in the activity.
func (s *ActivityService) EnrolledStudents(id string) (res types.Result[[]types.Student]) {
	defer guard(s.log, "activities.students", &res)

	if _, err := s.store.GetActivityByID(id); err != nil {
		return fromError[[]types.Student](s.log, "activities.students", err)
	}
	students, err := s.store.GetStudentsByActivity(id)
	if err != nil {
		return fromError[[]types.Student](s.log, "activities.students", err)
	}
	return types.OK(students)
}

// Search runs a text search over names and descriptions.
func (s *ActivityService) Search(query string, opts search.ActivityOptions) (res types.Result[[]types.Activity]) {
	defer guard(s.log, "activities.search", &res)

	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[[]types.Activity](s.log, "activities.search", err)
	}
	return types.OK(search.Activities(activities, query, opts))
}

// ActivityQuery is a combined search and sort request.
type ActivityQuery struct {
	Query     string
	Options   search.ActivityOptions
	SortBy    search.ActivitySortKey
	Direction search.Direction
}

// Find searches then sorts the activities.
func (s *ActivityService) Find(q ActivityQuery) (res types.Result[[]types.Activity]) {
	defer guard(s.log, "activities.find", &res)

	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[[]types.Activity](s.log, "activities.find", err)
	}
	found := search.Activities(activities, q.Query, q.Options)
	if q.SortBy != "" {
		found = search.SortActivities(found, q.SortBy, q.Direction)
	}
	return types.OK(found)
}

// IsNameAvailable reports whether name is unused, ignoring case, by any
// activity other than excludeID.
func (s *ActivityService) IsNameAvailable(name, excludeID string) (res types.Result[bool]) {
	defer guard(s.log, "activities.name_available", &res)

	taken, err := s.nameTaken(name, excludeID)
	if err != nil {
		return fromError[bool](s.log, "activities.name_available", err)
	}
	return types.OK(!taken)
}

// ValidateForm checks form including name uniqueness.
func (s *ActivityService) ValidateForm(form types.ActivityForm) (res types.Result[types.ValidationResult]) {
	defer guard(s.log, "activities.validate", &res)

	vr, err := s.validateForm(form)
	if err != nil {
		return fromError[types.ValidationResult](s.log, "activities.validate", err)
	}
	return types.OK(vr)
}

func (s *ActivityService) validateForm(form types.ActivityForm) (types.ValidationResult, error) {
	vr := s.validator.ValidateActivityForm(form)
	if !hasError(vr, "name") {
		taken, err := s.nameTaken(form.Name, "")
		if err != nil {
			return vr, err
		}
		if taken {
			vr.Errors = append(vr.Errors, types.FieldError{Field: "name", Message: storage.ErrDuplicateActivityName.Error()})
			vr.Valid = false
		}
	}
	return vr, nil
}

func hasError(vr types.ValidationResult, field string) bool {
	for _, fe := range vr.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Create adds an activity.
func (s *ActivityService) Create(form types.ActivityForm) (res types.Result[types.Activity]) {
	defer guard(s.log, "activities.create", &res)

	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)

	vr, err := s.validateForm(form)
	if err != nil {
		return fromError[types.Activity](s.log, "activities.create", err)
	}
	if !vr.Valid {
		return invalid[types.Activity](vr)
	}

	created, err := s.store.CreateActivity(types.Activity{Name: form.Name, Description: form.Description})
	if err != nil {
		return fromError[types.Activity](s.log, "activities.create", err)
	}

	s.log.Info("activity created", slog.String("id", created.ID), slog.String("name", created.Name))
	return types.OK(created)
}

// Update applies a partial update.
func (s *ActivityService) Update(id string, update types.ActivityUpdate) (res types.Result[types.Activity]) {
	defer guard(s.log, "activities.update", &res)

	if _, err := s.store.GetActivityByID(id); err != nil {
		return fromError[types.Activity](s.log, "activities.update", err)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.Description != nil {
		description := strings.TrimSpace(*update.Description)
		update.Description = &description
	}

	vr := s.validator.ValidateActivityUpdate(update)
	if !vr.Valid {
		return invalid[types.Activity](vr)
	}

	updated, err := s.store.UpdateActivityByID(id, update)
	if err != nil {
		return fromError[types.Activity](s.log, "activities.update", err)
	}

	s.log.Info("activity updated", slog.String("id", id))
	return types.OK(updated)
}

// Delete removes an activity nobody is enrolled in. Use ForceDelete to
// remove it from every student as well.
func (s *ActivityService) Delete(id string) (res types.Result[types.Activity]) {
	defer guard(s.log, "activities.delete", &res)
	return s.delete(id, false)
}

// ForceDelete removes an activity and drops it from every student's list.
func (s *ActivityService) ForceDelete(id string) (res types.Result[types.Activity]) {
	defer guard(s.log, "activities.force_delete", &res)
	return s.delete(id, true)
}

func (s *ActivityService) delete(id string, force bool) types.Result[types.Activity] {
	activity, err := s.store.GetActivityByID(id)
	if err != nil {
		return fromError[types.Activity](s.log, "activities.delete", err)
	}
	if activity.StudentCount > 0 && !force {
		return types.Fail[types.Activity](types.CodeConflict,
			fmt.Sprintf("activity has %d enrolled students; delete with force to remove it from them", activity.StudentCount))
	}

	if err := s.store.DeleteActivityByID(id); err != nil {
		return fromError[types.Activity](s.log, "activities.delete", err)
	}
	if activity.StudentCount > 0 && s.studentsChanged != nil {
		s.studentsChanged()
	}

	s.log.Info("activity deleted", slog.String("id", id), slog.Int("unenrolled", activity.StudentCount))
	return types.OK(activity)
}

// BulkDelete deletes each id independently.
func (s *ActivityService) BulkDelete(ids []string, force bool) (res types.Result[BulkResult]) {
	defer guard(s.log, "activities.bulk_delete", &res)

	out := newBulkResult()
	for _, id := range uniqueIDs(ids) {
		if r := s.delete(id, force); !r.Success {
			out.Failed[id] = r.Error
			continue
		}
		out.Done = append(out.Done, id)
	}
	return types.OK(out)
}

// ActivityStats summarizes enrollment across activities.
type ActivityStats struct {
	Total            int             `json:"total"`
	TotalEnrollments int             `json:"totalEnrollments"`
	AverageStudents  float64         `json:"averageStudents"`
	MostPopular      *types.Activity `json:"mostPopular,omitempty"`
	LeastPopular     *types.Activity `json:"leastPopular,omitempty"`
	Empty            int             `json:"empty"`
}

// Stats computes ActivityStats. Ties go to the earlier activity.
func (s *ActivityService) Stats() (res types.Result[ActivityStats]) {
	defer guard(s.log, "activities.stats", &res)

	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[ActivityStats](s.log, "activities.stats", err)
	}

	stats := ActivityStats{Total: len(activities)}
	for i, a := range activities {
		stats.TotalEnrollments += a.StudentCount
		if a.StudentCount == 0 {
			stats.Empty++
		}
		if stats.MostPopular == nil || a.StudentCount > stats.MostPopular.StudentCount {
			stats.MostPopular = &activities[i]
		}
		if stats.LeastPopular == nil || a.StudentCount < stats.LeastPopular.StudentCount {
			stats.LeastPopular = &activities[i]
		}
	}
	if len(activities) > 0 {
		stats.AverageStudents = round2(float64(stats.TotalEnrollments) / float64(len(activities)))
	}
	return types.OK(stats)
}

// Popular returns up to limit activities with the most students.
func (s *ActivityService) Popular(limit int) (res types.Result[[]types.Activity]) {
	defer guard(s.log, "activities.popular", &res)
	return s.top(search.SortActivityStudentCount, limit)
}

// Recent returns up to limit of the newest activities.
func (s *ActivityService) Recent(limit int) (res types.Result[[]types.Activity]) {
	defer guard(s.log, "activities.recent", &res)
	return s.top(search.SortActivityCreatedAt, limit)
}

func (s *ActivityService) top(by search.ActivitySortKey, limit int) types.Result[[]types.Activity] {
	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[[]types.Activity](s.log, "activities.top", err)
	}
	sorted := search.SortActivities(activities, by, search.Desc)
	return types.OK(sorted[:min(limitOrDefault(limit), len(sorted))])
}
