// Package service is the contract the presentation layer talks to.
//
// Every operation returns a types.Result envelope instead of an error:
// validation problems come back as field errors, store sentinels are
// mapped to not_found or conflict codes, and a panic anywhere below a
// service call is recovered into a generic internal failure.
package service

import (
	"errors"
	"log/slog"
	"math"

	"github.com/aanand-mishra/activity-registry/internal/points"
	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/validation"
)

// Messages used for failures that carry no store detail.
const (
	msgInternal   = "an unexpected error occurred, please try again"
	msgValidation = "please fix the highlighted fields"
)

// Services bundles the three services over one store.
type Services struct {
	Students   *StudentService
	Activities *ActivityService
	Points     *PointsService

	store storage.Storage
	log   *slog.Logger
}

// New wires the services. A nil logger falls back to slog.Default().
func New(store storage.Storage, v *validation.Validator, catalog *points.Catalog, log *slog.Logger) *Services {
	if log == nil {
		log = slog.Default()
	}

	students := &StudentService{store: store, validator: v, log: log.With(slog.String("service", "students"))}
	activities := &ActivityService{
		store:           store,
		validator:       v,
		log:             log.With(slog.String("service", "activities")),
		studentsChanged: students.invalidate,
	}

	return &Services{
		Students:   students,
		Activities: activities,
		Points:     &PointsService{catalog: catalog, validator: v, log: log.With(slog.String("service", "points"))},
		store:      store,
		log:        log,
	}
}

// Overview is the registry-wide summary.
type Overview struct {
	TotalStudents       int             `json:"totalStudents"`
	TotalActivities     int             `json:"totalActivities"`
	TotalEnrollments    int             `json:"totalEnrollments"`
	AverageActivities   float64         `json:"averageActivitiesPerStudent"`
	MostPopularActivity *types.Activity `json:"mostPopularActivity,omitempty"`
}

// Overview summarizes both collections.
func (s *Services) Overview() (res types.Result[Overview]) {
	defer guard(s.log, "overview", &res)

	students, err := s.store.GetStudents()
	if err != nil {
		return fromError[Overview](s.log, "overview", err)
	}
	activities, err := s.store.GetActivities()
	if err != nil {
		return fromError[Overview](s.log, "overview", err)
	}

	o := Overview{TotalStudents: len(students), TotalActivities: len(activities)}
	for _, st := range students {
		o.TotalEnrollments += len(st.Activities)
	}
	if len(students) > 0 {
		o.AverageActivities = round2(float64(o.TotalEnrollments) / float64(len(students)))
	}
	for i, a := range activities {
		if a.StudentCount > 0 && (o.MostPopularActivity == nil || a.StudentCount > o.MostPopularActivity.StudentCount) {
			o.MostPopularActivity = &activities[i]
		}
	}
	return types.OK(o)
}

// guard converts a panic into an internal failure. It must be deferred
// directly by a function with a named Result return.
func guard[T any](log *slog.Logger, op string, res *types.Result[T]) {
	if r := recover(); r != nil {
		log.Error("recovered from panic", slog.String("op", op), slog.Any("panic", r))
		*res = types.Fail[T](types.CodeInternal, msgInternal)
	}
}

// fromError maps a store error onto the envelope.
func fromError[T any](log *slog.Logger, op string, err error) types.Result[T] {
	switch {
	case errors.Is(err, storage.ErrStudentNotFound), errors.Is(err, storage.ErrActivityNotFound):
		return types.Fail[T](types.CodeNotFound, err.Error())
	case errors.Is(err, storage.ErrDuplicateStudentID):
		return conflict[T]("studentId", "student id is already in use")
	case errors.Is(err, storage.ErrDuplicateEmail):
		return conflict[T]("email", "email is already registered")
	case errors.Is(err, storage.ErrDuplicateActivityName):
		return conflict[T]("name", storage.ErrDuplicateActivityName.Error())
	}

	log.Error("store operation failed", slog.String("op", op), slog.String("error", err.Error()))
	return types.Fail[T](types.CodeInternal, msgInternal)
}

func conflict[T any](field, message string) types.Result[T] {
	res := types.Fail[T](types.CodeConflict, message)
	res.Errors = []types.FieldError{{Field: field, Message: message}}
	return res
}

func invalid[T any](vr types.ValidationResult) types.Result[T] {
	res := types.Fail[T](types.CodeValidation, msgValidation)
	res.Errors = vr.Errors
	res.Warnings = vr.Warnings
	return res
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// BulkResult reports a bulk operation item by item.
type BulkResult struct {
	Done   []string          `json:"done"`
	Failed map[string]string `json:"failed"`
}

func newBulkResult() BulkResult {
	return BulkResult{Done: []string{}, Failed: map[string]string{}}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 5
	}
	return limit
}
