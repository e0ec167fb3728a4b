// Package storage defines the Storage interface, the contract any
// backend holding the student and activity collections must satisfy.
//
// Services depend only on this interface, so the slice-backed memory
// store and the SQLite store are interchangeable, and both are checked
// by the same behavior suite in storagetest.
package storage

import (
	"errors"
	"strings"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Sentinel errors returned (possibly wrapped) by every backend.
var (
	ErrStudentNotFound       = errors.New("student not found")
	ErrActivityNotFound      = errors.New("activity not found")
	ErrDuplicateStudentID    = errors.New("student id already exists")
	ErrDuplicateEmail        = errors.New("email already in use")
	ErrDuplicateActivityName = errors.New("an activity with this name already exists")
)

// Storage is the contract for the two collections.
//
// Returned students and activities are copies: mutating them never
// changes stored state. Activity.StudentCount is always recomputed from
// the current students.
type Storage interface {
	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetStudents() ([]types.Student, error)

	GetStudentByID(id string) (types.Student, error)

	// GetStudentsByActivity returns the students enrolled in activityID.
	GetStudentsByActivity(activityID string) ([]types.Student, error)

	// CreateStudent stores a new student. A zero RegisteredAt is stamped
	// with the current time; a non-zero one (seed data) is kept.
	// Fails with ErrDuplicateStudentID or ErrDuplicateEmail.
	CreateStudent(student types.Student) (types.Student, error)

	// UpdateStudentByID applies the non-nil fields of update. ID and
	// RegisteredAt never change.
	UpdateStudentByID(id string, update types.StudentUpdate) (types.Student, error)

	DeleteStudentByID(id string) error

	GetActivities() ([]types.Activity, error)

	GetActivityByID(id string) (types.Activity, error)

	// CreateActivity stores a new activity, generating an ID when empty
	// and stamping a zero CreatedAt. Names are unique case-insensitively.
	CreateActivity(activity types.Activity) (types.Activity, error)

	UpdateActivityByID(id string, update types.ActivityUpdate) (types.Activity, error)

	// DeleteActivityByID removes the activity id from every student's
	// activity list, then removes the activity itself.
	DeleteActivityByID(id string) error
}

// NameKey folds an activity name into the key used for uniqueness.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// NewActivityID returns a fresh activity identifier.
func NewActivityID() string {
	return "act-" + uuid.NewString()
}

