// Package memory provides a slice-backed implementation of
// storage.Storage. State lives only as long as the process.
//
// The store exclusively owns its two collections: every value going in
// or out is copied, so callers never alias internal slices.
package memory

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
)

// Memory is the in-memory storage.Storage.
type Memory struct {
	mu         sync.RWMutex
	students   []types.Student
	activities []types.Activity
	now        func() time.Time
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		students:   make([]types.Student, 0),
		activities: make([]types.Activity, 0),
		now:        time.Now,
	}
}

func cloneStudent(s types.Student) types.Student {
	s.Activities = slices.Clone(s.Activities)
	if s.Activities == nil {
		s.Activities = []string{}
	}
	return s
}

func (m *Memory) studentIndex(id string) int {
	return slices.IndexFunc(m.students, func(s types.Student) bool { return s.ID == id })
}

func (m *Memory) activityIndex(id string) int {
	return slices.IndexFunc(m.activities, func(a types.Activity) bool { return a.ID == id })
}

// enrolled counts students holding activityID. Callers hold the lock.
func (m *Memory) enrolled(activityID string) int {
	n := 0
	for _, s := range m.students {
		if slices.Contains(s.Activities, activityID) {
			n++
		}
	}
	return n
}

func (m *Memory) withCount(a types.Activity) types.Activity {
	a.StudentCount = m.enrolled(a.ID)
	return a
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

func (m *Memory) GetStudents() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, cloneStudent(s))
	}
	return students, nil
}

func (m *Memory) GetStudentByID(id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.studentIndex(id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("%w: %s", storage.ErrStudentNotFound, id)
	}
	return cloneStudent(m.students[i]), nil
}

func (m *Memory) GetStudentsByActivity(activityID string) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0)
	for _, s := range m.students {
		if slices.Contains(s.Activities, activityID) {
			students = append(students, cloneStudent(s))
		}
	}
	return students, nil
}

func (m *Memory) CreateStudent(student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.students {
		if s.ID == student.ID {
			return types.Student{}, fmt.Errorf("%w: %s", storage.ErrDuplicateStudentID, student.ID)
		}
		if s.Email == student.Email {
			return types.Student{}, fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, student.Email)
		}
	}

	if student.RegisteredAt.IsZero() {
		student.RegisteredAt = m.now()
	}
	student = cloneStudent(student)
	m.students = append(m.students, student)

	return cloneStudent(student), nil
}

func (m *Memory) UpdateStudentByID(id string, update types.StudentUpdate) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.studentIndex(id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("%w: %s", storage.ErrStudentNotFound, id)
	}

	if update.Email != nil {
		for _, s := range m.students {
			if s.ID != id && s.Email == *update.Email {
				return types.Student{}, fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, *update.Email)
			}
		}
	}

	updated := cloneStudent(m.students[i])
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Email != nil {
		updated.Email = *update.Email
	}
	if update.SelectedActivities != nil {
		updated.Activities = slices.Clone(update.SelectedActivities)
	}
	m.students[i] = updated

	return cloneStudent(updated), nil
}

func (m *Memory) DeleteStudentByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.studentIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", storage.ErrStudentNotFound, id)
	}
	m.students = slices.Delete(m.students, i, i+1)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Activities
// ─────────────────────────────────────────────────────────────────────────────

func (m *Memory) GetActivities() ([]types.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	activities := make([]types.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		activities = append(activities, m.withCount(a))
	}
	return activities, nil
}

func (m *Memory) GetActivityByID(id string) (types.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.activityIndex(id)
	if i < 0 {
		return types.Activity{}, fmt.Errorf("%w: %s", storage.ErrActivityNotFound, id)
	}
	return m.withCount(m.activities[i]), nil
}

func (m *Memory) nameTaken(name, excludeID string) bool {
	key := storage.NameKey(name)
	return slices.ContainsFunc(m.activities, func(a types.Activity) bool {
		return a.ID != excludeID && storage.NameKey(a.Name) == key
	})
}

func (m *Memory) CreateActivity(activity types.Activity) (types.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTaken(activity.Name, "") {
		return types.Activity{}, fmt.Errorf("%w: %s", storage.ErrDuplicateActivityName, activity.Name)
	}

	if activity.ID == "" {
		activity.ID = storage.NewActivityID()
	}
	if m.activityIndex(activity.ID) >= 0 {
		return types.Activity{}, fmt.Errorf("create activity %s: id already exists", activity.ID)
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = m.now()
	}
	activity.Name = strings.TrimSpace(activity.Name)
	activity.Description = strings.TrimSpace(activity.Description)
	activity.StudentCount = 0

	m.activities = append(m.activities, activity)
	return m.withCount(activity), nil
}

func (m *Memory) UpdateActivityByID(id string, update types.ActivityUpdate) (types.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activityIndex(id)
	if i < 0 {
		return types.Activity{}, fmt.Errorf("%w: %s", storage.ErrActivityNotFound, id)
	}

	if update.Name != nil && m.nameTaken(*update.Name, id) {
		return types.Activity{}, fmt.Errorf("%w: %s", storage.ErrDuplicateActivityName, *update.Name)
	}

	updated := m.activities[i]
	if update.Name != nil {
		updated.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		updated.Description = strings.TrimSpace(*update.Description)
	}
	m.activities[i] = updated

	return m.withCount(updated), nil
}

func (m *Memory) DeleteActivityByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.activityIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", storage.ErrActivityNotFound, id)
	}

	for j := range m.students {
		m.students[j].Activities = slices.DeleteFunc(
			slices.Clone(m.students[j].Activities),
			func(actID string) bool { return actID == id },
		)
	}
	m.activities = slices.Delete(m.activities, i, i+1)
	return nil
}
