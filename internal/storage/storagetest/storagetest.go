// Package storagetest is the behavior suite every storage.Storage
// backend must pass. Backends call Run from their own tests.
package storagetest

import (
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) storage.Storage

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGetStudent", func(t *testing.T) { testCreateAndGetStudent(t, newStore(t)) })
	t.Run("DuplicateStudent", func(t *testing.T) { testDuplicateStudent(t, newStore(t)) })
	t.Run("UpdateStudent", func(t *testing.T) { testUpdateStudent(t, newStore(t)) })
	t.Run("DeleteStudentRoundTrip", func(t *testing.T) { testDeleteStudentRoundTrip(t, newStore(t)) })
	t.Run("DefensiveCopies", func(t *testing.T) { testDefensiveCopies(t, newStore(t)) })
	t.Run("ListIdempotent", func(t *testing.T) { testListIdempotent(t, newStore(t)) })
	t.Run("Activities", func(t *testing.T) { testActivities(t, newStore(t)) })
	t.Run("ActivityNameCaseInsensitive", func(t *testing.T) { testActivityNameCaseInsensitive(t, newStore(t)) })
	t.Run("StudentCountDerived", func(t *testing.T) { testStudentCountDerived(t, newStore(t)) })
	t.Run("DeleteActivityCascades", func(t *testing.T) { testDeleteActivityCascades(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func mustActivity(t *testing.T, s storage.Storage, id, name string) types.Activity {
	t.Helper()
	a, err := s.CreateActivity(types.Activity{
		ID:          id,
		Name:        name,
		Description: "Description for " + name,
		CreatedAt:   fixedTime,
	})
	require.NoError(t, err)
	return a
}

func mustStudent(t *testing.T, s storage.Storage, id, email string, activities ...string) types.Student {
	t.Helper()
	st, err := s.CreateStudent(types.Student{
		ID:         id,
		Name:       "Student " + id,
		Email:      email,
		Activities: activities,
	})
	require.NoError(t, err)
	return st
}

func ids(students []types.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}

func testCreateAndGetStudent(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	created := mustStudent(t, s, "ABC123", "abc@example.com", "act-a")

	assert.False(t, created.RegisteredAt.IsZero())
	assert.Equal(t, []string{"act-a"}, created.Activities)

	got, err := s.GetStudentByID("ABC123")
	require.NoError(t, err)
	assert.Equal(t, "Student ABC123", got.Name)
	assert.Equal(t, "abc@example.com", got.Email)
	assert.True(t, created.RegisteredAt.Equal(got.RegisteredAt))

	seeded, err := s.CreateStudent(types.Student{
		ID: "SEED01", Name: "Seeded", Email: "seed@example.com",
		Activities: []string{}, RegisteredAt: fixedTime,
	})
	require.NoError(t, err)
	assert.True(t, seeded.RegisteredAt.Equal(fixedTime))
	assert.NotNil(t, seeded.Activities)
}

func testDuplicateStudent(t *testing.T, s storage.Storage) {
	mustStudent(t, s, "ABC123", "abc@example.com")

	_, err := s.CreateStudent(types.Student{ID: "ABC123", Name: "Other", Email: "other@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateStudentID)

	_, err = s.CreateStudent(types.Student{ID: "XYZ789", Name: "Other", Email: "abc@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	students, err := s.GetStudents()
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func testUpdateStudent(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	mustActivity(t, s, "act-b", "Drama Club")
	original := mustStudent(t, s, "ABC123", "abc@example.com", "act-a")
	mustStudent(t, s, "XYZ789", "xyz@example.com")

	name := "Renamed Student"
	updated, err := s.UpdateStudentByID("ABC123", types.StudentUpdate{
		Name:               &name,
		SelectedActivities: []string{"act-b", "act-a"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Student", updated.Name)
	assert.Equal(t, "abc@example.com", updated.Email)
	assert.Equal(t, []string{"act-b", "act-a"}, updated.Activities)
	assert.True(t, original.RegisteredAt.Equal(updated.RegisteredAt))

	taken := "xyz@example.com"
	_, err = s.UpdateStudentByID("ABC123", types.StudentUpdate{Email: &taken})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	same := "abc@example.com"
	_, err = s.UpdateStudentByID("ABC123", types.StudentUpdate{Email: &same})
	assert.NoError(t, err)
}

func testDeleteStudentRoundTrip(t *testing.T, s storage.Storage) {
	mustStudent(t, s, "ABC123", "abc@example.com")
	before, err := s.GetStudents()
	require.NoError(t, err)

	mustStudent(t, s, "NEW456", "new@example.com")
	require.NoError(t, s.DeleteStudentByID("NEW456"))

	after, err := s.GetStudents()
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(before), ids(after))

	_, err = s.GetStudentByID("NEW456")
	assert.ErrorIs(t, err, storage.ErrStudentNotFound)
}

func testDefensiveCopies(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	input := []string{"act-a"}
	_, err := s.CreateStudent(types.Student{ID: "ABC123", Name: "A B", Email: "a@example.com", Activities: input})
	require.NoError(t, err)
	input[0] = "mutated"

	students, err := s.GetStudents()
	require.NoError(t, err)
	students[0].Activities[0] = "mutated"
	students[0].Name = "mutated"

	got, err := s.GetStudentByID("ABC123")
	require.NoError(t, err)
	assert.Equal(t, []string{"act-a"}, got.Activities)
	assert.Equal(t, "A B", got.Name)
}

func testListIdempotent(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	mustStudent(t, s, "ABC123", "abc@example.com", "act-a")
	mustStudent(t, s, "XYZ789", "xyz@example.com")

	first, err := s.GetStudents()
	require.NoError(t, err)
	second, err := s.GetStudents()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ABC123", "XYZ789"}, ids(first))

	a1, err := s.GetActivities()
	require.NoError(t, err)
	a2, err := s.GetActivities()
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func testActivities(t *testing.T, s storage.Storage) {
	created, err := s.CreateActivity(types.Activity{Name: "  Debate Society ", Description: " Weekly debates on current topics "})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Debate Society", created.Name)
	assert.Equal(t, "Weekly debates on current topics", created.Description)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Zero(t, created.StudentCount)

	desc := "Updated description text"
	updated, err := s.UpdateActivityByID(created.ID, types.ActivityUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Debate Society", updated.Name)
	assert.Equal(t, desc, updated.Description)

	got, err := s.GetActivityByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)

	all, err := s.GetActivities()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testActivityNameCaseInsensitive(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	other := mustActivity(t, s, "act-b", "Drama Club")

	_, err := s.CreateActivity(types.Activity{Name: "CHESS club", Description: "Another chess club"})
	assert.ErrorIs(t, err, storage.ErrDuplicateActivityName)

	clash := "chess CLUB"
	_, err = s.UpdateActivityByID(other.ID, types.ActivityUpdate{Name: &clash})
	assert.ErrorIs(t, err, storage.ErrDuplicateActivityName)

	// Renaming to a different case of its own name is allowed.
	self := "DRAMA CLUB"
	renamed, err := s.UpdateActivityByID(other.ID, types.ActivityUpdate{Name: &self})
	require.NoError(t, err)
	assert.Equal(t, "DRAMA CLUB", renamed.Name)
}

func testStudentCountDerived(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	mustActivity(t, s, "act-b", "Drama Club")
	mustStudent(t, s, "ABC123", "abc@example.com", "act-a", "act-b")
	mustStudent(t, s, "XYZ789", "xyz@example.com", "act-a")

	a, err := s.GetActivityByID("act-a")
	require.NoError(t, err)
	assert.Equal(t, 2, a.StudentCount)

	require.NoError(t, s.DeleteStudentByID("XYZ789"))
	a, err = s.GetActivityByID("act-a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.StudentCount)

	enrolled, err := s.GetStudentsByActivity("act-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC123"}, ids(enrolled))
}

func testDeleteActivityCascades(t *testing.T, s storage.Storage) {
	mustActivity(t, s, "act-a", "Chess Club")
	mustActivity(t, s, "act-b", "Drama Club")
	mustStudent(t, s, "S00001", "s1@example.com", "act-a", "act-b")
	mustStudent(t, s, "S00002", "s2@example.com", "act-b", "act-a")
	mustStudent(t, s, "S00003", "s3@example.com", "act-b")

	before, err := s.GetActivityByID("act-b")
	require.NoError(t, err)

	require.NoError(t, s.DeleteActivityByID("act-a"))

	students, err := s.GetStudents()
	require.NoError(t, err)
	for _, st := range students {
		assert.NotContains(t, st.Activities, "act-a", st.ID)
		assert.Contains(t, st.Activities, "act-b", st.ID)
	}

	after, err := s.GetActivityByID("act-b")
	require.NoError(t, err)
	assert.Equal(t, before.StudentCount, after.StudentCount)

	_, err = s.GetActivityByID("act-a")
	assert.ErrorIs(t, err, storage.ErrActivityNotFound)
}

func testNotFound(t *testing.T, s storage.Storage) {
	_, err := s.GetStudentByID("missing")
	assert.ErrorIs(t, err, storage.ErrStudentNotFound)

	name := "Nobody Here"
	_, err = s.UpdateStudentByID("missing", types.StudentUpdate{Name: &name})
	assert.ErrorIs(t, err, storage.ErrStudentNotFound)

	assert.ErrorIs(t, s.DeleteStudentByID("missing"), storage.ErrStudentNotFound)

	_, err = s.GetActivityByID("missing")
	assert.ErrorIs(t, err, storage.ErrActivityNotFound)

	_, err = s.UpdateActivityByID("missing", types.ActivityUpdate{Name: &name})
	assert.ErrorIs(t, err, storage.ErrActivityNotFound)

	assert.ErrorIs(t, s.DeleteActivityByID("missing"), storage.ErrActivityNotFound)

	enrolled, err := s.GetStudentsByActivity("missing")
	require.NoError(t, err)
	assert.Empty(t, enrolled)
}
