package seed

import (
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	data, err := Load()
	require.NoError(t, err)

	assert.Len(t, data.Activities, 5)
	assert.Len(t, data.Students, 5)

	first := data.Students[0]
	assert.Equal(t, "STU2024001", first.ID)
	assert.Equal(t, []string{"act-robotics", "act-tutoring"}, first.Activities)
	assert.True(t, first.RegisteredAt.Equal(time.Date(2024, 3, 4, 11, 20, 0, 0, time.UTC)))
}

func TestApply_KeepsFixtureTimestamps(t *testing.T) {
	data, err := Load()
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, Apply(store, data))

	activity, err := store.GetActivityByID("act-robotics")
	require.NoError(t, err)
	assert.Equal(t, 3, activity.StudentCount)
	assert.True(t, activity.CreatedAt.Equal(data.Activities[0].CreatedAt))

	students, err := store.GetStudents()
	require.NoError(t, err)
	require.Len(t, students, 5)
	assert.True(t, students[4].RegisteredAt.Equal(data.Students[4].RegisteredAt))
}

func TestApply_Twice(t *testing.T) {
	data, err := Load()
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, Apply(store, data))
	assert.Error(t, Apply(store, data))
}
