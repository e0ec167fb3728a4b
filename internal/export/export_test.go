package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() ([]types.Student, []types.Activity) {
	activities := []types.Activity{
		{ID: "act-robotics", Name: "Robotics Club", Description: "Weekly robotics workshops.", StudentCount: 1,
			CreatedAt: time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "act-choir", Name: "University Choir", Description: "Rehearsals, concerts and tours.", StudentCount: 1,
			CreatedAt: time.Date(2024, time.February, 6, 14, 30, 0, 0, time.UTC)},
	}
	students := []types.Student{
		{ID: "STU2024001", Name: "Maria Oliveira", Email: "maria@example.com",
			Activities:   []string{"act-robotics", "act-choir", "act-gone"},
			RegisteredAt: time.Date(2024, time.March, 4, 11, 20, 0, 0, time.UTC)},
	}
	return students, activities
}

func TestStudentRows(t *testing.T) {
	students, activities := sample()

	rows := StudentRows(students, activities)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		"STU2024001",
		"Maria Oliveira",
		"maria@example.com",
		"Robotics Club, University Choir, act-gone",
		"04/03/2024",
	}, rows[0])
}

func TestActivityRows(t *testing.T) {
	_, activities := sample()

	rows := ActivityRows(activities)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"act-choir", "University Choir", "Rehearsals, concerts and tours.", "1", "06/02/2024"}, rows[1])
}

func TestWriteStudentsCSV(t *testing.T) {
	students, activities := sample()

	var buf bytes.Buffer
	require.NoError(t, WriteStudentsCSV(&buf, students, activities))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, studentHeader, records[0])
	assert.Equal(t, "Robotics Club, University Choir, act-gone", records[1][3])
}

func TestWriteXLSX(t *testing.T) {
	students, activities := sample()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, students, activities))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{StudentsSheet, ActivitiesSheet}, f.GetSheetList())

	rows, err := f.GetRows(StudentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, studentHeader, rows[0])
	assert.Equal(t, "maria@example.com", rows[1][2])

	rows, err = f.GetRows(ActivitiesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Robotics Club", rows[1][1])
}
