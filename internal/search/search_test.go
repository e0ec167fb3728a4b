package search

import (
	"testing"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC)
}

func fixtures() []types.Student {
	return []types.Student{
		{ID: "STU2024001", Name: "Ana Souza", Email: "ana.souza@school.edu", Activities: []string{"act-robotics", "act-choir"}, RegisteredAt: day(1)},
		{ID: "STU2024002", Name: "Bruno Lima", Email: "bruno@school.edu", Activities: []string{"act-robotics"}, RegisteredAt: day(5)},
		{ID: "STU2024003", Name: "Carla Dias", Email: "carla.dias@mail.com", Activities: []string{"act-choir", "act-council", "act-robotics"}, RegisteredAt: day(10)},
		{ID: "STU2024004", Name: "Diego Anaya", Email: "diego@school.edu", Activities: []string{"act-council"}, RegisteredAt: day(15)},
	}
}

func ids(students []types.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}

func TestStudents_DefaultFieldsCaseInsensitive(t *testing.T) {
	got := Students(fixtures(), "ANA", StudentOptions{})

	assert.Equal(t, []string{"STU2024001", "STU2024004"}, ids(got))
}

func TestStudents_ShortQueryReturnsAll(t *testing.T) {
	got := Students(fixtures(), "a", StudentOptions{Options: Options{MinLength: 2}})
	assert.Len(t, got, 4)

	got = Students(fixtures(), "   ", StudentOptions{})
	assert.Len(t, got, 4)
}

func TestStudents_FieldsAndModes(t *testing.T) {
	got := Students(fixtures(), "school", StudentOptions{Fields: []StudentField{StudentName}})
	assert.Empty(t, got)

	got = Students(fixtures(), "school", StudentOptions{Fields: []StudentField{StudentEmail}})
	assert.Len(t, got, 3)

	got = Students(fixtures(), "stu2024002", StudentOptions{Options: Options{ExactMatch: true}, Fields: []StudentField{StudentID}})
	assert.Equal(t, []string{"STU2024002"}, ids(got))

	got = Students(fixtures(), "ana souza", StudentOptions{Options: Options{CaseSensitive: true}})
	assert.Empty(t, got)
}

func TestStudents_DoesNotMutateInput(t *testing.T) {
	in := fixtures()
	out := Students(in, "zz", StudentOptions{Options: Options{MinLength: 5}})
	out[0].Name = "changed"

	assert.Equal(t, "Ana Souza", in[0].Name)
}

func TestActivities(t *testing.T) {
	activities := []types.Activity{
		{ID: "a", Name: "Robotics Club", Description: "Build and program robots"},
		{ID: "b", Name: "Choir", Description: "Weekly singing practice"},
	}

	assert.Len(t, Activities(activities, "robot", ActivityOptions{}), 1)
	assert.Len(t, Activities(activities, "singing", ActivityOptions{Fields: []ActivityField{ActivityName}}), 0)
	assert.Len(t, Activities(activities, "", ActivityOptions{}), 2)
}

func TestFilterByActivities(t *testing.T) {
	assert.Equal(t, []string{"STU2024001", "STU2024002", "STU2024003"}, ids(FilterByActivity(fixtures(), "act-robotics")))
	assert.Len(t, FilterByActivity(fixtures(), ""), 4)

	got := FilterByActivities(fixtures(), []string{"act-choir", "act-robotics"})
	assert.Equal(t, []string{"STU2024001", "STU2024003"}, ids(got))

	assert.Empty(t, FilterByActivities(fixtures(), []string{"act-unknown"}))
}

func TestFilterByDateRange(t *testing.T) {
	start, end := day(5), day(10)

	assert.Equal(t, []string{"STU2024002", "STU2024003"}, ids(FilterByDateRange(fixtures(), &start, &end)))
	assert.Equal(t, []string{"STU2024003", "STU2024004"}, ids(FilterByDateRange(fixtures(), &end, nil)))
	assert.Len(t, FilterByDateRange(fixtures(), nil, nil), 4)
}

func TestSearchAndFilter(t *testing.T) {
	start := day(2)
	got := SearchAndFilter(fixtures(), StudentFilters{
		Query:      "school",
		ActivityID: "act-robotics",
		Start:      &start,
	})

	assert.Equal(t, []string{"STU2024002"}, ids(got))
}

func TestSortStudents(t *testing.T) {
	got := SortStudents(fixtures(), SortStudentActivityCount, Desc)
	require.Len(t, got, 4)
	assert.Equal(t, "STU2024003", got[0].ID)
	// STU2024002 and STU2024004 tie at one activity and keep their order.
	assert.Equal(t, []string{"STU2024002", "STU2024004"}, ids(got[2:]))

	got = SortStudents(fixtures(), SortStudentName, Desc)
	assert.Equal(t, "STU2024004", got[0].ID)

	got = SortStudents(fixtures(), SortStudentRegisteredAt, Asc)
	assert.Equal(t, "STU2024001", got[0].ID)

	got = SortStudents(fixtures(), "unknown", Asc)
	assert.Equal(t, ids(fixtures()), ids(got))
}

func TestSortActivities(t *testing.T) {
	activities := []types.Activity{
		{ID: "a", Name: "choir", StudentCount: 2},
		{ID: "b", Name: "Art", StudentCount: 5},
		{ID: "c", Name: "Debate", StudentCount: 2},
	}

	byName := SortActivities(activities, SortActivityName, Asc)
	assert.Equal(t, "b", byName[0].ID)

	byCount := SortActivities(activities, SortActivityStudentCount, Desc)
	assert.Equal(t, "b", byCount[0].ID)
	assert.Equal(t, "a", byCount[1].ID)
	assert.Equal(t, "a", activities[0].ID)
}

func TestSuggestions(t *testing.T) {
	assert.Empty(t, Suggestions(fixtures(), "a", 5))

	got := Suggestions(fixtures(), "school", 2)
	assert.Equal(t, []string{"ana.souza@school.edu", "bruno@school.edu"}, got)
}

func TestStats(t *testing.T) {
	all := fixtures()
	stats := Stats(all, all[:1])

	assert.Equal(t, FilterStats{Total: 4, Filtered: 1, Percentage: 25, Hidden: 3}, stats)
	assert.Zero(t, Stats(nil, nil).Percentage)
}

func TestIndex(t *testing.T) {
	idx := BuildIndex(fixtures())

	assert.Equal(t, []string{"STU2024001", "STU2024004"}, ids(idx.Search("ana")))
	assert.Equal(t, []string{"STU2024002"}, ids(idx.Search("bruno@school.edu")))
	assert.Equal(t, []string{"STU2024003"}, ids(idx.Search("stu2024003")))
	assert.Empty(t, idx.Search("a"))
	assert.Empty(t, idx.Search("nobody"))
	assert.Positive(t, idx.Len())
}

func TestIndex_SnapshotIsIsolated(t *testing.T) {
	in := fixtures()
	idx := BuildIndex(in)
	in[0].Name = "Zed"

	in[0].Activities[0] = "act-chess"

	got := idx.Search("souza")
	require.Len(t, got, 1)
	assert.Equal(t, "Ana Souza", got[0].Name)
	assert.Equal(t, []string{"act-robotics", "act-choir"}, got[0].Activities)

	got[0].Activities[0] = "act-chess"
	assert.Equal(t, []string{"act-robotics", "act-choir"}, idx.Search("souza")[0].Activities)
}
