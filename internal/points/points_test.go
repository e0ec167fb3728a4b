package points

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reg(e Eixo, total int) Registration {
	return Registration{Eixo: e, TotalPoints: total}
}

func TestAggregate_SingleActivity(t *testing.T) {
	s := Aggregate([]Registration{reg(Teaching, 5)})

	assert.Equal(t, 5, s.PointsByEixo[Teaching])
	assert.Equal(t, 5, s.Total)
}

func TestAggregate_ClampsPerCategory(t *testing.T) {
	s := Aggregate([]Registration{reg(Teaching, 8), reg(Teaching, 5)})

	assert.Equal(t, 10, s.PointsByEixo[Teaching])
	assert.Equal(t, 13, s.RawByEixo[Teaching])
	assert.Equal(t, 10, s.Total)
}

func TestAggregate_CapIsPerCategoryNotGlobal(t *testing.T) {
	var regs []Registration
	for _, e := range Eixos {
		regs = append(regs, reg(e, 7), reg(e, 9))
	}

	s := Aggregate(regs)

	for _, e := range Eixos {
		assert.Equal(t, CategoryCap, s.PointsByEixo[e], e)
	}
	assert.Equal(t, MaxTotal, s.Total)
}

func TestAggregate_NeverExceedsCap(t *testing.T) {
	for n := 0; n < 30; n++ {
		regs := make([]Registration, n)
		for i := range regs {
			regs[i] = reg(Research, i+1)
		}
		s := Aggregate(regs)
		assert.LessOrEqual(t, s.PointsByEixo[Research], CategoryCap)
		assert.LessOrEqual(t, s.Total, MaxTotal)
	}
}

func TestAggregate_OrderInsensitive(t *testing.T) {
	a := Aggregate([]Registration{reg(Culture, 3), reg(Research, 4), reg(Culture, 9)})
	b := Aggregate([]Registration{reg(Culture, 9), reg(Culture, 3), reg(Research, 4)})

	assert.Equal(t, a.PointsByEixo, b.PointsByEixo)
	assert.Equal(t, a.Total, b.Total)
}

func TestAggregate_EmptyHasAllBuckets(t *testing.T) {
	s := Aggregate(nil)

	assert.Len(t, s.PointsByEixo, 4)
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.Registrations)
}

func TestAggregate_IgnoresUnknownCategory(t *testing.T) {
	s := Aggregate([]Registration{reg("sports", 4), reg(Culture, 2)})

	assert.Equal(t, 2, s.Total)
	assert.NotContains(t, s.PointsByEixo, Eixo("sports"))
}

func TestNewRegistration_MultipliesUnits(t *testing.T) {
	entry, ok := DefaultCatalog().Lookup("1.1")
	require.True(t, ok)

	r, err := NewRegistration(entry, 3)
	require.NoError(t, err)
	assert.Equal(t, 15, r.TotalPoints)
	assert.Equal(t, 5, r.BasePoints)

	s := Aggregate([]Registration{r})
	assert.Equal(t, 10, s.PointsByEixo[Teaching])
}

func TestNewRegistration_OneTimeIgnoresUnits(t *testing.T) {
	entry, ok := DefaultCatalog().Lookup("2.3")
	require.True(t, ok)

	r, err := NewRegistration(entry, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Units)
	assert.Equal(t, 8, r.TotalPoints)
}

func TestNewRegistration_Errors(t *testing.T) {
	_, err := NewRegistration(CatalogEntry{ID: "x", Eixo: Teaching, Points: 1, Unit: PerHour}, 0)
	assert.Error(t, err)

	_, err = NewRegistration(CatalogEntry{ID: "y", Eixo: "sports", Points: 1, Unit: OneTime}, 1)
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()

	for _, e := range Eixos {
		assert.NotEmpty(t, c.ByEixo(e), e)
	}

	entries := c.Entries()
	entries[0].Points = 99
	first, _ := c.Lookup(entries[0].ID)
	assert.NotEqual(t, 99, first.Points)

	_, ok := c.Lookup("9.9")
	assert.False(t, ok)

	dup := NewCatalog([]CatalogEntry{{ID: "a", Points: 1}, {ID: "a", Points: 2}})
	assert.Len(t, dup.Entries(), 1)
	got, _ := dup.Lookup("a")
	assert.Equal(t, 1, got.Points)
}
