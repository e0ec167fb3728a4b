// Package points turns catalog activity registrations into per-category
// point totals.
//
// A registration's points are multiplied by its units count exactly once,
// in NewRegistration. Aggregate only sums and clamps.
package points

import (
	"fmt"
)

// Eixo is one of the four fixed categories ("eixos") activities belong to.
type Eixo string

const (
	Teaching       Eixo = "teaching"
	Research       Eixo = "research"
	Culture        Eixo = "culture"
	Representation Eixo = "representation"
)

// Eixos lists every category in display order.
var Eixos = []Eixo{Teaching, Research, Culture, Representation}

// Valid reports whether e is one of the four categories.
func (e Eixo) Valid() bool {
	switch e {
	case Teaching, Research, Culture, Representation:
		return true
	}
	return false
}

// CategoryCap is the most points a student can hold in one category.
const CategoryCap = 10

// MaxTotal is the most points a student can hold overall.
const MaxTotal = CategoryCap * 4

// Unit describes what one unit of an activity means.
type Unit string

const (
	PerSemester Unit = "semester"
	OneTime     Unit = "one-time"
	PerHour     Unit = "hour"
)

// Registration is a catalog entry registered for a student.
type Registration struct {
	EntryID     string `json:"entryId"`
	Name        string `json:"name"`
	Eixo        Eixo   `json:"eixo"`
	BasePoints  int    `json:"basePoints"`
	Units       int    `json:"units"`
	TotalPoints int    `json:"totalPoints"`
	Year        int    `json:"year,omitempty"`
	Link        string `json:"link,omitempty"`
}

// NewRegistration builds a registration for units of entry. One-time
// entries always count a single unit.
func NewRegistration(entry CatalogEntry, units int) (Registration, error) {
	if !entry.Eixo.Valid() {
		return Registration{}, fmt.Errorf("entry %s: unknown eixo %q", entry.ID, entry.Eixo)
	}
	if units < 1 {
		return Registration{}, fmt.Errorf("entry %s: units must be at least 1, got %d", entry.ID, units)
	}
	if entry.Unit == OneTime {
		units = 1
	}

	return Registration{
		EntryID:     entry.ID,
		Name:        entry.Name,
		Eixo:        entry.Eixo,
		BasePoints:  entry.Points,
		Units:       units,
		TotalPoints: entry.Points * units,
	}, nil
}

// Summary is the aggregated view of a set of registrations.
type Summary struct {
	// PointsByEixo holds the clamped total per category.
	PointsByEixo map[Eixo]int `json:"pointsByEixo"`
	// RawByEixo holds the unclamped sums, useful to show what was cut.
	RawByEixo map[Eixo]int `json:"rawByEixo"`
	// Total is the sum of the clamped categories.
	Total         int            `json:"totalPoints"`
	Registrations []Registration `json:"registrations"`
}

// Aggregate sums registrations per category, clamps each category at
// CategoryCap and totals the clamped values. Order does not matter.
// Registrations with an unknown category are ignored.
func Aggregate(regs []Registration) Summary {
	raw := make(map[Eixo]int, len(Eixos))
	for _, e := range Eixos {
		raw[e] = 0
	}
	for _, r := range regs {
		if _, ok := raw[r.Eixo]; ok {
			raw[r.Eixo] += r.TotalPoints
		}
	}

	clamped := make(map[Eixo]int, len(Eixos))
	total := 0
	for _, e := range Eixos {
		clamped[e] = min(raw[e], CategoryCap)
		total += clamped[e]
	}

	if regs == nil {
		regs = []Registration{}
	}
	return Summary{
		PointsByEixo:  clamped,
		RawByEixo:     raw,
		Total:         total,
		Registrations: regs,
	}
}
