package points

import (
	"slices"
)

// CatalogEntry is an activity type students can claim points for.
type CatalogEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Eixo   Eixo   `json:"eixo"`
	Points int    `json:"points"`
	Unit   Unit   `json:"unit"`
}

// Catalog is an immutable set of entries keyed by ID.
type Catalog struct {
	entries []CatalogEntry
	byID    map[string]int
}

// NewCatalog builds a catalog. Duplicate IDs keep the first entry.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(entries))}
	for _, e := range entries {
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		c.byID[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// Lookup returns the entry with id.
func (c *Catalog) Lookup(id string) (CatalogEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of every entry in catalog order.
func (c *Catalog) Entries() []CatalogEntry {
	return slices.Clone(c.entries)
}

// ByEixo returns the entries of one category.
func (c *Catalog) ByEixo(e Eixo) []CatalogEntry {
	out := make([]CatalogEntry, 0)
	for _, entry := range c.entries {
		if entry.Eixo == e {
			out = append(out, entry)
		}
	}
	return out
}

// DefaultCatalog is the complementary-activities table used by the
// registry.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{ID: "1.1", Name: "Teaching assistantship", Eixo: Teaching, Points: 5, Unit: PerSemester},
		{ID: "1.2", Name: "Peer tutoring program", Eixo: Teaching, Points: 4, Unit: PerSemester},
		{ID: "1.3", Name: "Extension course attendance", Eixo: Teaching, Points: 1, Unit: PerHour},

		{ID: "2.1", Name: "Undergraduate research fellowship", Eixo: Research, Points: 5, Unit: PerSemester},
		{ID: "2.2", Name: "Conference paper presentation", Eixo: Research, Points: 4, Unit: OneTime},
		{ID: "2.3", Name: "Journal article publication", Eixo: Research, Points: 8, Unit: OneTime},

		{ID: "3.1", Name: "Cultural event organization", Eixo: Culture, Points: 3, Unit: OneTime},
		{ID: "3.2", Name: "Sports competition", Eixo: Culture, Points: 2, Unit: OneTime},
		{ID: "3.3", Name: "Language course", Eixo: Culture, Points: 3, Unit: PerSemester},

		{ID: "4.1", Name: "Student council member", Eixo: Representation, Points: 4, Unit: PerSemester},
		{ID: "4.2", Name: "Class representative", Eixo: Representation, Points: 2, Unit: PerSemester},
		{ID: "4.3", Name: "Collegiate board seat", Eixo: Representation, Points: 3, Unit: PerSemester},
	})
}
