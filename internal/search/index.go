package search

import (
	"slices"
	"strings"

	"github.com/aanand-mishra/activity-registry/internal/types"
)

// Index maps lower-cased tokens to the students containing them: every
// name word of two or more characters, the full email and the id.
//
// An Index is a snapshot; rebuild it whenever the collection changes.
type Index struct {
	students []types.Student
	tokens   map[string][]int
}

// BuildIndex indexes students.
func BuildIndex(students []types.Student) *Index {
	idx := &Index{
		students: slices.Clone(students),
		tokens:   make(map[string][]int),
	}
	for i, s := range idx.students {
		idx.students[i].Activities = slices.Clone(s.Activities)
		for _, word := range strings.Fields(fold(s.Name)) {
			if len([]rune(word)) >= 2 {
				idx.add(word, i)
			}
		}
		idx.add(fold(s.Email), i)
		idx.add(fold(s.ID), i)
	}
	return idx
}

func (idx *Index) add(token string, i int) {
	postings := idx.tokens[token]
	if len(postings) > 0 && postings[len(postings)-1] == i {
		return
	}
	idx.tokens[token] = append(postings, i)
}

// Len returns the number of distinct tokens.
func (idx *Index) Len() int {
	return len(idx.tokens)
}

// Search returns students with a token equal to or containing query, in
// collection order. Queries shorter than two characters match nothing.
func (idx *Index) Search(query string) []types.Student {
	term := fold(strings.TrimSpace(query))
	if len([]rune(term)) < 2 {
		return []types.Student{}
	}

	hits := make(map[int]bool)
	for _, i := range idx.tokens[term] {
		hits[i] = true
	}
	for token, postings := range idx.tokens {
		if strings.Contains(token, term) {
			for _, i := range postings {
				hits[i] = true
			}
		}
	}

	positions := make([]int, 0, len(hits))
	for i := range hits {
		positions = append(positions, i)
	}
	slices.Sort(positions)

	out := make([]types.Student, 0, len(positions))
	for _, i := range positions {
		st := idx.students[i]
		st.Activities = slices.Clone(st.Activities)
		out = append(out, st)
	}
	return out
}
