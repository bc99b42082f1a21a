// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"sort"

	"github.com/tomtom215/internrank/internal/recommend"
)

// Entry is one non-zero cell of a sparse row.
type Entry struct {
	Index  int
	Weight float64
}

// InteractionMatrix is a weighted sparse person x opportunity matrix in
// row-major (CSR-like) and column-major form. Rows and columns cover the
// full id universe, including entities that never interacted.
type InteractionMatrix struct {
	PersonIDs      []string
	OpportunityIDs []string

	// ByPerson[p] lists opportunities with summed weights, sorted by index.
	ByPerson [][]Entry

	// ByOpportunity[o] lists persons with summed weights, sorted by index.
	ByOpportunity [][]Entry

	Stats MatrixStats
}

// MatrixStats are builder diagnostics.
type MatrixStats struct {
	Persons       int     `json:"persons"`
	Opportunities int     `json:"opportunities"`
	Events        int     `json:"events"`
	NonZero       int     `json:"non_zero"`
	Dropped       int     `json:"dropped"`
	UnknownTypes  int     `json:"unknown_types"`
	Density       float64 `json:"density"`
	AvgPerPerson  float64 `json:"avg_per_person"`
	AvgPerOpp     float64 `json:"avg_per_opportunity"`
	ActivePersons int     `json:"active_persons"`
	ActiveOpps    int     `json:"active_opportunities"`
}

// Rows returns the number of persons.
func (m *InteractionMatrix) Rows() int { return len(m.PersonIDs) }

// Cols returns the number of opportunities.
func (m *InteractionMatrix) Cols() int { return len(m.OpportunityIDs) }

// Weight returns the summed weight for (p, o), 0 when absent.
func (m *InteractionMatrix) Weight(p, o int) float64 {
	row := m.ByPerson[p]
	i := sort.Search(len(row), func(i int) bool { return row[i].Index >= o })
	if i < len(row) && row[i].Index == o {
		return row[i].Weight
	}
	return 0
}

// BuildInteractionMatrix maps events to implicit weights (apply=5, save=3,
// click=2, view=1, anything else 1), sums them per pair and assembles a
// sparse matrix over the given id universe. Events naming unknown ids are
// dropped and counted.
func BuildInteractionMatrix(events []recommend.InteractionEvent, personIDs, oppIDs []string) *InteractionMatrix {
	pIdx := indexOf(personIDs)
	oIdx := indexOf(oppIDs)

	type cell struct{ p, o int }
	sums := make(map[cell]float64)
	stats := MatrixStats{
		Persons:       len(personIDs),
		Opportunities: len(oppIDs),
		Events:        len(events),
	}

	for i := range events {
		e := &events[i]
		p, okP := pIdx[e.PersonID]
		o, okO := oIdx[e.OpportunityID]
		if !okP || !okO {
			stats.Dropped++
			continue
		}
		t := recommend.ParseEventType(string(e.Type))
		if !t.Known() {
			stats.UnknownTypes++
		}
		sums[cell{p, o}] += t.Weight()
	}

	m := &InteractionMatrix{
		PersonIDs:      personIDs,
		OpportunityIDs: oppIDs,
		ByPerson:       make([][]Entry, len(personIDs)),
		ByOpportunity:  make([][]Entry, len(oppIDs)),
	}
	for c, w := range sums {
		m.ByPerson[c.p] = append(m.ByPerson[c.p], Entry{Index: c.o, Weight: w})
		m.ByOpportunity[c.o] = append(m.ByOpportunity[c.o], Entry{Index: c.p, Weight: w})
	}
	for _, row := range m.ByPerson {
		sortEntries(row)
		if len(row) > 0 {
			stats.ActivePersons++
		}
	}
	for _, col := range m.ByOpportunity {
		sortEntries(col)
		if len(col) > 0 {
			stats.ActiveOpps++
		}
	}

	stats.NonZero = len(sums)
	if cells := len(personIDs) * len(oppIDs); cells > 0 {
		stats.Density = float64(stats.NonZero) / float64(cells)
	}
	if len(personIDs) > 0 {
		stats.AvgPerPerson = float64(stats.NonZero) / float64(len(personIDs))
	}
	if len(oppIDs) > 0 {
		stats.AvgPerOpp = float64(stats.NonZero) / float64(len(oppIDs))
	}
	m.Stats = stats
	return m
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].Index < es[j].Index })
}

// indexOf maps ids to positions; later duplicates are ignored.
func indexOf(ids []string) map[string]int {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := idx[id]; !ok {
			idx[id] = i
		}
	}
	return idx
}
