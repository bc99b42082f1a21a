// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package recommend

import (
	"math"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is the immutable set of input tables for one pipeline run.
// Concurrent runs each operate on their own Snapshot.
type Snapshot struct {
	Persons       []Person
	Opportunities []Opportunity
	Events        []InteractionEvent
	Labels        []OutcomeLabel
}

// Clone returns a deep copy so the caller can keep mutating its tables.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Persons:       make([]Person, len(s.Persons)),
		Opportunities: make([]Opportunity, len(s.Opportunities)),
		Events:        slices.Clone(s.Events),
		Labels:        slices.Clone(s.Labels),
	}
	for i := range s.Persons {
		p := s.Persons[i]
		p.Skills = slices.Clone(p.Skills)
		out.Persons[i] = p
	}
	for i := range s.Opportunities {
		o := s.Opportunities[i]
		o.RequiredSkills = slices.Clone(o.RequiredSkills)
		out.Opportunities[i] = o
	}
	return out
}

// PersonIndex maps person id to row. Later duplicates are ignored.
func (s *Snapshot) PersonIndex() map[string]int {
	idx := make(map[string]int, len(s.Persons))
	for i := range s.Persons {
		if _, ok := idx[s.Persons[i].ID]; !ok {
			idx[s.Persons[i].ID] = i
		}
	}
	return idx
}

// OpportunityIndex maps opportunity id to column. Later duplicates are ignored.
func (s *Snapshot) OpportunityIndex() map[string]int {
	idx := make(map[string]int, len(s.Opportunities))
	for i := range s.Opportunities {
		if _, ok := idx[s.Opportunities[i].ID]; !ok {
			idx[s.Opportunities[i].ID] = i
		}
	}
	return idx
}

// Empty reports whether there is nothing to rank.
func (s *Snapshot) Empty() bool {
	return len(s.Persons) == 0 || len(s.Opportunities) == 0
}

// Fingerprint is a deterministic 64-bit digest of every table. Two
// snapshots with the same fingerprint produce the same rankings.
func (s *Snapshot) Fingerprint() uint64 {
	d := xxhash.New()
	w := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.Write([]byte{0})
		}
	}
	f := func(v float64) string {
		return strconv.FormatUint(math.Float64bits(v), 16)
	}
	for i := range s.Persons {
		p := &s.Persons[i]
		w("p", p.ID, f(p.AcademicScore), p.Stream, p.Institution, p.Tier, p.Locale, p.Gender, p.Interests, p.PreferredLocation)
		w(p.Skills...)
	}
	for i := range s.Opportunities {
		o := &s.Opportunities[i]
		w("o", o.ID, o.Title, o.Company, o.Domain, o.Location, f(o.Stipend), o.Duration, o.Description, o.Locale, o.TierFocus, o.GenderFocus)
		w(o.RequiredSkills...)
	}
	for i := range s.Events {
		e := &s.Events[i]
		w("e", e.PersonID, e.OpportunityID, string(e.Type))
	}
	for i := range s.Labels {
		l := &s.Labels[i]
		w("l", l.PersonID, l.OpportunityID, l.Status)
	}
	return d.Sum64()
}
