// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"math"
	"testing"

	"github.com/tomtom215/internrank/internal/recommend"
)

func testPersons() []recommend.Person {
	return []recommend.Person{
		{ID: "P1", Skills: []string{"python", "sql"}, AcademicScore: 8.7, Tier: "Tier-2", Locale: "rural",
			Interests: "data science and analytics", PreferredLocation: "Bangalore"},
		{ID: "P2", Skills: []string{"javascript", "react", "css"}, AcademicScore: 7.1, Tier: "Tier-1", Locale: "urban",
			Interests: "web development", PreferredLocation: "Mumbai"},
		{ID: "P3", Skills: []string{"photoshop", "figma"}, AcademicScore: math.NaN(), Tier: "Tier-3", Locale: "urban",
			Interests: "graphic design", PreferredLocation: "Delhi"},
	}
}

func testOpportunities() []recommend.Opportunity {
	return []recommend.Opportunity{
		{ID: "O1", Title: "Data Analyst Intern", Domain: "data science", RequiredSkills: []string{"python", "sql"},
			Location: "Bangalore", Stipend: 25000, Description: "Analyze datasets and build dashboards."},
		{ID: "O2", Title: "Frontend Intern", Domain: "web development", RequiredSkills: []string{"javascript", "react"},
			Location: "Mumbai", Stipend: 15000, Description: "Build responsive user interfaces."},
		{ID: "O3", Title: "Design Intern", Domain: "graphic design", RequiredSkills: []string{"figma", "illustrator"},
			Location: "Delhi", Stipend: 8000, Description: "Create marketing creatives."},
		{ID: "O4", Title: "Backend Intern", Domain: "software engineering", RequiredSkills: []string{"go", "postgres"},
			Location: "Pune", Stipend: math.NaN(), Description: "Write services and APIs."},
	}
}

func ids[T any](xs []T, id func(*T) string) []string {
	out := make([]string, len(xs))
	for i := range xs {
		out[i] = id(&xs[i])
	}
	return out
}

func personIDs(ps []recommend.Person) []string {
	return ids(ps, func(p *recommend.Person) string { return p.ID })
}

func oppIDs(os []recommend.Opportunity) []string {
	return ids(os, func(o *recommend.Opportunity) string { return o.ID })
}

func assertUnit(t *testing.T, name string, tbl *ScoreTable) {
	t.Helper()
	tbl.Range(func(p, o int, v float64) {
		if !recommend.InUnitInterval(v) {
			t.Errorf("%s[%d,%d] = %v, want in [0,1]", name, p, o, v)
		}
	})
}
