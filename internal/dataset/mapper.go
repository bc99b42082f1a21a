// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/internrank/internal/recommend"
)

// header maps lowercased column names to positions.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// get returns the first present column among names, trimmed.
func (h header) get(rec []string, names ...string) string {
	for _, n := range names {
		if i, ok := h[n]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

// require fails when none of the alternatives for each column exist.
func (h header) require(table string, cols ...[]string) error {
	for _, alts := range cols {
		found := false
		for _, a := range alts {
			if _, ok := h[a]; ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s missing column %q", recommend.ErrDataUnavailable, table, alts[0])
		}
	}
	return nil
}

// SplitSkills splits a skill list on commas, semicolons or pipes, lowercases
// and trims each token and drops empties and duplicates.
func SplitSkills(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// ParseScore parses a CGPA-like number. Unparseable input yields NaN.
func ParseScore(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ParseStipend parses amounts such as "15000", "₹15,000/month" or
// "Unpaid". Unparseable input yields NaN.
func ParseStipend(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return math.NaN()
	}
	if strings.Contains(s, "unpaid") {
		return 0
	}
	s = strings.NewReplacer("₹", "", "rs.", "", "inr", "", ",", "", "/month", "", "per month", "").Replace(s)
	return ParseScore(s)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, "YYYY-MM-DD HH:MM:SS" or a bare date.
// Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toPerson(h header, rec []string) recommend.Person {
	return recommend.Person{
		ID:                h.get(rec, "student_id", "id"),
		Name:              h.get(rec, "name"),
		Skills:            SplitSkills(h.get(rec, "skills")),
		AcademicScore:     ParseScore(h.get(rec, "cgpa", "academic_score")),
		Stream:            h.get(rec, "stream"),
		Institution:       h.get(rec, "university", "college"),
		Tier:              h.get(rec, "college_tier", "tier"),
		Locale:            h.get(rec, "rural_urban", "locale"),
		Gender:            h.get(rec, "gender"),
		Interests:         h.get(rec, "interests"),
		PreferredLocation: h.get(rec, "location", "preferred_location"),
	}
}

func toOpportunity(h header, rec []string) recommend.Opportunity {
	return recommend.Opportunity{
		ID:             h.get(rec, "internship_id", "id"),
		Title:          h.get(rec, "title"),
		Company:        h.get(rec, "company", "organization_name"),
		Domain:         h.get(rec, "domain"),
		RequiredSkills: SplitSkills(h.get(rec, "required_skills", "skills")),
		Location:       h.get(rec, "location"),
		Stipend:        ParseStipend(h.get(rec, "stipend")),
		Duration:       h.get(rec, "duration"),
		Description:    h.get(rec, "description"),
		Locale:         h.get(rec, "rural_urban", "locale"),
		TierFocus:      h.get(rec, "tier_focus"),
		GenderFocus:    h.get(rec, "gender_focus"),
	}
}

func toEvent(h header, rec []string) recommend.InteractionEvent {
	return recommend.InteractionEvent{
		PersonID:      h.get(rec, "student_id"),
		OpportunityID: h.get(rec, "internship_id"),
		Type:          recommend.ParseEventType(h.get(rec, "interaction_type", "type")),
		Timestamp:     ParseTimestamp(h.get(rec, "timestamp")),
	}
}

func toLabel(h header, rec []string) recommend.OutcomeLabel {
	return recommend.OutcomeLabel{
		PersonID:      h.get(rec, "student_id"),
		OpportunityID: h.get(rec, "internship_id"),
		Status:        h.get(rec, "application_status", "status", "outcome_label"),
	}
}
