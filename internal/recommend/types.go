// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package recommend

import (
	"math"
	"strings"
	"time"
)

// EventType classifies a person-opportunity interaction for implicit feedback.
type EventType string

const (
	// EventView indicates the person opened the opportunity listing.
	EventView EventType = "view"
	// EventClick indicates the person clicked through to details.
	EventClick EventType = "click"
	// EventSave indicates the person bookmarked the opportunity.
	EventSave EventType = "save"
	// EventApply indicates the person submitted an application.
	EventApply EventType = "apply"
)

// DefaultEventWeight is the implicit weight of event types outside the known set.
const DefaultEventWeight = 1.0

// Weight returns the implicit feedback weight for this event type.
// Higher values indicate stronger intent.
func (t EventType) Weight() float64 {
	switch t {
	case EventApply:
		return 5.0
	case EventSave:
		return 3.0
	case EventClick:
		return 2.0
	case EventView:
		return 1.0
	default:
		return DefaultEventWeight
	}
}

// Known reports whether the event type is one of view, click, save or apply.
func (t EventType) Known() bool {
	switch t {
	case EventView, EventClick, EventSave, EventApply:
		return true
	default:
		return false
	}
}

// ParseEventType normalizes a raw event type string.
func ParseEventType(s string) EventType {
	return EventType(strings.ToLower(strings.TrimSpace(s)))
}

// Person is a candidate (student) being ranked against opportunities.
// Persons are immutable once loaded into a Snapshot.
type Person struct {
	// ID is the unique person identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name,omitempty"`

	// Skills are normalized lowercase skill tokens.
	Skills []string `json:"skills"`

	// AcademicScore is the CGPA on a 10-point scale. NaN when unknown.
	AcademicScore float64 `json:"academic_score"`

	// Stream is the field of study (e.g. "Computer Science").
	Stream string `json:"stream,omitempty"`

	// Institution is the university or college name.
	Institution string `json:"institution,omitempty"`

	// Tier is the institution tier label ("Tier-1", "Tier-2", "Tier-3").
	Tier string `json:"tier,omitempty"`

	// Locale is the home locale, rural or urban.
	Locale string `json:"locale,omitempty"`

	// Gender is the self-reported gender.
	Gender string `json:"gender,omitempty"`

	// Interests is free text describing what the person wants to work on.
	Interests string `json:"interests,omitempty"`

	// PreferredLocation is the preferred work city.
	PreferredLocation string `json:"preferred_location,omitempty"`
}

// Opportunity is an internship listing.
// Opportunities are immutable once loaded into a Snapshot.
type Opportunity struct {
	// ID is the unique opportunity identifier.
	ID string `json:"id"`

	// Title is the listing title.
	Title string `json:"title"`

	// Company is the hiring organization.
	Company string `json:"company,omitempty"`

	// Domain is the category (e.g. "data science", "web development").
	Domain string `json:"domain"`

	// RequiredSkills are normalized lowercase skill tokens, in listing order.
	RequiredSkills []string `json:"required_skills"`

	// Location is the work city.
	Location string `json:"location,omitempty"`

	// Stipend is the monthly compensation. NaN when unknown.
	Stipend float64 `json:"stipend"`

	// Duration is the internship length label (e.g. "3 months").
	Duration string `json:"duration,omitempty"`

	// Description is the free-text listing body.
	Description string `json:"description,omitempty"`

	// Locale is the cohort this listing targets for locale quotas.
	// Derived from Location when empty.
	Locale string `json:"locale,omitempty"`

	// TierFocus is the institution-tier cohort this listing targets.
	TierFocus string `json:"tier_focus,omitempty"`

	// GenderFocus is the gender cohort this listing targets.
	GenderFocus string `json:"gender_focus,omitempty"`
}

// InteractionEvent is a single implicit-feedback event.
type InteractionEvent struct {
	PersonID      string    `json:"person_id"`
	OpportunityID string    `json:"opportunity_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// OutcomeLabel is a historical application outcome used to train the calibrator.
type OutcomeLabel struct {
	PersonID      string `json:"person_id"`
	OpportunityID string `json:"opportunity_id"`

	// Status is the raw selection status ("selected", "rejected", "pending", ...).
	Status string `json:"status"`
}

// StatusSelected is the only status that maps to a positive label.
const StatusSelected = "selected"

// Success returns 1 when the status marks a selection, 0 otherwise.
func (l OutcomeLabel) Success() int {
	if strings.EqualFold(strings.TrimSpace(l.Status), StatusSelected) {
		return 1
	}
	return 0
}

// PairKey identifies a (person, opportunity) pair.
type PairKey struct {
	PersonID      string `json:"person_id"`
	OpportunityID string `json:"opportunity_id"`
}

// PairScore accumulates scores for a (person, opportunity) pair as it flows
// through the pipeline stages. A pair may lack a content or collaborative
// signal (cold start); absent signals are stored as 0.0 and flagged.
type PairScore struct {
	PairKey

	// ContentScore is the content similarity stage output (0-1).
	ContentScore float64 `json:"content_score"`

	// CFScore is the collaborative filtering stage output (0-1).
	CFScore float64 `json:"cf_score"`

	// ContentNorm is ContentScore re-normalized across the blended set.
	ContentNorm float64 `json:"content_norm"`

	// CFNorm is CFScore re-normalized across the blended set.
	CFNorm float64 `json:"cf_norm"`

	// HybridScore is the weighted blend of ContentNorm and CFNorm.
	HybridScore float64 `json:"hybrid_score"`

	// SuccessProb is the calibrated probability of selection.
	SuccessProb float64 `json:"success_prob"`

	// HasContentScore is false when the content stage produced no score.
	HasContentScore bool `json:"has_content_score"`

	// HasCFScore is false when the collaborative stage produced no score.
	HasCFScore bool `json:"has_cf_score"`
}

// Breakdown explains how an entry's success probability was composed.
// FinalSuccessProb always equals the owning entry's SuccessProb.
type Breakdown struct {
	BaseModelProb      float64 `json:"base_model_prob"`
	ContentSignal      float64 `json:"content_signal"`
	CFSignal           float64 `json:"cf_signal"`
	FairnessAdjustment float64 `json:"fairness_adjustment"`
	DemandAdjustment   float64 `json:"demand_adjustment"`
	FinalSuccessProb   float64 `json:"final_success_prob"`
}

// SlateEntry is one ranked opportunity in a RecommendationSlate.
type SlateEntry struct {
	OpportunityID string  `json:"opportunity_id"`
	Rank          int     `json:"rank"`
	SuccessProb   float64 `json:"success_prob"`
	HybridScore   float64 `json:"hybrid_score"`
	ContentScore  float64 `json:"content_score"`
	CFScore       float64 `json:"cf_score"`

	// MissingSkills is required skills minus person skills, in listing order.
	MissingSkills []string `json:"missing_skills"`

	// FairnessBoosted is true when a constraint pass placed the entry.
	FairnessBoosted bool `json:"fairness_boosted"`

	Breakdown Breakdown `json:"breakdown"`
}

// ConstraintResult records how one fairness constraint fared for one slate.
type ConstraintResult struct {
	Attribute ProtectedAttribute `json:"attribute"`
	Cohort    string             `json:"cohort"`
	Quota     int                `json:"quota"`
	Selected  int                `json:"selected"`
	Available int                `json:"available"`
	Satisfied bool               `json:"satisfied"`
}

// Slate is the ordered recommendation list for one person.
// Ranks are contiguous from 1 and opportunity ids are unique.
type Slate struct {
	PersonID string       `json:"person_id"`
	K        int          `json:"k"`
	Entries  []SlateEntry `json:"entries"`

	// Constraints is the per-attribute outcome of the fairness passes.
	Constraints []ConstraintResult `json:"constraints,omitempty"`

	// Fallback is true when the slate is plain top-K by score because
	// fairness re-ranking failed, or empty because the caller timed out.
	Fallback bool `json:"fallback"`
}

// EmptySlate returns an explicit empty result for a person.
func EmptySlate(personID string, k int) Slate {
	return Slate{PersonID: personID, K: k, Entries: []SlateEntry{}, Fallback: true}
}

// BreakdownTolerance bounds |FinalSuccessProb - SuccessProb| for every entry.
const BreakdownTolerance = 1e-6

// Validate checks the slate invariants: length at most K, ranks 1..n,
// no duplicate opportunities, scores in [0,1] and consistent breakdowns.
func (s *Slate) Validate() error {
	if s.K > 0 && len(s.Entries) > s.K {
		return &SlateError{PersonID: s.PersonID, Reason: "more entries than slate size"}
	}
	seen := make(map[string]struct{}, len(s.Entries))
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Rank != i+1 {
			return &SlateError{PersonID: s.PersonID, Reason: "ranks are not contiguous"}
		}
		if _, dup := seen[e.OpportunityID]; dup {
			return &SlateError{PersonID: s.PersonID, Reason: "duplicate opportunity " + e.OpportunityID}
		}
		seen[e.OpportunityID] = struct{}{}
		for _, v := range [...]float64{e.SuccessProb, e.HybridScore, e.ContentScore, e.CFScore} {
			if !InUnitInterval(v) {
				return &SlateError{PersonID: s.PersonID, Reason: "score outside [0,1] for " + e.OpportunityID}
			}
		}
		if math.Abs(e.Breakdown.FinalSuccessProb-e.SuccessProb) > BreakdownTolerance {
			return &SlateError{PersonID: s.PersonID, Reason: "breakdown does not match success_prob for " + e.OpportunityID}
		}
	}
	return nil
}

// OpportunityIDs returns the slate's opportunity ids in rank order.
func (s *Slate) OpportunityIDs() []string {
	ids := make([]string, len(s.Entries))
	for i := range s.Entries {
		ids[i] = s.Entries[i].OpportunityID
	}
	return ids
}
