// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tomtom215/internrank/internal/recommend"
)

// SyntheticConfig sizes the generated sample.
type SyntheticConfig struct {
	Persons         int   `validate:"gte=10"`
	Opportunities   int   `validate:"gte=5"`
	EventsPerPerson int   `validate:"gte=0"`
	LabelsPerPerson int   `validate:"gte=1"`
	Seed            int64 `validate:"-"`
}

// DefaultSyntheticConfig returns a sample large enough to train the
// calibrator with both outcome classes.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Persons:         200,
		Opportunities:   60,
		EventsPerPerson: 6,
		LabelsPerPerson: 4,
		Seed:            42,
	}
}

type domainSpec struct {
	name   string
	skills []string
	titles []string
}

var domains = []domainSpec{
	{"data science", []string{"python", "sql", "machine learning", "statistics", "pandas"}, []string{"Data Science Intern", "ML Research Intern"}},
	{"web development", []string{"javascript", "react", "html", "css", "node.js"}, []string{"Frontend Intern", "Full Stack Intern"}},
	{"marketing", []string{"communication", "seo", "content writing", "excel", "social media"}, []string{"Digital Marketing Intern", "Growth Intern"}},
	{"finance", []string{"excel", "accounting", "financial modeling", "sql", "statistics"}, []string{"Finance Intern", "Equity Research Intern"}},
	{"design", []string{"figma", "ui design", "illustrator", "prototyping", "communication"}, []string{"Product Design Intern", "UX Intern"}},
	{"cloud computing", []string{"aws", "docker", "linux", "python", "kubernetes"}, []string{"Cloud Engineering Intern", "DevOps Intern"}},
}

var (
	cities      = []string{"Bangalore", "Delhi", "Mumbai", "Pune", "Hyderabad", "Chennai", "Jaipur", "Lucknow"}
	ruralSites  = []string{"Rural Karnataka", "Rural Maharashtra", "Rural Uttar Pradesh"}
	streams     = []string{"Computer Science", "Electronics", "Commerce", "Arts", "Mechanical"}
	durations   = []string{"2 months", "3 months", "6 months"}
	stipends    = []float64{0, 5000, 10000, 15000, 20000, 25000, 30000}
	eventTypes  = []recommend.EventType{recommend.EventView, recommend.EventView, recommend.EventView, recommend.EventClick, recommend.EventClick, recommend.EventSave, recommend.EventApply}
	lossStatus  = []string{"rejected", "rejected", "pending", "shortlisted"}
	syntheticT0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

// Synthetic generates a deterministic sample snapshot for cfg.Seed.
// Selection outcomes depend on skill overlap and academic score, so the
// calibrator has real signal to learn.
func Synthetic(cfg SyntheticConfig) *recommend.Snapshot {
	def := DefaultSyntheticConfig()
	if cfg.Persons < 10 {
		cfg.Persons = def.Persons
	}
	if cfg.Opportunities < 5 {
		cfg.Opportunities = def.Opportunities
	}
	if cfg.LabelsPerPerson < 1 {
		cfg.LabelsPerPerson = def.LabelsPerPerson
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x5851f42d4c957f2d))

	snap := &recommend.Snapshot{
		Opportunities: make([]recommend.Opportunity, cfg.Opportunities),
		Persons:       make([]recommend.Person, cfg.Persons),
	}
	oppDomain := make([]int, cfg.Opportunities)
	for i := range snap.Opportunities {
		d := i % len(domains)
		oppDomain[i] = d
		snap.Opportunities[i] = syntheticOpportunity(rng, i, &domains[d])
	}

	personDomain := make([]int, cfg.Persons)
	for i := range snap.Persons {
		d := rng.IntN(len(domains))
		personDomain[i] = d
		snap.Persons[i] = syntheticPerson(rng, i, &domains[d])
	}

	byDomain := make([][]int, len(domains))
	for o, d := range oppDomain {
		byDomain[d] = append(byDomain[d], o)
	}
	pickOpp := func(d int) int {
		// 70% of activity stays inside the person's interest domain.
		if rng.Float64() < 0.7 && len(byDomain[d]) > 0 {
			return byDomain[d][rng.IntN(len(byDomain[d]))]
		}
		return rng.IntN(cfg.Opportunities)
	}

	for p := range snap.Persons {
		for e := 0; e < cfg.EventsPerPerson; e++ {
			o := pickOpp(personDomain[p])
			snap.Events = append(snap.Events, recommend.InteractionEvent{
				PersonID:      snap.Persons[p].ID,
				OpportunityID: snap.Opportunities[o].ID,
				Type:          eventTypes[rng.IntN(len(eventTypes))],
				Timestamp:     syntheticT0.Add(time.Duration(rng.IntN(90*24)) * time.Hour),
			})
		}
		seen := make(map[int]struct{}, cfg.LabelsPerPerson)
		for l := 0; l < cfg.LabelsPerPerson; l++ {
			o := pickOpp(personDomain[p])
			if _, dup := seen[o]; dup {
				continue
			}
			seen[o] = struct{}{}
			snap.Labels = append(snap.Labels, recommend.OutcomeLabel{
				PersonID:      snap.Persons[p].ID,
				OpportunityID: snap.Opportunities[o].ID,
				Status:        syntheticStatus(rng, &snap.Persons[p], &snap.Opportunities[o]),
			})
		}
	}
	return snap
}

func syntheticOpportunity(rng *rand.Rand, i int, d *domainSpec) recommend.Opportunity {
	skills := pickN(rng, d.skills, 3)
	location := cities[rng.IntN(len(cities))]
	if rng.Float64() < 0.25 {
		location = ruralSites[rng.IntN(len(ruralSites))]
	}
	o := recommend.Opportunity{
		ID:             fmt.Sprintf("INT%04d", i+1),
		Title:          d.titles[rng.IntN(len(d.titles))],
		Company:        fmt.Sprintf("Company %c", 'A'+rune(i%26)),
		Domain:         d.name,
		RequiredSkills: skills,
		Location:       location,
		Stipend:        stipends[rng.IntN(len(stipends))],
		Duration:       durations[rng.IntN(len(durations))],
		Description:    fmt.Sprintf("Work on %s projects using %s.", d.name, strings.Join(skills, ", ")),
	}
	if rng.Float64() < 0.4 {
		o.TierFocus = recommend.CohortTier23
	}
	if rng.Float64() < 0.2 {
		o.GenderFocus = recommend.CohortFemale
	}
	return o
}

func syntheticPerson(rng *rand.Rand, i int, d *domainSpec) recommend.Person {
	skills := pickN(rng, d.skills, 3)
	other := &domains[rng.IntN(len(domains))]
	skills = append(skills, other.skills[rng.IntN(len(other.skills))])

	tier := "Tier-3"
	switch r := rng.Float64(); {
	case r < 0.15:
		tier = "Tier-1"
	case r < 0.50:
		tier = "Tier-2"
	}
	locale := "urban"
	if rng.Float64() < 0.35 {
		locale = "rural"
	}
	gender := "male"
	if rng.Float64() < 0.35 {
		gender = "female"
	}
	return recommend.Person{
		ID:                fmt.Sprintf("STU%04d", i+1),
		Name:              fmt.Sprintf("Student %d", i+1),
		Skills:            dedupe(skills),
		AcademicScore:     math.Round((6+rng.Float64()*3.8)*100) / 100,
		Stream:            streams[rng.IntN(len(streams))],
		Institution:       fmt.Sprintf("University %d", rng.IntN(20)+1),
		Tier:              tier,
		Locale:            locale,
		Gender:            gender,
		Interests:         d.name,
		PreferredLocation: cities[rng.IntN(len(cities))],
	}
}

// syntheticStatus draws an outcome whose odds rise with skill coverage
// and academic score.
func syntheticStatus(rng *rand.Rand, p *recommend.Person, o *recommend.Opportunity) string {
	coverage := 0.0
	if n := len(o.RequiredSkills); n > 0 {
		coverage = 1 - float64(len(recommend.MissingSkills(o.RequiredSkills, p.Skills)))/float64(n)
	}
	z := -2.0 + 3.0*coverage + 0.6*(p.AcademicScore-7.5)
	if rng.Float64() < 1/(1+math.Exp(-z)) {
		return "selected"
	}
	return lossStatus[rng.IntN(len(lossStatus))]
}

func pickN(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = from[idx[i]]
	}
	return out
}

func dedupe(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := xs[:0]
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
