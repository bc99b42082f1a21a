// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/internrank/internal/recommend"
)

// stemKeywords mark interests adjacent to any technical domain.
var stemKeywords = []string{"engineering", "science", "technology"}

// Metadata feature values.
const (
	affinityExact    = 1.0
	affinityAdjacent = 0.7
	affinityNone     = 0.3
	equityBonus      = 0.2
)

// ContentScorer computes content similarity for every (person, opportunity)
// pair.
//
// The score of a pair is a blend of two independently min-max normalized
// signals:
//
//	content = w_cos * norm(cosine(person_tfidf, opportunity_tfidf)) +
//	          w_meta * norm(metadata)
//
// where metadata is a weighted sum of degree affinity, level alignment,
// location match, academic score and an equity bonus for non-Tier-1
// institutions. Cosine similarity is one dense matrix product over
// L2-normalized rows, clipped to [0, 1].
type ContentScorer struct {
	BaseAlgorithm
	cfg        recommend.ContentConfig
	vectorizer *TFIDFVectorizer

	opportunityTerms *TermMatrix
	personTerms      *TermMatrix
}

// NewContentScorer creates a scorer with its own vectorizer.
func NewContentScorer(cfg recommend.ContentConfig, vcfg recommend.VectorizerConfig) *ContentScorer {
	if cfg.CosineWeight == 0 && cfg.MetadataWeight == 0 {
		cfg.CosineWeight, cfg.MetadataWeight = 0.7, 0.3
	}
	if cfg.Metadata.Sum() == 0 {
		cfg.Metadata = recommend.DefaultConfig().Content.Metadata
	}
	return &ContentScorer{
		BaseAlgorithm: NewBaseAlgorithm("content"),
		cfg:           cfg,
		vectorizer:    NewTFIDFVectorizer(vcfg),
	}
}

// ContentResult is the content stage output.
type ContentResult struct {
	// Scores is the blended content score of every pair, in [0,1].
	Scores *ScoreTable

	// Cosine is the raw clipped cosine similarity of every pair.
	Cosine *ScoreTable

	// Metadata is the raw weighted metadata affinity of every pair.
	Metadata *ScoreTable

	// DegenerateCosine and DegenerateMetadata report a normalization
	// whose range collapsed to a single value (emitted as 0.5).
	DegenerateCosine   bool
	DegenerateMetadata bool

	// Vocabulary summarizes the fitted term space.
	Vocabulary VocabularyStats
}

// Score fits the shared vocabulary on opportunities, projects persons onto
// it and scores every pair.
func (c *ContentScorer) Score(ctx context.Context, persons []recommend.Person, opps []recommend.Opportunity) (*ContentResult, error) {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	oppDocs := make([]string, len(opps))
	for i := range opps {
		oppDocs[i] = OpportunityDocument(&opps[i])
	}
	personDocs := make([]string, len(persons))
	for i := range persons {
		personDocs[i] = PersonDocument(&persons[i])
	}

	oppTerms, err := c.vectorizer.FitTransform(ctx, oppDocs)
	if err != nil {
		return nil, err
	}
	personTerms := c.vectorizer.Transform(personDocs)
	c.opportunityTerms, c.personTerms = oppTerms, personTerms

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	personIDs := make([]string, len(persons))
	for i := range persons {
		personIDs[i] = persons[i].ID
	}
	oppIDs := make([]string, len(opps))
	for i := range opps {
		oppIDs[i] = opps[i].ID
	}

	cosine := cosineTable(personTerms, oppTerms, personIDs, oppIDs)
	meta := c.metadataTable(persons, opps, personIDs, oppIDs)

	cosNorm := cosine.clone()
	degCos := normalizeScores(cosNorm.values, cosNorm.present)
	metaNorm := meta.clone()
	degMeta := normalizeScores(metaNorm.values, metaNorm.present)

	scores := NewScoreTable(personIDs, oppIDs)
	wc, wm := c.cfg.CosineWeight, c.cfg.MetadataWeight
	for i := range scores.values {
		scores.values[i] = recommend.Clamp01(wc*cosNorm.values[i] + wm*metaNorm.values[i])
		scores.present[i] = true
	}
	scores.count = len(scores.values)

	c.markTrained()
	return &ContentResult{
		Scores:             scores,
		Cosine:             cosine,
		Metadata:           meta,
		DegenerateCosine:   degCos,
		DegenerateMetadata: degMeta,
		Vocabulary:         c.vectorizer.Stats(),
	}, nil
}

// cosineTable computes P * O^T over L2-normalized rows.
func cosineTable(persons, opps *TermMatrix, personIDs, oppIDs []string) *ScoreTable {
	t := NewScoreTable(personIDs, oppIDs)
	for i := range t.present {
		t.present[i] = true
	}
	t.count = len(t.present)
	if persons.Data == nil || opps.Data == nil {
		return t
	}

	product := mat.NewDense(persons.Rows(), opps.Rows(), nil)
	product.Mul(persons.Data, opps.Data.T())
	raw := product.RawMatrix()
	cols := len(oppIDs)
	for p := 0; p < persons.Rows(); p++ {
		row := raw.Data[p*raw.Stride : p*raw.Stride+cols]
		for o, v := range row {
			t.values[p*cols+o] = recommend.FillScore(v)
		}
	}
	return t
}

// personMeta and oppMeta hold the pre-lowered fields read by the metadata rules.
type personMeta struct {
	interests string
	location  string
	academic  float64
	nonTier1  bool
	stemAdj   bool
}

type oppMeta struct {
	domain   string
	location string
	stipend  float64
}

func (c *ContentScorer) metadataTable(persons []recommend.Person, opps []recommend.Opportunity, personIDs, oppIDs []string) *ScoreTable {
	pm := make([]personMeta, len(persons))
	for i := range persons {
		p := &persons[i]
		interests := strings.ToLower(p.Interests)
		stem := false
		for _, k := range stemKeywords {
			if strings.Contains(interests, k) {
				stem = true
				break
			}
		}
		pm[i] = personMeta{
			interests: interests,
			location:  strings.ToLower(strings.TrimSpace(p.PreferredLocation)),
			academic:  recommend.FillNumber(p.AcademicScore, 0),
			nonTier1:  strings.TrimSpace(p.Tier) != "" && !recommend.IsTier1(p.Tier),
			stemAdj:   stem,
		}
	}
	om := make([]oppMeta, len(opps))
	for i := range opps {
		o := &opps[i]
		om[i] = oppMeta{
			domain:   strings.ToLower(strings.TrimSpace(o.Domain)),
			location: strings.ToLower(strings.TrimSpace(o.Location)),
			stipend:  recommend.FillNumber(o.Stipend, 0),
		}
	}

	w := c.cfg.Metadata
	t := NewScoreTable(personIDs, oppIDs)
	for p := range pm {
		for o := range om {
			f := metadataFeatures(&pm[p], &om[o])
			t.Set(p, o, w.Degree*f.Degree+w.Level*f.Level+w.Location*f.Location+w.Academic*f.Academic+w.Equity*f.Equity)
		}
	}
	return t
}

// PairFeatures are the five bounded metadata features of one pair.
type PairFeatures struct {
	Degree   float64
	Level    float64
	Location float64
	Academic float64
	Equity   float64
}

// metadataFeatures evaluates the metadata rules for one pair.
func metadataFeatures(p *personMeta, o *oppMeta) PairFeatures {
	var f PairFeatures

	switch {
	case o.domain != "" && strings.Contains(p.interests, o.domain):
		f.Degree = affinityExact
	case p.stemAdj:
		f.Degree = affinityAdjacent
	default:
		f.Degree = affinityNone
	}

	switch {
	case p.academic >= 8.5 && o.stipend >= 20000:
		f.Level = 1.0
	case p.academic >= 7.5 && o.stipend >= 10000:
		f.Level = 0.8
	case p.academic >= 6.5:
		f.Level = 0.6
	default:
		f.Level = 0.4
	}

	f.Location = LocationMatch(p.location, o.location)
	f.Academic = recommend.Clamp01(p.academic / 10)
	if p.nonTier1 {
		f.Equity = equityBonus
	}
	return f
}

// LocationMatch returns 1.0 for an exact case-insensitive match, 0.7 when
// one contains the other and 0.3 otherwise. An empty location is missing
// data and never matches, not even another empty location.
func LocationMatch(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == "" || b == "":
		return affinityNone
	case a == b:
		return affinityExact
	case strings.Contains(a, b) || strings.Contains(b, a):
		return affinityAdjacent
	default:
		return affinityNone
	}
}

// PersonTerms returns the person term matrix from the last Score call.
func (c *ContentScorer) PersonTerms() *TermMatrix {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return c.personTerms
}

// OpportunityTerms returns the opportunity term matrix from the last Score call.
func (c *ContentScorer) OpportunityTerms() *TermMatrix {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	return c.opportunityTerms
}
