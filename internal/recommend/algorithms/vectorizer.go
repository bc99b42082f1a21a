// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/internrank/internal/recommend"
)

// TermMatrix is a row-per-document TF-IDF matrix over a fixed vocabulary.
// Rows are L2-normalized; empty documents are all-zero rows.
type TermMatrix struct {
	// Terms is the vocabulary in column order.
	Terms []string

	// Data is nil when there are no rows or no terms.
	Data *mat.Dense

	rows int
}

// Rows returns the number of documents.
func (m *TermMatrix) Rows() int { return m.rows }

// Cols returns the vocabulary size.
func (m *TermMatrix) Cols() int { return len(m.Terms) }

// Row returns a copy of row i.
func (m *TermMatrix) Row(i int) []float64 {
	out := make([]float64, len(m.Terms))
	if m.Data != nil {
		mat.Row(out, i, m.Data)
	}
	return out
}

// TFIDFVectorizer builds a shared weighted term vocabulary.
//
// Text is lowercased, punctuation except commas is stripped, tokens are
// runs of at least two word characters, English stop words are removed,
// and unigrams plus bigrams are counted. Weights are sublinear term
// frequency (1 + ln tf) times smooth idf (ln((1+n)/(1+df)) + 1).
//
// The vocabulary is fit once (on opportunities); any other corpus
// (persons) is projected onto it with Transform so the two matrices are
// directly comparable.
type TFIDFVectorizer struct {
	BaseAlgorithm
	cfg recommend.VectorizerConfig

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewTFIDFVectorizer creates an unfitted vectorizer.
func NewTFIDFVectorizer(cfg recommend.VectorizerConfig) *TFIDFVectorizer {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 1000
	}
	if cfg.MaxDocFreq <= 0 || cfg.MaxDocFreq > 1 {
		cfg.MaxDocFreq = 0.95
	}
	return &TFIDFVectorizer{
		BaseAlgorithm: NewBaseAlgorithm("tfidf"),
		cfg:           cfg,
		vocab:         make(map[string]int),
	}
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TFIDFVectorizer) Fit(ctx context.Context, docs []string) error {
	v.acquireTrainLock()
	defer v.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	total := make(map[string]int)
	for i, doc := range docs {
		counts[i] = termCounts(doc)
		for term, c := range counts[i] {
			df[term]++
			total[term] += c
		}
	}

	n := len(docs)
	candidates := make([]string, 0, len(df))
	maxDF := v.cfg.MaxDocFreq * float64(n)
	for term, d := range df {
		if float64(d) <= maxDF {
			candidates = append(candidates, term)
		}
	}
	// Pruning every term would leave nothing to compare; keep them all.
	if len(candidates) == 0 {
		for term := range df {
			candidates = append(candidates, term)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := total[candidates[i]], total[candidates[j]]
		if ci != cj {
			return ci > cj
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > v.cfg.MaxFeatures {
		candidates = candidates[:v.cfg.MaxFeatures]
	}
	sort.Strings(candidates)

	v.terms = candidates
	v.vocab = make(map[string]int, len(candidates))
	v.idf = make([]float64, len(candidates))
	for i, term := range candidates {
		v.vocab[term] = i
		v.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	v.markTrained()
	return nil
}

// Vocabulary returns a copy of the fitted terms in column order.
func (v *TFIDFVectorizer) Vocabulary() []string {
	v.acquirePredictLock()
	defer v.releasePredictLock()
	return append([]string(nil), v.terms...)
}

// Transform projects docs onto the fitted vocabulary.
func (v *TFIDFVectorizer) Transform(docs []string) *TermMatrix {
	v.acquirePredictLock()
	defer v.releasePredictLock()

	out := &TermMatrix{Terms: v.terms, rows: len(docs)}
	if len(docs) == 0 || len(v.terms) == 0 {
		return out
	}

	data := mat.NewDense(len(docs), len(v.terms), nil)
	row := make([]float64, len(v.terms))
	for i, doc := range docs {
		clear(row)
		for term, c := range termCounts(doc) {
			j, ok := v.vocab[term]
			if !ok {
				continue
			}
			row[j] = (1 + math.Log(float64(c))) * v.idf[j]
		}
		// Summed in column order; map order would perturb the rounding.
		if norm := floats.Norm(row, 2); norm > 0 {
			for j := range row {
				row[j] /= norm
			}
		}
		data.SetRow(i, row)
	}
	out.Data = data
	return out
}

// FitTransform fits on docs and returns their matrix.
func (v *TFIDFVectorizer) FitTransform(ctx context.Context, docs []string) (*TermMatrix, error) {
	if err := v.Fit(ctx, docs); err != nil {
		return nil, err
	}
	return v.Transform(docs), nil
}

// OpportunityDocument joins the text fields of an opportunity. The domain
// is repeated to up-weight it.
func OpportunityDocument(o *recommend.Opportunity) string {
	return joinText(
		o.Description,
		strings.Join(o.RequiredSkills, ", "),
		o.Domain,
		o.Domain,
		o.Title,
	)
}

// PersonDocument joins the text fields of a person. Skills are repeated
// to up-weight them.
func PersonDocument(p *recommend.Person) string {
	skills := strings.Join(p.Skills, ", ")
	return joinText(skills, skills, p.Interests, p.Institution, p.Tier, p.PreferredLocation)
}

func joinText(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "nan") {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Preprocess lowercases text, replaces everything that is not a word
// character, whitespace or comma with a space, turns commas into spaces
// and collapses whitespace.
func Preprocess(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case isWordRune(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the stop-word-filtered unigram tokens of text.
func Tokenize(text string) []string {
	fields := strings.Fields(Preprocess(text))
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// termCounts counts unigrams and bigrams of the filtered token stream.
func termCounts(text string) map[string]int {
	tokens := Tokenize(text)
	counts := make(map[string]int, 2*len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	return counts
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// VocabularyStats summarizes a fitted vectorizer for diagnostics.
type VocabularyStats struct {
	Terms   int `json:"terms"`
	Bigrams int `json:"bigrams"`
}

// Stats reports vocabulary size and bigram count.
func (v *TFIDFVectorizer) Stats() VocabularyStats {
	v.acquirePredictLock()
	defer v.releasePredictLock()
	s := VocabularyStats{Terms: len(v.terms)}
	for _, t := range v.terms {
		if strings.Contains(t, " ") {
			s.Bigrams++
		}
	}
	return s
}

// String implements fmt.Stringer for log fields.
func (s VocabularyStats) String() string {
	return strconv.Itoa(s.Terms) + " terms (" + strconv.Itoa(s.Bigrams) + " bigrams)"
}
