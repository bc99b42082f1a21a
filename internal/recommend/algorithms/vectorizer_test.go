// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package algorithms

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/tomtom215/internrank/internal/recommend"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Python, SQL & Docker!", "python sql docker"},
		{"  machine-learning   (ML) ", "machine learning ml"},
		{"", ""},
		{"C++/C#", "c c"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	got := Tokenize("We are looking for a Python developer with R and the SQL skills")
	want := []string{"looking", "python", "developer", "sql", "skills"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTermCountsIncludesBigrams(t *testing.T) {
	counts := termCounts("machine learning, machine learning engineer")
	if counts["machine learning"] != 2 {
		t.Errorf("bigram count = %d, want 2", counts["machine learning"])
	}
	if counts["learning machine"] != 1 {
		t.Errorf("bigram across comma = %d, want 1", counts["learning machine"])
	}
	if counts["engineer"] != 1 {
		t.Errorf("unigram count = %d, want 1", counts["engineer"])
	}
}

func TestVectorizerFitTransform(t *testing.T) {
	docs := []string{
		"python sql data analysis",
		"javascript react frontend",
		"python machine learning",
		"",
	}
	v := NewTFIDFVectorizer(recommend.VectorizerConfig{MaxFeatures: 1000, MaxDocFreq: 1})
	m, err := v.FitTransform(context.Background(), docs)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	if m.Rows() != len(docs) {
		t.Fatalf("Rows() = %d, want %d", m.Rows(), len(docs))
	}
	if !slices.IsSorted(m.Terms) {
		t.Error("vocabulary is not sorted")
	}
	if !slices.Contains(m.Terms, "machine learning") {
		t.Error("vocabulary missing bigram \"machine learning\"")
	}

	for i := 0; i < 3; i++ {
		var norm float64
		for _, x := range m.Row(i) {
			norm += x * x
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("row %d squared norm = %v, want 1", i, norm)
		}
	}
	for j, x := range m.Row(3) {
		if x != 0 {
			t.Fatalf("empty document has weight %v at %q", x, m.Terms[j])
		}
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	docs := []string{"alpha beta gamma delta", "alpha beta", "alpha epsilon"}
	v := NewTFIDFVectorizer(recommend.VectorizerConfig{MaxFeatures: 2, MaxDocFreq: 1})
	if err := v.Fit(context.Background(), docs); err != nil {
		t.Fatal(err)
	}
	got := v.Vocabulary()
	want := []string{"alpha", "alpha beta"}
	if !slices.Equal(got, want) {
		t.Errorf("Vocabulary() = %v, want %v", got, want)
	}
}

func TestVectorizerMaxDocFreqSkippedWhenEverythingPruned(t *testing.T) {
	v := NewTFIDFVectorizer(recommend.VectorizerConfig{MaxFeatures: 10, MaxDocFreq: 0.5})
	if err := v.Fit(context.Background(), []string{"intern", "intern"}); err != nil {
		t.Fatal(err)
	}
	if got := v.Vocabulary(); !slices.Equal(got, []string{"intern"}) {
		t.Errorf("Vocabulary() = %v, want [intern]", got)
	}
}

func TestVectorizerProjectionIsDeterministic(t *testing.T) {
	opps := testOpportunities()
	docs := make([]string, len(opps))
	for i := range opps {
		docs[i] = OpportunityDocument(&opps[i])
	}
	persons := testPersons()
	pdocs := make([]string, len(persons))
	for i := range persons {
		pdocs[i] = PersonDocument(&persons[i])
	}

	build := func() *TermMatrix {
		v := NewTFIDFVectorizer(recommend.DefaultConfig().Vectorizer)
		if err := v.Fit(context.Background(), docs); err != nil {
			t.Fatal(err)
		}
		return v.Transform(pdocs)
	}
	a, b := build(), build()
	if !slices.Equal(a.Terms, b.Terms) {
		t.Fatal("vocabulary differs between runs")
	}
	for i := 0; i < a.Rows(); i++ {
		if !slices.Equal(a.Row(i), b.Row(i)) {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestVectorizerTransformRepeatsBitForBit(t *testing.T) {
	docs := []string{
		"python sql machine learning data pipelines cloud analytics",
		"java spring microservices kubernetes docker cloud",
		"react typescript frontend design accessibility testing",
		"statistics regression forecasting python visualization",
	}
	v := NewTFIDFVectorizer(recommend.DefaultConfig().Vectorizer)
	if err := v.Fit(context.Background(), docs); err != nil {
		t.Fatal(err)
	}

	query := []string{"python sql cloud docker react statistics regression testing design kubernetes analytics forecasting"}
	want := v.Transform(query).Row(0)
	var sq float64
	for _, w := range want {
		sq += w * w
	}
	if math.Abs(sq-1) > 1e-12 {
		t.Fatalf("row norm^2 = %v, want 1", sq)
	}
	for run := 0; run < 200; run++ {
		got := v.Transform(query).Row(0)
		for j := range want {
			if math.Float64bits(got[j]) != math.Float64bits(want[j]) {
				t.Fatalf("run %d: column %d = %v, want %v", run, j, got[j], want[j])
			}
		}
	}
}

func TestDocumentsSkipMissingText(t *testing.T) {
	o := recommend.Opportunity{Title: "Intern", Domain: "nan", Description: "  "}
	if got := OpportunityDocument(&o); got != "Intern" {
		t.Errorf("OpportunityDocument = %q, want %q", got, "Intern")
	}
	p := recommend.Person{Skills: []string{"go"}, Interests: "backend"}
	if got := PersonDocument(&p); got != "go go backend" {
		t.Errorf("PersonDocument = %q, want %q", got, "go go backend")
	}
}
