package topics

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestKeywordSourceScoring(t *testing.T) {
	got, err := KeywordSource{}.Extract(context.Background(), Posting{
		Title:       "Python Backend Intern",
		Description: "We need Python and Django experience",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Candidate{
		{Name: "Python", Category: CategoryLanguage, Relevance: 0.8, Justification: "keyword match"},
		{Name: "Django", Category: CategoryFramework, Relevance: 0.5, Justification: "keyword match"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d topics, got %+v", len(want), got)
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Category != want[i].Category {
			t.Fatalf("topic %d: expected %+v, got %+v", i, want[i], got[i])
		}
		if diff := got[i].Relevance - want[i].Relevance; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("topic %d: expected relevance %v, got %v", i, want[i].Relevance, got[i].Relevance)
		}
	}
}

func TestKeywordSourceDomainPhrases(t *testing.T) {
	got, _ := KeywordSource{}.Extract(context.Background(), Posting{
		Title:        "Machine Learning Intern",
		Description:  "Join our machine learning team.",
		Requirements: "Interest in data science.",
	})

	scores := map[string]float64{}
	for _, c := range got {
		scores[c.Name] = c.Relevance
		if c.Category != CategoryDomain {
			t.Fatalf("expected domain category for %q, got %q", c.Name, c.Category)
		}
	}
	if scores["Machine Learning"] != domainInTitleScore {
		t.Fatalf("expected title domain score, got %v", scores["Machine Learning"])
	}
	if scores["Data Science"] != domainScore {
		t.Fatalf("expected body domain score, got %v", scores["Data Science"])
	}
}

func TestKeywordSourceWholeWords(t *testing.T) {
	got, _ := KeywordSource{}.Extract(context.Background(), Posting{
		Description: "JavaScript and Golang. Some C++ too; ASP-style scripting, gitlab.",
	})

	names := map[string]bool{}
	for _, c := range got {
		names[c.Name] = true
	}
	for _, expected := range []string{"JavaScript", "Go", "C++"} {
		if !names[expected] {
			t.Fatalf("expected %s to be matched, got %+v", expected, got)
		}
	}
	for _, unexpected := range []string{"Java", "Git"} {
		if names[unexpected] {
			t.Fatalf("did not expect %s to be matched", unexpected)
		}
	}
}

func TestKeywordSourceRepeatedMentionsCap(t *testing.T) {
	got, _ := KeywordSource{}.Extract(context.Background(), Posting{
		Title:       "Rust",
		Description: strings.Repeat("rust ", 20),
	})
	if len(got) != 1 || got[0].Relevance != 1 {
		t.Fatalf("expected a single capped score, got %+v", got)
	}
}

func TestKeywordSourceCapAndThreshold(t *testing.T) {
	description := "Python Java JavaScript TypeScript Rust Ruby PHP Swift Kotlin Scala SQL Dart React Angular Docker"
	got, _ := KeywordSource{}.Extract(context.Background(), Posting{Description: description})

	if len(got) != MaxTopics {
		t.Fatalf("expected %d topics, got %d", MaxTopics, len(got))
	}
	for i, c := range got {
		if c.Relevance < MinRelevance {
			t.Fatalf("topic %q under threshold", c.Name)
		}
		if i > 0 && got[i-1].Relevance < c.Relevance {
			t.Fatalf("topics not sorted by relevance")
		}
	}
}

func TestKeywordSourceDeterministic(t *testing.T) {
	p := Posting{
		Title:        "Full-stack intern",
		Description:  "React, Node.js, PostgreSQL and Docker. Web development with agile teams.",
		Requirements: "Git, communication, TypeScript",
	}

	first, _ := KeywordSource{}.Extract(context.Background(), p)
	for range 5 {
		again, _ := KeywordSource{}.Extract(context.Background(), p)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical results, got %+v and %+v", first, again)
		}
	}
}

func TestKeywordSourceNoMatches(t *testing.T) {
	got, err := KeywordSource{}.Extract(context.Background(), Posting{Title: "Barista", Description: "Make coffee."})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %+v, %v", got, err)
	}
}

func TestKeywordSourceOverlappingSpellings(t *testing.T) {
	tests := []struct {
		name      string
		posting   Posting
		topic     string
		relevance float64
	}{
		{name: "dotted name counts once", posting: Posting{Description: "Frontend work in Vue.js."}, topic: "Vue", relevance: 0.5},
		{name: "two separate mentions", posting: Posting{Description: "Vue.js today, plain vue tomorrow."}, topic: "Vue", relevance: 0.6},
		{name: "phrase and its prefix", posting: Posting{Title: "UI/UX Design Intern"}, topic: "UI/UX Design", relevance: domainInTitleScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := KeywordSource{}.Extract(context.Background(), tt.posting)
			for _, c := range got {
				if c.Name != tt.topic {
					continue
				}
				if diff := c.Relevance - tt.relevance; diff > 1e-9 || diff < -1e-9 {
					t.Fatalf("expected relevance %v, got %v", tt.relevance, c.Relevance)
				}
				return
			}
			t.Fatalf("expected %s in %+v", tt.topic, got)
		})
	}
}

func TestCountTermSpans(t *testing.T) {
	vue := term{name: "Vue", match: []string{"vue", "vue.js"}}
	if got := countTerm("vue.js and vue.js", vue); got != 2 {
		t.Fatalf("expected 2 mentions, got %d", got)
	}
	if got := countTerm("vuex only", vue); got != 0 {
		t.Fatalf("expected no mention inside a longer word, got %d", got)
	}
}
