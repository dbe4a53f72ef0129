// Package topics derives taxonomy tags from internship postings.
package topics

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	CategoryLanguage  = "programming_language"
	CategoryFramework = "framework"
	CategoryDomain    = "domain"
	CategoryTool      = "tool"
	CategorySkill     = "skill"

	// MinRelevance is the lowest score a candidate can have and still be kept.
	MinRelevance = 0.4
	// MaxTopics caps the number of candidates per posting.
	MaxTopics = 10
)

// Posting is the free text a topic source reads.
type Posting struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

func (p Posting) text() string {
	return p.Title + "\n" + p.Description + "\n" + p.Requirements
}

type Candidate struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Relevance     float64 `json:"relevance_score"`
	Justification string  `json:"justification,omitempty"`
}

// Finalize applies the rules every source shares: clamp scores to [0,1], drop
// candidates under MinRelevance or without a name, keep the best score per
// case-insensitive name, sort by score then name, and cap at MaxTopics.
func Finalize(candidates []Candidate) []Candidate {
	best := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" || math.IsNaN(c.Relevance) {
			continue
		}
		c.Relevance = min(max(c.Relevance, 0), 1)
		if c.Relevance < MinRelevance {
			continue
		}
		key := strings.ToLower(c.Name)
		if prev, ok := best[key]; ok && prev.Relevance >= c.Relevance {
			continue
		}
		best[key] = c
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		if a.Relevance != b.Relevance {
			return cmp.Compare(b.Relevance, a.Relevance)
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	if len(out) > MaxTopics {
		out = out[:MaxTopics]
	}
	return out
}

// NormalizeCategory maps loosely written categories onto the known set.
// Anything unrecognised becomes CategorySkill.
func NormalizeCategory(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	switch key {
	case CategoryLanguage, "language", "programming_languages", "languages":
		return CategoryLanguage
	case CategoryFramework, "frameworks", "library", "libraries":
		return CategoryFramework
	case CategoryDomain, "domains", "field", "area":
		return CategoryDomain
	case CategoryTool, "tools", "platform", "technology", "database":
		return CategoryTool
	default:
		return CategorySkill
	}
}
