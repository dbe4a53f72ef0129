package topics

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type term struct {
	name     string
	category string
	// match lists the lower-case spellings counted for this term. Empty means
	// the lower-cased name.
	match []string
}

func (t term) spellings() []string {
	if len(t.match) > 0 {
		return t.match
	}
	return []string{strings.ToLower(t.name)}
}

var keywordTerms = []term{
	{name: "Python", category: CategoryLanguage},
	{name: "Java", category: CategoryLanguage},
	{name: "JavaScript", category: CategoryLanguage},
	{name: "TypeScript", category: CategoryLanguage},
	{name: "Go", category: CategoryLanguage, match: []string{"golang"}},
	{name: "Rust", category: CategoryLanguage},
	{name: "C++", category: CategoryLanguage},
	{name: "C#", category: CategoryLanguage},
	{name: "Ruby", category: CategoryLanguage},
	{name: "PHP", category: CategoryLanguage},
	{name: "Swift", category: CategoryLanguage},
	{name: "Kotlin", category: CategoryLanguage},
	{name: "Scala", category: CategoryLanguage},
	{name: "SQL", category: CategoryLanguage},
	{name: "Dart", category: CategoryLanguage},

	{name: "React", category: CategoryFramework},
	{name: "Angular", category: CategoryFramework},
	{name: "Vue", category: CategoryFramework, match: []string{"vue", "vue.js"}},
	{name: "Next.js", category: CategoryFramework},
	{name: "Node.js", category: CategoryFramework, match: []string{"node.js", "nodejs"}},
	{name: "Express", category: CategoryFramework},
	{name: "Django", category: CategoryFramework},
	{name: "Flask", category: CategoryFramework},
	{name: "FastAPI", category: CategoryFramework},
	{name: "Spring", category: CategoryFramework},
	{name: "Rails", category: CategoryFramework},
	{name: "Laravel", category: CategoryFramework},
	{name: ".NET", category: CategoryFramework},
	{name: "Flutter", category: CategoryFramework},
	{name: "TensorFlow", category: CategoryFramework},
	{name: "PyTorch", category: CategoryFramework},

	{name: "Docker", category: CategoryTool},
	{name: "Kubernetes", category: CategoryTool, match: []string{"kubernetes", "k8s"}},
	{name: "Git", category: CategoryTool},
	{name: "AWS", category: CategoryTool},
	{name: "Azure", category: CategoryTool},
	{name: "GCP", category: CategoryTool},
	{name: "PostgreSQL", category: CategoryTool, match: []string{"postgresql", "postgres"}},
	{name: "MySQL", category: CategoryTool},
	{name: "MongoDB", category: CategoryTool},
	{name: "Redis", category: CategoryTool},
	{name: "Terraform", category: CategoryTool},
	{name: "Jenkins", category: CategoryTool},
	{name: "Linux", category: CategoryTool},
	{name: "Figma", category: CategoryTool},

	{name: "Communication", category: CategorySkill},
	{name: "Leadership", category: CategorySkill},
	{name: "Teamwork", category: CategorySkill},
	{name: "Problem Solving", category: CategorySkill},
	{name: "Project Management", category: CategorySkill},
	{name: "Agile", category: CategorySkill},
}

var domainPhrases = []term{
	{name: "Machine Learning", category: CategoryDomain},
	{name: "Data Science", category: CategoryDomain},
	{name: "Web Development", category: CategoryDomain},
	{name: "Mobile Development", category: CategoryDomain},
	{name: "Cloud Computing", category: CategoryDomain},
	{name: "Cybersecurity", category: CategoryDomain},
	{name: "DevOps", category: CategoryDomain},
	{name: "Artificial Intelligence", category: CategoryDomain},
	{name: "Blockchain", category: CategoryDomain},
	{name: "Game Development", category: CategoryDomain},
	{name: "Data Engineering", category: CategoryDomain},
	{name: "UI/UX Design", category: CategoryDomain, match: []string{"ui/ux design", "ui/ux"}},
}

const (
	keywordBase        = 0.5
	keywordPerMention  = 0.1
	keywordTitleBoost  = 0.2
	domainInTitleScore = 0.8
	domainScore        = 0.6
)

// KeywordSource matches postings against fixed term lists. It never fails and
// never calls out, and identical input always yields identical output.
type KeywordSource struct{}

func (KeywordSource) Name() string { return "keyword" }

func (KeywordSource) Extract(_ context.Context, p Posting) ([]Candidate, error) {
	text := strings.ToLower(p.text())
	title := strings.ToLower(p.Title)

	var out []Candidate
	for _, t := range keywordTerms {
		count := countTerm(text, t)
		if count == 0 {
			continue
		}
		score := min(keywordBase+keywordPerMention*float64(count-1), 1)
		if countTerm(title, t) > 0 {
			score = min(score+keywordTitleBoost, 1)
		}
		out = append(out, Candidate{
			Name:          t.name,
			Category:      t.category,
			Relevance:     score,
			Justification: "keyword match",
		})
	}

	for _, t := range domainPhrases {
		if countTerm(text, t) == 0 {
			continue
		}
		score := domainScore
		if countTerm(title, t) > 0 {
			score = domainInTitleScore
		}
		out = append(out, Candidate{
			Name:          t.name,
			Category:      t.category,
			Relevance:     score,
			Justification: "domain phrase match",
		})
	}

	return Finalize(out), nil
}

// countTerm counts mentions of any spelling of t. Spellings that overlap in
// the text, such as "vue" inside "vue.js", count as one mention.
func countTerm(lowerText string, t term) int {
	var spans [][2]int
	for _, s := range t.spellings() {
		for _, span := range wholeWordSpans(lowerText, s) {
			if !slices.ContainsFunc(spans, func(o [2]int) bool { return span[0] < o[1] && o[0] < span[1] }) {
				spans = append(spans, span)
			}
		}
	}
	return len(spans)
}

// wholeWordSpans returns the byte ranges where word occurs in text without
// being part of a longer word. Letters, digits, '+' and '#' count as word
// characters so that "c" never matches inside "c++".
func wholeWordSpans(text, word string) [][2]int {
	if word == "" {
		return nil
	}
	var spans [][2]int
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			spans = append(spans, [2]int{start, end})
			offset = end
			continue
		}
		offset = start + 1
	}
	return spans
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}
