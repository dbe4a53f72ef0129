package topics

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
)

// ErrNoJSONArray is returned when a model response contains no JSON array.
var ErrNoJSONArray = errors.New("no JSON array in model response")

// Generator produces text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// AISource asks a generative model for topics.
type AISource struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewAISource(generator Generator, log *zap.Logger, maxLogLength int) *AISource {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &AISource{
		generator: generator,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

func (s *AISource) Name() string { return "ai" }

func (s *AISource) Extract(ctx context.Context, p Posting) ([]Candidate, error) {
	prompt := buildPrompt(p)

	s.logger.Debug("topic extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("topic extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseCandidates(raw)
}

func buildPrompt(p Posting) string {
	r := strings.NewReplacer(
		"{{TITLE}}", strings.TrimSpace(p.Title),
		"{{DESCRIPTION}}", strings.TrimSpace(p.Description),
		"{{REQUIREMENTS}}", strings.TrimSpace(p.Requirements),
	)
	return r.Replace(promptTemplate)
}

func parseCandidates(raw string) ([]Candidate, error) {
	payload, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("parse topic response: %w", err)
	}

	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		score := coerceFloat(firstPresent(item, "relevance_score", "relevance", "score"))
		if math.IsNaN(score) {
			continue
		}
		out = append(out, Candidate{
			Name:          coerceString(item["name"]),
			Category:      NormalizeCategory(coerceString(item["category"])),
			Relevance:     score,
			Justification: coerceString(item["justification"]),
		})
	}
	return Finalize(out), nil
}

// extractJSONArray finds the JSON array in a model response. It tries the
// whole response, then a fenced code block, then the first balanced [...]
// substring.
func extractJSONArray(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if isJSONArray(raw) {
		return raw, nil
	}

	if fenced, ok := fencedBlock(raw); ok && isJSONArray(fenced) {
		return fenced, nil
	}

	for start := strings.IndexByte(raw, '['); start >= 0; {
		if end := balancedEnd(raw, start); end > start {
			if candidate := raw[start : end+1]; isJSONArray(candidate) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(raw[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return "", ErrNoJSONArray
}

func isJSONArray(s string) bool {
	return strings.HasPrefix(s, "[") && json.Valid([]byte(s))
}

func fencedBlock(raw string) (string, bool) {
	open := strings.Index(raw, "```")
	if open < 0 {
		return "", false
	}
	body := raw[open+3:]
	// Skip the info string, e.g. ```json.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "[{") {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// balancedEnd returns the index of the ']' closing the '[' at start, skipping
// brackets inside JSON strings, or -1.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
