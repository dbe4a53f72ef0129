package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ImportReport counts the outcome of a bulk import.
type ImportReport struct {
	Created  int      `json:"created"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Failures []string `json:"failures,omitempty"`
}

// ParsePostingsTable reads internships from a Markdown table. The header row
// names the columns; "title" and "description" are required, "requirements"
// and "location" are optional. Rows with the wrong number of cells or no
// title are skipped and counted.
func ParsePostingsTable(r io.Reader) ([]InternshipInput, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		columns map[string]int
		width   int
		inputs  []InternshipInput
		skipped int
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		cells := splitRow(line)

		if columns == nil {
			columns = make(map[string]int, len(cells))
			for i, c := range cells {
				columns[strings.ToLower(c)] = i
			}
			if _, ok := columns["title"]; !ok {
				return nil, 0, fmt.Errorf("table header has no title column")
			}
			if _, ok := columns["description"]; !ok {
				return nil, 0, fmt.Errorf("table header has no description column")
			}
			width = len(cells)
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		if len(cells) != width {
			skipped++
			continue
		}

		cell := func(name string) string {
			if i, ok := columns[name]; ok {
				return cells[i]
			}
			return ""
		}
		in := InternshipInput{
			Title:        cell("title"),
			Description:  cell("description"),
			Requirements: cell("requirements"),
			Location:     cell("location"),
		}
		if in.Title == "" {
			skipped++
			continue
		}
		inputs = append(inputs, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read postings: %w", err)
	}
	if columns == nil {
		return nil, 0, fmt.Errorf("no Markdown table found")
	}
	return inputs, skipped, nil
}

func splitRow(line string) []string {
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|"), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, ":-") != "" {
			return false
		}
	}
	return true
}

// ImportInternships creates every posting for companyID, one after another,
// and keeps going past individual failures.
func (s *InternshipService) ImportInternships(ctx context.Context, companyID string, inputs []InternshipInput) ImportReport {
	var report ImportReport
	for i, in := range inputs {
		if ctx.Err() != nil {
			report.Failed += len(inputs) - i
			report.Failures = append(report.Failures, ctx.Err().Error())
			break
		}
		if _, err := s.CreateInternship(ctx, companyID, in); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", in.Title, err))
			s.log.Warn("import of posting failed", zap.String("title", in.Title), zap.Error(err))
			continue
		}
		report.Created++
	}
	return report
}
