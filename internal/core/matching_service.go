package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/store"
)

// Ranker scores candidates by embedding similarity.
type Ranker interface {
	RankStudents(ctx context.Context, internshipID string, limit int) ([]store.RankedID, error)
	RankInternships(ctx context.Context, studentID string, limit int) ([]store.RankedID, error)
}

// MatchingStore is the data MatchingService enriches rankings with.
type MatchingStore interface {
	ListApplicationsForInternship(ctx context.Context, internshipID string) ([]store.Application, error)
	ListApplicationsForStudent(ctx context.Context, studentID string) ([]store.Application, error)
	GetStudentsByIDs(ctx context.Context, ids []string) ([]store.Student, error)
	GetInternshipsByIDs(ctx context.Context, ids []string, openOnly bool) ([]store.Internship, error)
}

// CandidateMatch is an applicant with their similarity to the internship.
type CandidateMatch struct {
	Student           store.Student `json:"student"`
	Score             float64       `json:"score"`
	ApplicationID     string        `json:"application_id"`
	ApplicationStatus string        `json:"application_status"`
	AppliedAt         time.Time     `json:"applied_at"`
}

// InternshipMatch is a recommended internship for a student.
type InternshipMatch struct {
	Internship        store.Internship `json:"internship"`
	Score             float64          `json:"score"`
	Applied           bool             `json:"applied"`
	ApplicationStatus string           `json:"application_status,omitempty"`
	AppliedAt         *time.Time       `json:"applied_at,omitempty"`
}

func (m InternshipMatch) recency() time.Time {
	if m.AppliedAt != nil {
		return *m.AppliedAt
	}
	return m.Internship.CreatedAt
}

type MatchingService struct {
	store  MatchingStore
	ranker Ranker
	log    *zap.Logger
}

func NewMatchingService(s MatchingStore, r Ranker, log *zap.Logger) *MatchingService {
	return &MatchingService{
		store:  s,
		ranker: r,
		log:    logger.OrNop(log).With(zap.String("service", "matching")),
	}
}

// CandidatesForInternship ranks the internship's applicants. Applicants the
// ranker did not score keep a score of 0. Ties on score go to the most recent
// application.
func (s *MatchingService) CandidatesForInternship(ctx context.Context, internshipID string, limit int) ([]CandidateMatch, error) {
	apps, err := s.store.ListApplicationsForInternship(ctx, internshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	if len(apps) == 0 {
		return []CandidateMatch{}, nil
	}

	ranked, err := s.ranker.RankStudents(ctx, internshipID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank students: %w", err)
	}
	scores := scoreMap(ranked)

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.StudentID
	}
	students, err := s.store.GetStudentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	byID := make(map[string]store.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	matches := make([]CandidateMatch, 0, len(apps))
	for _, app := range apps {
		student, ok := byID[app.StudentID]
		if !ok {
			student = store.Student{ID: app.StudentID}
		}
		matches = append(matches, CandidateMatch{
			Student:           student,
			Score:             scores[app.StudentID],
			ApplicationID:     app.ID,
			ApplicationStatus: app.Status,
			AppliedAt:         app.CreatedAt,
		})
	}

	slices.SortStableFunc(matches, func(a, b CandidateMatch) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return b.AppliedAt.Compare(a.AppliedAt)
	})

	s.log.Debug("ranked candidates",
		zap.String("internship_id", internshipID),
		zap.Int("applications", len(apps)),
		zap.Int("scored", len(ranked)),
	)
	return truncate(matches, limit), nil
}

// RecommendationsForStudent returns open internships ranked for the student,
// annotated with the student's applications.
func (s *MatchingService) RecommendationsForStudent(ctx context.Context, studentID string, limit int) ([]InternshipMatch, error) {
	ranked, err := s.ranker.RankInternships(ctx, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank internships: %w", err)
	}
	if len(ranked) == 0 {
		return []InternshipMatch{}, nil
	}
	scores := scoreMap(ranked)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	internships, err := s.store.GetInternshipsByIDs(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load internships: %w", err)
	}

	apps, err := s.store.ListApplicationsForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	byInternship := make(map[string]store.Application, len(apps))
	for _, app := range apps {
		byInternship[app.InternshipID] = app
	}

	matches := make([]InternshipMatch, 0, len(internships))
	for _, in := range internships {
		m := InternshipMatch{Internship: in, Score: scores[in.ID]}
		if app, ok := byInternship[in.ID]; ok {
			appliedAt := app.CreatedAt
			m.Applied = true
			m.ApplicationStatus = app.Status
			m.AppliedAt = &appliedAt
		}
		matches = append(matches, m)
	}

	slices.SortStableFunc(matches, func(a, b InternshipMatch) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return b.recency().Compare(a.recency())
	})
	return truncate(matches, limit), nil
}

func scoreMap(ranked []store.RankedID) map[string]float64 {
	scores := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		scores[r.ID] = r.Score
	}
	return scores
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
