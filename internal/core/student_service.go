package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/embedding"
	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/store"
)

type ResumeStore interface {
	SaveResume(ctx context.Context, studentID, text string) error
}

type ResumeOutcome struct {
	StudentID string `json:"student_id"`
	Chunks    int    `json:"chunks"`
}

type StudentService struct {
	store    ResumeStore
	index    VectorWriter
	embedder embedding.Embedder
	settings IndexSettings
	log      *zap.Logger
}

func NewStudentService(s ResumeStore, index VectorWriter, e embedding.Embedder, settings IndexSettings, log *zap.Logger) *StudentService {
	return &StudentService{
		store:    s,
		index:    index,
		embedder: e,
		settings: settings,
		log:      logger.OrNop(log).With(zap.String("service", "student")),
	}
}

// SaveResume stores the resume text and indexes it as a new embedding
// version. Earlier versions stay in the index but stop being ranked.
func (s *StudentService) SaveResume(ctx context.Context, studentID, text string) (*ResumeOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: resume text is required", ErrInvalidInput)
	}

	if err := s.store.SaveResume(ctx, studentID, text); err != nil {
		return nil, err
	}

	chunks, err := indexText(ctx, s.embedder, s.index, s.settings, store.OwnerStudent, studentID, text)
	if err != nil {
		s.log.Error("resume embedding failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, fmt.Errorf("embedding resume: %w", err)
	}

	s.log.Info("resume indexed", zap.String("student_id", studentID), zap.Int("chunks", chunks))
	return &ResumeOutcome{StudentID: studentID, Chunks: chunks}, nil
}
