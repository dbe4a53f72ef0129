package core

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsync/skillsync/internal/embedding"
	"github.com/skillsync/skillsync/internal/store"
)

func TestSaveResumeIndexesAndRanks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustUser(t, st, "company-1", store.RoleCompany)
	mustUser(t, st, "student-1", store.RoleStudent)

	embedder := &vocabEmbedder{}
	settings := IndexSettings{ChunkSize: embedding.DefaultChunkSize}
	internships := newInternshipService(st, st, embedder)
	backend, err := internships.CreateInternship(ctx, "company-1", InternshipInput{Title: "Python Intern", Description: "Python and Django APIs"})
	if err != nil {
		t.Fatalf("CreateInternship: %v", err)
	}
	design, err := internships.CreateInternship(ctx, "company-1", InternshipInput{Title: "Design Intern", Description: "Figma and design systems"})
	if err != nil {
		t.Fatalf("CreateInternship: %v", err)
	}

	students := NewStudentService(st, st, embedder, settings, nil)
	outcome, err := students.SaveResume(ctx, "student-1", "  I build Python services with Django.  ")
	if err != nil {
		t.Fatalf("SaveResume: %v", err)
	}
	if outcome.Chunks != 1 || outcome.StudentID != "student-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	recs, err := NewMatchingService(st, st, nil).RecommendationsForStudent(ctx, "student-1", 10)
	if err != nil {
		t.Fatalf("RecommendationsForStudent: %v", err)
	}
	if len(recs) != 2 || recs[0].Internship.ID != backend.Internship.ID || recs[1].Internship.ID != design.Internship.ID {
		t.Fatalf("expected the Python internship first, got %+v", recs)
	}
	if recs[0].Score <= recs[1].Score {
		t.Fatalf("expected a higher score for the closer match: %v vs %v", recs[0].Score, recs[1].Score)
	}
}

func TestSaveResumeErrors(t *testing.T) {
	st := newTestStore(t)
	mustUser(t, st, "student-1", store.RoleStudent)
	settings := IndexSettings{ChunkSize: embedding.DefaultChunkSize}

	svc := NewStudentService(st, st, &vocabEmbedder{}, settings, nil)
	if _, err := svc.SaveResume(context.Background(), "student-1", " \n "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	upstream := &embedding.UpstreamError{Provider: "http", Status: 500, Body: "boom"}
	svc = NewStudentService(st, st, &vocabEmbedder{err: upstream}, settings, nil)
	if _, err := svc.SaveResume(context.Background(), "student-1", "Python"); !embedding.IsUpstreamError(err) {
		t.Fatalf("expected an upstream error, got %v", err)
	}
}
