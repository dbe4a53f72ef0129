package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/embedding"
	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/store"
	"github.com/skillsync/skillsync/internal/topics"
)

// InternshipStore is the persistence InternshipService needs.
type InternshipStore interface {
	CreateInternship(ctx context.Context, in *store.Internship) error
	GetInternship(ctx context.Context, id string) (*store.Internship, error)
	ListCompanyInternships(ctx context.Context, companyID string) ([]store.Internship, error)
	SetInternshipStatus(ctx context.Context, id, status string) error
	CreateApplication(ctx context.Context, internshipID, studentID string) (*store.Application, error)
	EnsureTopic(ctx context.Context, t store.Topic) (*store.Topic, error)
	AddInternshipTopic(ctx context.Context, internshipID string, topicID int64, relevance float64) error
	ListInternshipTopics(ctx context.Context, internshipID string) ([]store.InternshipTopic, error)
}

// TopicExtractor derives topics from a posting.
type TopicExtractor interface {
	Extract(ctx context.Context, p topics.Posting) (topics.Result, error)
}

type InternshipInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Location     string `json:"location"`
}

func (in *InternshipInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Requirements = strings.TrimSpace(in.Requirements)
	in.Location = strings.TrimSpace(in.Location)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	return nil
}

// PostingOutcome is the result of creating an internship. Topics, Fanout and
// Warnings are advisory; only the returned error is load-bearing.
type PostingOutcome struct {
	Internship  *store.Internship `json:"internship"`
	Chunks      int               `json:"chunks"`
	Topics      []TaggedTopic     `json:"topics"`
	TopicSource string            `json:"topic_source,omitempty"`
	Fanout      FanoutReport      `json:"fanout"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// InternshipDetails is an internship with its tagged topics.
type InternshipDetails struct {
	Internship store.Internship        `json:"internship"`
	Topics     []store.InternshipTopic `json:"topics"`
}

type InternshipService struct {
	store     InternshipStore
	index     VectorWriter
	embedder  embedding.Embedder
	extractor TopicExtractor
	fanout    *Fanout
	settings  IndexSettings
	log       *zap.Logger
}

func NewInternshipService(s InternshipStore, index VectorWriter, e embedding.Embedder, ex TopicExtractor, f *Fanout, settings IndexSettings, log *zap.Logger) *InternshipService {
	return &InternshipService{
		store:     s,
		index:     index,
		embedder:  e,
		extractor: ex,
		fanout:    f,
		settings:  settings,
		log:       logger.OrNop(log).With(zap.String("service", "internship")),
	}
}

// CreateInternship stores a posting, indexes its text, tags it with topics and
// notifies followers. An embedding failure is returned together with the
// full outcome: the internship stays stored, tagged and announced, it is just
// absent from matching until reindexed. Topic and notification failures only
// produce warnings.
func (s *InternshipService) CreateInternship(ctx context.Context, companyID string, input InternshipInput) (*PostingOutcome, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	internship := &store.Internship{
		CompanyID:    companyID,
		Title:        input.Title,
		Description:  input.Description,
		Requirements: input.Requirements,
		Location:     input.Location,
	}
	if err := s.store.CreateInternship(ctx, internship); err != nil {
		return nil, err
	}
	outcome := &PostingOutcome{Internship: internship, Topics: []TaggedTopic{}}
	log := s.log.With(zap.String("internship_id", internship.ID))

	text := joinNonEmpty(internship.Title, internship.Description, internship.Requirements)
	chunks, embedErr := indexText(ctx, s.embedder, s.index, s.settings, store.OwnerInternship, internship.ID, text)
	if embedErr != nil {
		log.Error("internship embedding failed", zap.Error(embedErr))
		embedErr = fmt.Errorf("embedding internship %s: %w", internship.ID, embedErr)
	}
	outcome.Chunks = chunks

	// Tagging and fan-out do not depend on the vectors.
	s.tagTopics(ctx, log, outcome)

	if s.fanout != nil {
		outcome.Fanout = s.fanout.Run(ctx, internship, outcome.Topics)
	}

	log.Info("internship created",
		zap.Int("chunks", outcome.Chunks),
		zap.Int("topics", len(outcome.Topics)),
		zap.String("topic_source", outcome.TopicSource),
		zap.Int("warnings", len(outcome.Warnings)),
		zap.Bool("indexed", embedErr == nil),
	)
	return outcome, embedErr
}

func (s *InternshipService) tagTopics(ctx context.Context, log *zap.Logger, outcome *PostingOutcome) {
	in := outcome.Internship
	result, err := s.extractor.Extract(ctx, topics.Posting{
		Title:        in.Title,
		Description:  in.Description,
		Requirements: in.Requirements,
	})
	if err != nil {
		log.Warn("topic extraction failed", zap.Error(err))
		outcome.Warnings = append(outcome.Warnings, "topic extraction failed: "+err.Error())
		return
	}
	outcome.TopicSource = result.Source

	for _, c := range result.Topics {
		topic, err := s.store.EnsureTopic(ctx, store.Topic{
			Name:     c.Name,
			Slug:     topics.Slugify(c.Name),
			Category: c.Category,
		})
		if err != nil {
			log.Warn("topic creation failed", zap.String("topic", c.Name), zap.Error(err))
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("topic %q: %v", c.Name, err))
			continue
		}
		if err := s.store.AddInternshipTopic(ctx, in.ID, topic.ID, c.Relevance); err != nil {
			log.Warn("topic association failed", zap.Int64("topic_id", topic.ID), zap.Error(err))
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("topic %q: %v", c.Name, err))
			continue
		}
		outcome.Topics = append(outcome.Topics, TaggedTopic{Topic: *topic, Relevance: c.Relevance})
	}
}

// GetInternship returns an internship with its topics.
func (s *InternshipService) GetInternship(ctx context.Context, id string) (*InternshipDetails, error) {
	in, err := s.store.GetInternship(ctx, id)
	if err != nil {
		return nil, err
	}
	tagged, err := s.store.ListInternshipTopics(ctx, id)
	if err != nil {
		return nil, err
	}
	if tagged == nil {
		tagged = []store.InternshipTopic{}
	}
	return &InternshipDetails{Internship: *in, Topics: tagged}, nil
}

// OwnedInternship returns the internship if companyID posted it.
func (s *InternshipService) OwnedInternship(ctx context.Context, companyID, id string) (*store.Internship, error) {
	in, err := s.store.GetInternship(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CompanyID != companyID {
		return nil, ErrForbidden
	}
	return in, nil
}

func (s *InternshipService) ListCompanyInternships(ctx context.Context, companyID string) ([]store.Internship, error) {
	list, err := s.store.ListCompanyInternships(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []store.Internship{}
	}
	return list, nil
}

// CloseInternship stops a posting from being recommended or applied to.
func (s *InternshipService) CloseInternship(ctx context.Context, companyID, id string) error {
	if _, err := s.OwnedInternship(ctx, companyID, id); err != nil {
		return err
	}
	return s.store.SetInternshipStatus(ctx, id, store.InternshipClosed)
}

// Apply records a student's application to an open internship.
func (s *InternshipService) Apply(ctx context.Context, studentID, internshipID string) (*store.Application, error) {
	in, err := s.store.GetInternship(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if in.Status != store.InternshipOpen {
		return nil, ErrInternshipClosed
	}

	app, err := s.store.CreateApplication(ctx, internshipID, studentID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("already applied: %w", err)
		}
		return nil, err
	}
	s.log.Info("application created",
		zap.String("internship_id", internshipID),
		zap.String("student_id", studentID),
	)
	return app, nil
}

// PreviewTopics runs topic extraction without storing anything.
func (s *InternshipService) PreviewTopics(ctx context.Context, p topics.Posting) (topics.Result, error) {
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Description) == "" {
		return topics.Result{}, fmt.Errorf("%w: title or description is required", ErrInvalidInput)
	}
	return s.extractor.Extract(ctx, p)
}
