package core

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/skillsync/skillsync/internal/embedding"
	"github.com/skillsync/skillsync/internal/store"
	"github.com/skillsync/skillsync/internal/topics"
)

// vocabEmbedder counts vocabulary words, so texts sharing words point the
// same way.
type vocabEmbedder struct {
	calls atomic.Int32
	err   error
}

var vocabulary = []string{"python", "django", "design", "figma", "data"}

func (v *vocabEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v.calls.Add(1)
	if v.err != nil {
		return nil, v.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(vocabulary)] = 0.1
	return vec, nil
}

func (v *vocabEmbedder) Model() string { return "vocab" }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "skillsync.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUser(t *testing.T, s *store.SQLiteStore, id, role string) {
	t.Helper()
	if _, err := s.EnsureUser(context.Background(), id, role, ""); err != nil {
		t.Fatalf("EnsureUser(%s): %v", id, err)
	}
}

func newInternshipService(s InternshipStore, st *store.SQLiteStore, e embedding.Embedder) *InternshipService {
	return NewInternshipService(s, st, e, topics.NewExtractor(nil), NewFanout(st, nil, nil),
		IndexSettings{ChunkSize: embedding.DefaultChunkSize}, nil)
}

func TestCreateInternshipTagsAndNotifies(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustUser(t, st, "company-1", store.RoleCompany)
	mustUser(t, st, "student-1", store.RoleStudent)
	mustUser(t, st, "student-2", store.RoleStudent)

	python, err := st.EnsureTopic(ctx, store.Topic{Name: "Python", Slug: "python", Category: topics.CategoryLanguage})
	if err != nil {
		t.Fatalf("EnsureTopic: %v", err)
	}
	if err := st.FollowTopic(ctx, python.ID, "student-1"); err != nil {
		t.Fatalf("FollowTopic: %v", err)
	}
	if err := st.FollowCompany(ctx, "company-1", "student-2"); err != nil {
		t.Fatalf("FollowCompany: %v", err)
	}

	embedder := &vocabEmbedder{}
	svc := newInternshipService(st, st, embedder)

	outcome, err := svc.CreateInternship(ctx, "company-1", InternshipInput{
		Title:       "  Python Backend Intern ",
		Description: "We need Python and Django experience",
	})
	if err != nil {
		t.Fatalf("CreateInternship: %v", err)
	}

	if outcome.Internship.Title != "Python Backend Intern" || outcome.Internship.Status != store.InternshipOpen {
		t.Fatalf("unexpected internship: %+v", outcome.Internship)
	}
	if outcome.Chunks != 1 || embedder.calls.Load() != 1 {
		t.Fatalf("expected one chunk embedded, got %d chunks and %d calls", outcome.Chunks, embedder.calls.Load())
	}
	if outcome.TopicSource != "keyword" || len(outcome.Topics) != 2 {
		t.Fatalf("expected two keyword topics, got %q %+v", outcome.TopicSource, outcome.Topics)
	}
	if outcome.Topics[0].Topic.ID != python.ID {
		t.Fatalf("expected the existing Python topic to be reused, got %+v", outcome.Topics[0])
	}
	if outcome.Fanout.Notified != 2 {
		t.Fatalf("expected one topic and one company notification, got %+v", outcome.Fanout)
	}

	notes, err := st.ListNotifications(ctx, "student-1", false, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != store.NotificationTopicMatch || math.Abs(notes[0].Payload.RelevanceScore-0.8) > 1e-9 {
		t.Fatalf("unexpected topic notification: %+v", notes)
	}
	notes, _ = st.ListNotifications(ctx, "student-2", false, 10)
	if len(notes) != 1 || notes[0].Kind != store.NotificationCompanyPost {
		t.Fatalf("unexpected company notification: %+v", notes)
	}

	details, err := svc.GetInternship(ctx, outcome.Internship.ID)
	if err != nil {
		t.Fatalf("GetInternship: %v", err)
	}
	if len(details.Topics) != 2 {
		t.Fatalf("expected stored topics, got %+v", details.Topics)
	}
}

func TestCreateInternshipEmbeddingFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustUser(t, st, "company-1", store.RoleCompany)
	mustUser(t, st, "student-1", store.RoleStudent)
	if err := st.FollowCompany(ctx, "company-1", "student-1"); err != nil {
		t.Fatalf("FollowCompany: %v", err)
	}

	svc := newInternshipService(st, st, embedding.Missing{Provider: "gemini", Reason: "GEMINI_API_KEY is not set"})
	outcome, err := svc.CreateInternship(ctx, "company-1", InternshipInput{
		Title:       "Python Intern",
		Description: "We need Python and Django experience",
	})
	if !embedding.IsConfigError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
	if outcome == nil || outcome.Internship == nil || outcome.Internship.ID == "" {
		t.Fatalf("expected the stored internship in the outcome, got %+v", outcome)
	}
	if outcome.Chunks != 0 {
		t.Fatalf("expected nothing indexed, got %d chunks", outcome.Chunks)
	}
	if outcome.TopicSource != "keyword" || len(outcome.Topics) != 2 {
		t.Fatalf("expected keyword tagging to still run, got %q %+v", outcome.TopicSource, outcome.Topics)
	}
	list, err := st.ListTopics(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected Python and Django topics, got %+v", list)
	}
	if outcome.Fanout.Notified != 1 {
		t.Fatalf("expected the company follower notified, got %+v", outcome.Fanout)
	}
	notes, err := st.ListNotifications(ctx, "student-1", false, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Kind != store.NotificationCompanyPost {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestCreateInternshipValidation(t *testing.T) {
	st := newTestStore(t)
	svc := newInternshipService(st, st, &vocabEmbedder{})

	_, err := svc.CreateInternship(context.Background(), "company-1", InternshipInput{Title: "   ", Description: "x"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = svc.CreateInternship(context.Background(), "company-1", InternshipInput{Title: "x"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type flakyTopicStore struct {
	*store.SQLiteStore
	fail string
}

func (f flakyTopicStore) EnsureTopic(ctx context.Context, t store.Topic) (*store.Topic, error) {
	if t.Name == f.fail {
		return nil, errors.New("disk I/O error")
	}
	return f.SQLiteStore.EnsureTopic(ctx, t)
}

func TestCreateInternshipTopicFailureIsAWarning(t *testing.T) {
	st := newTestStore(t)
	mustUser(t, st, "company-1", store.RoleCompany)

	svc := newInternshipService(flakyTopicStore{SQLiteStore: st, fail: "Django"}, st, &vocabEmbedder{})
	outcome, err := svc.CreateInternship(context.Background(), "company-1", InternshipInput{
		Title:       "Python Backend Intern",
		Description: "We need Python and Django experience",
	})
	if err != nil {
		t.Fatalf("CreateInternship: %v", err)
	}
	if len(outcome.Topics) != 1 || outcome.Topics[0].Topic.Name != "Python" {
		t.Fatalf("expected only Python tagged, got %+v", outcome.Topics)
	}
	if len(outcome.Warnings) != 1 || !strings.Contains(outcome.Warnings[0], "Django") {
		t.Fatalf("expected a Django warning, got %v", outcome.Warnings)
	}
}

func TestApplyAndClose(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustUser(t, st, "company-1", store.RoleCompany)
	mustUser(t, st, "company-2", store.RoleCompany)
	mustUser(t, st, "student-1", store.RoleStudent)

	svc := newInternshipService(st, st, &vocabEmbedder{})
	outcome, err := svc.CreateInternship(ctx, "company-1", InternshipInput{Title: "Design Intern", Description: "Figma work"})
	if err != nil {
		t.Fatalf("CreateInternship: %v", err)
	}
	id := outcome.Internship.ID

	if _, err := svc.Apply(ctx, "student-1", id); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := svc.Apply(ctx, "student-1", id); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on a second application, got %v", err)
	}
	if _, err := svc.Apply(ctx, "student-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.CloseInternship(ctx, "company-2", id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another company, got %v", err)
	}
	if err := svc.CloseInternship(ctx, "company-1", id); err != nil {
		t.Fatalf("CloseInternship: %v", err)
	}
	mustUser(t, st, "student-2", store.RoleStudent)
	if _, err := svc.Apply(ctx, "student-2", id); !errors.Is(err, ErrInternshipClosed) {
		t.Fatalf("expected ErrInternshipClosed, got %v", err)
	}

	list, err := svc.ListCompanyInternships(ctx, "company-2")
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected an empty list for company-2, got %v %v", list, err)
	}
}

func TestPreviewTopicsRequiresText(t *testing.T) {
	st := newTestStore(t)
	svc := newInternshipService(st, st, &vocabEmbedder{})

	if _, err := svc.PreviewTopics(context.Background(), topics.Posting{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	res, err := svc.PreviewTopics(context.Background(), topics.Posting{Title: "Data Science Intern"})
	if err != nil || len(res.Topics) == 0 {
		t.Fatalf("expected preview topics, got %+v %v", res, err)
	}
	list, _ := st.ListTopics(context.Background(), "", 10)
	if len(list) != 0 {
		t.Fatalf("expected preview to store nothing, got %+v", list)
	}
}
