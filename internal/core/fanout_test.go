package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skillsync/skillsync/internal/realtime"
	"github.com/skillsync/skillsync/internal/store"
)

type fakeNotifier struct {
	failTopic   int64
	failCompany bool
	topicCalls  []int64
}

func (f *fakeNotifier) NotifyTopicFollowers(_ context.Context, internshipID string, topicID int64, relevance float64) ([]store.Notification, error) {
	f.topicCalls = append(f.topicCalls, topicID)
	if topicID == f.failTopic {
		return nil, errors.New("database is locked")
	}
	return []store.Notification{{
		ID:          "n-topic",
		RecipientID: "s1",
		Payload:     store.NotificationPayload{InternshipID: internshipID, TopicID: topicID, RelevanceScore: relevance},
	}}, nil
}

func (f *fakeNotifier) NotifyCompanyFollowers(_ context.Context, internshipID, companyID string) ([]store.Notification, error) {
	if f.failCompany {
		return nil, errors.New("company followers unavailable")
	}
	return []store.Notification{{ID: "n-company", RecipientID: "s2"}, {ID: "n-company-2", RecipientID: "s3"}}, nil
}

type failingBus struct{}

func (failingBus) Publish(context.Context, realtime.Event) error { return errors.New("redis down") }

func (failingBus) Subscribe(context.Context, func(realtime.Event)) error { return nil }

func (failingBus) Close() error { return nil }

func TestFanoutOrdersTopicsAndSwallowsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	notifier := &fakeNotifier{failTopic: 2, failCompany: true}
	fanout := NewFanout(notifier, nil, zap.New(core))

	report := fanout.Run(context.Background(), &store.Internship{ID: "i1", CompanyID: "c1"}, []TaggedTopic{
		{Topic: store.Topic{ID: 1}, Relevance: 0.5},
		{Topic: store.Topic{ID: 2}, Relevance: 0.9},
		{Topic: store.Topic{ID: 3}, Relevance: 0.7},
	})

	if len(notifier.topicCalls) != 3 || notifier.topicCalls[0] != 2 || notifier.topicCalls[1] != 3 || notifier.topicCalls[2] != 1 {
		t.Fatalf("expected topics notified by relevance, got %v", notifier.topicCalls)
	}
	if report.Notified != 2 {
		t.Fatalf("expected 2 notifications, got %d", report.Notified)
	}
	if len(report.FailedTopics) != 1 || report.FailedTopics[0] != 2 || !report.CompanyFailed {
		t.Fatalf("unexpected report: %+v", report)
	}
	if logs.FilterMessage("topic follower notification failed").Len() != 1 {
		t.Fatalf("expected the topic failure to be logged")
	}
	if logs.FilterMessage("company follower notification failed").Len() != 1 {
		t.Fatalf("expected the company failure to be logged")
	}
}

func TestFanoutPublishesCreatedNotifications(t *testing.T) {
	bus := realtime.NewLocalBus()
	var (
		mu     sync.Mutex
		events []realtime.Event
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = bus.Subscribe(ctx, func(ev realtime.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	report := NewFanout(&fakeNotifier{}, bus, nil).Run(context.Background(),
		&store.Internship{ID: "i1", CompanyID: "c1"},
		[]TaggedTopic{{Topic: store.Topic{ID: 7}, Relevance: 0.8}})

	if report.Notified != 3 || report.PublishFailures != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 || events[0].Notification.Payload.TopicID != 7 {
		t.Fatalf("expected 3 published events, got %+v", events)
	}
}

func TestFanoutCountsPublishFailures(t *testing.T) {
	report := NewFanout(&fakeNotifier{}, failingBus{}, nil).Run(context.Background(),
		&store.Internship{ID: "i1", CompanyID: "c1"}, nil)
	if report.Notified != 2 || report.PublishFailures != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
