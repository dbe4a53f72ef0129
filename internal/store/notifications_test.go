package store

import (
	"context"
	"errors"
	"testing"
)

func TestNotifyTopicFollowers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	topic, _ := s.EnsureTopic(ctx, Topic{Name: "Python", Slug: "python", Category: "programming_language"})
	_ = s.FollowTopic(ctx, topic.ID, "s1")
	_ = s.FollowTopic(ctx, topic.ID, "s2")

	created, err := s.NotifyTopicFollowers(ctx, "internship-1", topic.ID, 0.8)
	if err != nil {
		t.Fatalf("NotifyTopicFollowers: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(created))
	}

	list, err := s.ListNotifications(ctx, "s1", false, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListNotifications: %+v, %v", list, err)
	}
	n := list[0]
	if n.Kind != NotificationTopicMatch || n.Read {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Payload.InternshipID != "internship-1" || n.Payload.TopicID != topic.ID || n.Payload.RelevanceScore != 0.8 {
		t.Fatalf("unexpected payload: %+v", n.Payload)
	}

	if err := s.MarkNotificationRead(ctx, n.ID, "s2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected another recipient to get ErrNotFound, got %v", err)
	}
	if err := s.MarkNotificationRead(ctx, n.ID, "s1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	unread, _ := s.ListNotifications(ctx, "s1", true, 10)
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
}

func TestNotifyWithoutFollowers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.NotifyTopicFollowers(ctx, "internship-1", 42, 0.5)
	if err != nil || len(created) != 0 {
		t.Fatalf("expected nothing created, got %+v, %v", created, err)
	}
}

func TestNotifyCompanyFollowers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustUser(t, s, "c1", RoleCompany)
	_ = s.FollowCompany(ctx, "c1", "s1")

	created, err := s.NotifyCompanyFollowers(ctx, "internship-1", "c1")
	if err != nil || len(created) != 1 {
		t.Fatalf("NotifyCompanyFollowers: %+v, %v", created, err)
	}
	if created[0].Kind != NotificationCompanyPost || created[0].Payload.CompanyID != "c1" {
		t.Fatalf("unexpected notification: %+v", created[0])
	}
}
