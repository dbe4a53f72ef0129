package core

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/realtime"
	"github.com/skillsync/skillsync/internal/store"
)

// FollowerNotifier creates notification rows for followers.
type FollowerNotifier interface {
	NotifyTopicFollowers(ctx context.Context, internshipID string, topicID int64, relevance float64) ([]store.Notification, error)
	NotifyCompanyFollowers(ctx context.Context, internshipID, companyID string) ([]store.Notification, error)
}

// TaggedTopic is a topic attached to a new posting.
type TaggedTopic struct {
	Topic     store.Topic `json:"topic"`
	Relevance float64     `json:"relevance_score"`
}

// FanoutReport summarizes a best-effort notification run.
type FanoutReport struct {
	Notified        int     `json:"notified"`
	FailedTopics    []int64 `json:"failed_topics,omitempty"`
	CompanyFailed   bool    `json:"company_failed,omitempty"`
	PublishFailures int     `json:"publish_failures,omitempty"`
}

// Fanout notifies followers of a new posting's topics and company.
type Fanout struct {
	notifier FollowerNotifier
	bus      realtime.Bus
	log      *zap.Logger
}

// NewFanout builds a Fanout. bus may be nil when nothing listens for events.
func NewFanout(n FollowerNotifier, bus realtime.Bus, log *zap.Logger) *Fanout {
	return &Fanout{
		notifier: n,
		bus:      bus,
		log:      logger.OrNop(log).With(zap.String("service", "fanout")),
	}
}

// Run notifies topic followers one topic at a time, most relevant first, then
// the company's followers. Failures are logged and counted in the report,
// never returned.
func (f *Fanout) Run(ctx context.Context, internship *store.Internship, tagged []TaggedTopic) FanoutReport {
	var report FanoutReport

	ordered := slices.Clone(tagged)
	slices.SortStableFunc(ordered, func(a, b TaggedTopic) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})

	for _, t := range ordered {
		created, err := f.notifier.NotifyTopicFollowers(ctx, internship.ID, t.Topic.ID, t.Relevance)
		if err != nil {
			f.log.Warn("topic follower notification failed",
				zap.String("internship_id", internship.ID),
				zap.Int64("topic_id", t.Topic.ID),
				zap.Error(err),
			)
			report.FailedTopics = append(report.FailedTopics, t.Topic.ID)
			continue
		}
		report.Notified += len(created)
		f.publish(ctx, created, &report)
	}

	created, err := f.notifier.NotifyCompanyFollowers(ctx, internship.ID, internship.CompanyID)
	if err != nil {
		f.log.Warn("company follower notification failed",
			zap.String("internship_id", internship.ID),
			zap.String("company_id", internship.CompanyID),
			zap.Error(err),
		)
		report.CompanyFailed = true
	} else {
		report.Notified += len(created)
		f.publish(ctx, created, &report)
	}

	f.log.Info("fan-out finished",
		zap.String("internship_id", internship.ID),
		zap.Int("topics", len(ordered)),
		zap.Int("notified", report.Notified),
		zap.Int("failed_topics", len(report.FailedTopics)),
	)
	return report
}

func (f *Fanout) publish(ctx context.Context, created []store.Notification, report *FanoutReport) {
	if f.bus == nil {
		return
	}
	for _, n := range created {
		if err := f.bus.Publish(ctx, realtime.NotificationEvent(n)); err != nil {
			f.log.Warn("notification publish failed",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
			report.PublishFailures++
		}
	}
}
