package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotifyTopicFollowers creates one notification per current follower of the
// topic, in a single transaction, and returns the created rows.
func (s *SQLiteStore) NotifyTopicFollowers(ctx context.Context, internshipID string, topicID int64, relevance float64) ([]Notification, error) {
	payload := NotificationPayload{InternshipID: internshipID, TopicID: topicID, RelevanceScore: relevance}
	return s.notifyFollowers(ctx,
		"SELECT user_id FROM topic_followers WHERE topic_id = ? ORDER BY created_at", topicID,
		NotificationTopicMatch, payload)
}

// NotifyCompanyFollowers creates one notification per follower of the company.
func (s *SQLiteStore) NotifyCompanyFollowers(ctx context.Context, internshipID, companyID string) ([]Notification, error) {
	payload := NotificationPayload{InternshipID: internshipID, CompanyID: companyID}
	return s.notifyFollowers(ctx,
		"SELECT user_id FROM company_followers WHERE company_id = ? ORDER BY created_at", companyID,
		NotificationCompanyPost, payload)
}

func (s *SQLiteStore) notifyFollowers(ctx context.Context, followersQuery string, key any, kind string, payload NotificationPayload) ([]Notification, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, followersQuery, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}
	var recipients []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan follower row: %w", err)
		}
		recipients = append(recipients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read followers: %w", err)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO notifications (id, recipient_id, kind, payload, is_read, created_at) VALUES (?, ?, ?, ?, FALSE, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare notification insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	created := make([]Notification, 0, len(recipients))
	for _, recipient := range recipients {
		n := Notification{
			ID:          uuid.NewString(),
			RecipientID: recipient,
			Kind:        kind,
			Payload:     payload,
			CreatedAt:   now,
		}
		if _, err := stmt.ExecContext(ctx, n.ID, n.RecipientID, n.Kind, string(payloadJSON), n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert notification: %w", err)
		}
		created = append(created, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit notifications: %w", err)
	}
	return created, nil
}

// ListNotifications returns the newest notifications for a recipient.
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]Notification, error) {
	query := "SELECT id, recipient_id, kind, payload, is_read, created_at FROM notifications WHERE recipient_id = ?"
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n       Notification
			payload string
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &payload, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &n.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode notification payload %s: %w", n.ID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags a recipient's notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = ? AND recipient_id = ?", id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
