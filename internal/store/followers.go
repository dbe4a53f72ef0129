package store

import (
	"context"
	"fmt"
	"time"
)

// FollowTopic subscribes userID to a topic. Following twice is a no-op.
func (s *SQLiteStore) FollowTopic(ctx context.Context, topicID int64, userID string) error {
	if _, err := s.GetTopic(ctx, topicID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO topic_followers (topic_id, user_id, created_at) VALUES (?, ?, ?)",
		topicID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert topic follower: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		if _, err := tx.ExecContext(ctx, "UPDATE topics SET follower_count = follower_count + 1 WHERE id = ?", topicID); err != nil {
			return fmt.Errorf("failed to increment follower count: %w", err)
		}
	}
	return tx.Commit()
}

// UnfollowTopic removes the subscription. Unfollowing a topic that is not
// followed is a no-op.
func (s *SQLiteStore) UnfollowTopic(ctx context.Context, topicID int64, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM topic_followers WHERE topic_id = ? AND user_id = ?", topicID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete topic follower: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE topics SET follower_count = MAX(follower_count - 1, 0) WHERE id = ?", topicID); err != nil {
			return fmt.Errorf("failed to decrement follower count: %w", err)
		}
	}
	return tx.Commit()
}

// FollowCompany subscribes userID to a company's new postings.
func (s *SQLiteStore) FollowCompany(ctx context.Context, companyID, userID string) error {
	company, err := s.GetUser(ctx, companyID)
	if err != nil {
		return err
	}
	if company.Role != RoleCompany {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO company_followers (company_id, user_id, created_at) VALUES (?, ?, ?)",
		companyID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert company follower: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UnfollowCompany(ctx context.Context, companyID, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM company_followers WHERE company_id = ? AND user_id = ?", companyID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete company follower: %w", err)
	}
	return nil
}
