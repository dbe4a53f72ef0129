package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const topicColumns = "id, name, slug, category, description, follower_count, created_at"

func scanTopic(row interface{ Scan(...any) error }) (*Topic, error) {
	var t Topic
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Category, &t.Description, &t.FollowerCount, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// EnsureTopic returns the topic whose name matches t.Name case-insensitively,
// creating it from t when there is none. Concurrent callers racing on the
// same name all get the single stored row.
func (s *SQLiteStore) EnsureTopic(ctx context.Context, t Topic) (*Topic, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, fmt.Errorf("topic name is required")
	}
	key := strings.ToLower(name)

	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO topics (name, name_key, slug, category, description, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		name, key, t.Slug, t.Category, t.Description, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert topic: %w", err)
	}

	topic, err := scanTopic(s.db.QueryRowContext(ctx, "SELECT "+topicColumns+" FROM topics WHERE name_key = ?", key))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topic %q: %w", name, err)
	}
	return topic, nil
}

func (s *SQLiteStore) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	topic, err := scanTopic(s.db.QueryRowContext(ctx, "SELECT "+topicColumns+" FROM topics WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

// ListTopics returns topics by follower count, optionally of one category.
func (s *SQLiteStore) ListTopics(ctx context.Context, category string, limit int) ([]Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY follower_count DESC, name ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// AddInternshipTopic attaches a topic to an internship. Repeated calls add
// repeated rows.
func (s *SQLiteStore) AddInternshipTopic(ctx context.Context, internshipID string, topicID int64, relevance float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO internship_topics (internship_id, topic_id, relevance_score) VALUES (?, ?, ?)",
		internshipID, topicID, relevance)
	if err != nil {
		return fmt.Errorf("failed to insert internship topic: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListInternshipTopics(ctx context.Context, internshipID string) ([]InternshipTopic, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT t.id, t.name, t.slug, t.category, t.description, t.follower_count, t.created_at, it.relevance_score
        FROM internship_topics it
        JOIN topics t ON t.id = it.topic_id
        WHERE it.internship_id = ?
        ORDER BY it.relevance_score DESC, t.name ASC`, internshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query internship topics: %w", err)
	}
	defer rows.Close()

	var out []InternshipTopic
	for rows.Next() {
		var it InternshipTopic
		if err := rows.Scan(&it.ID, &it.Name, &it.Slug, &it.Category, &it.Description, &it.FollowerCount, &it.CreatedAt, &it.Relevance); err != nil {
			return nil, fmt.Errorf("failed to scan internship topic row: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
