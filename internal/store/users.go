package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnsureUser creates the user on first sight and keeps the role and display
// name in step with the latest token. An empty display name keeps the stored one.
func (s *SQLiteStore) EnsureUser(ctx context.Context, id, role, displayName string) (*User, error) {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO users (id, role, display_name, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            role = excluded.role,
            display_name = CASE WHEN excluded.display_name = '' THEN users.display_name ELSE excluded.display_name END`,
		id, role, displayName, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, "SELECT id, role, display_name, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Role, &user.DisplayName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// SaveResume replaces the student's resume text.
func (s *SQLiteStore) SaveResume(ctx context.Context, studentID, text string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO student_profiles (user_id, resume_text, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET resume_text = excluded.resume_text, updated_at = excluded.updated_at`,
		studentID, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// GetStudentsByIDs returns the student users among ids, in no particular order.
func (s *SQLiteStore) GetStudentsByIDs(ctx context.Context, ids []string) ([]Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marks, args := placeholders(ids)
	query := fmt.Sprintf(`
        SELECT u.id, u.display_name, p.resume_text, p.updated_at
        FROM users u
        LEFT JOIN student_profiles p ON p.user_id = u.id
        WHERE u.role = 'student' AND u.id IN (%s)`, marks)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var (
			st        Student
			resume    sql.NullString
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&st.ID, &st.DisplayName, &resume, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		st.ResumeText = resume.String
		if updatedAt.Valid {
			t := updatedAt.Time
			st.UpdatedAt = &t
		}
		students = append(students, st)
	}
	return students, rows.Err()
}
