package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateApplication records a pending application. A second application by
// the same student returns ErrConflict.
func (s *SQLiteStore) CreateApplication(ctx context.Context, internshipID, studentID string) (*Application, error) {
	if _, err := s.GetInternship(ctx, internshipID); err != nil {
		return nil, err
	}

	app := &Application{
		ID:           uuid.NewString(),
		InternshipID: internshipID,
		StudentID:    studentID,
		Status:       ApplicationPending,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO applications (id, internship_id, student_id, status, created_at) VALUES (?, ?, ?, ?, ?)",
		app.ID, app.InternshipID, app.StudentID, app.Status, app.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}
	return app, nil
}

func (s *SQLiteStore) ListApplicationsForInternship(ctx context.Context, internshipID string) ([]Application, error) {
	return s.listApplications(ctx, "internship_id", internshipID)
}

func (s *SQLiteStore) ListApplicationsForStudent(ctx context.Context, studentID string) ([]Application, error) {
	return s.listApplications(ctx, "student_id", studentID)
}

func (s *SQLiteStore) listApplications(ctx context.Context, column, value string) ([]Application, error) {
	query := "SELECT id, internship_id, student_id, status, created_at FROM applications WHERE " + column + " = ? ORDER BY created_at DESC"
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.InternshipID, &app.StudentID, &app.Status, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
