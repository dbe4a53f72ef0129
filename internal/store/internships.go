package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const internshipColumns = "id, company_id, title, description, requirements, location, status, created_at"

func scanInternship(row interface{ Scan(...any) error }) (*Internship, error) {
	var in Internship
	err := row.Scan(&in.ID, &in.CompanyID, &in.Title, &in.Description, &in.Requirements, &in.Location, &in.Status, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// CreateInternship inserts in as a new open posting and fills its ID,
// status and creation time.
func (s *SQLiteStore) CreateInternship(ctx context.Context, in *Internship) error {
	in.ID = uuid.NewString()
	in.Status = InternshipOpen
	in.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO internships ("+internshipColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		in.ID, in.CompanyID, in.Title, in.Description, in.Requirements, in.Location, in.Status, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert internship: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetInternship(ctx context.Context, id string) (*Internship, error) {
	in, err := scanInternship(s.db.QueryRowContext(ctx, "SELECT "+internshipColumns+" FROM internships WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get internship: %w", err)
	}
	return in, nil
}

// GetInternshipsByIDs returns the internships among ids. With openOnly set,
// closed postings are left out.
func (s *SQLiteStore) GetInternshipsByIDs(ctx context.Context, ids []string, openOnly bool) ([]Internship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marks, args := placeholders(ids)
	query := "SELECT " + internshipColumns + " FROM internships WHERE id IN (" + marks + ")"
	if openOnly {
		query += " AND status = 'open'"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query internships: %w", err)
	}
	defer rows.Close()

	var out []Internship
	for rows.Next() {
		in, err := scanInternship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan internship row: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListCompanyInternships(ctx context.Context, companyID string) ([]Internship, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+internshipColumns+" FROM internships WHERE company_id = ? ORDER BY created_at DESC", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query internships: %w", err)
	}
	defer rows.Close()

	var out []Internship
	for rows.Next() {
		in, err := scanInternship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan internship row: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetInternshipStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE internships SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update internship status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
