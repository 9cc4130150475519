package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// EnrollmentDB is the enrollments sub-repository. Obtain one from
// DB.Enrollments().
type EnrollmentDB struct {
	conn *sql.DB
}

var _ repository.EnrollmentRepository = (*EnrollmentDB)(nil)

const enrollmentColumns = `id, user_id, semester_id, project_id, credits,
	is_project_lead, created_at, updated_at`

// Upsert creates or updates the user's enrollment for a semester.
//
// (user_id, semester_id) is UNIQUE, so this is a textbook
// INSERT ... ON CONFLICT DO UPDATE: first enrollment inserts, re-enrolling
// the same semester updates project/credits in place. Unlike the identity
// columns on users, this conflict is resolved silently — re-enrolling is a
// legitimate "change my project" action, not an error.
func (db *EnrollmentDB) Upsert(ctx context.Context, e *model.Enrollment) error {
	now := time.Now()
	if e.ID == "" {
		e.ID = xid.New().String()
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO enrollments (`+enrollmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, semester_id) DO UPDATE SET
			project_id = excluded.project_id,
			credits = excluded.credits,
			is_project_lead = excluded.is_project_lead,
			updated_at = excluded.updated_at`,
		e.ID, e.UserID, e.SemesterID, e.ProjectID, e.Credits,
		e.IsProjectLead, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting enrollment (user=%s semester=%s): %w",
			e.UserID, e.SemesterID, err)
	}

	// Read the canonical row back: on the update path the stored ID and
	// created_at belong to the original insert, not to e.
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE user_id = ? AND semester_id = ?`,
		e.UserID, e.SemesterID)
	stored, err := scanEnrollment(row.Scan)
	if err != nil {
		return fmt.Errorf("sqlite: reading back enrollment: %w", err)
	}
	*e = *stored
	return nil
}

// ListByUser returns all of a user's enrollments, newest semester first.
func (db *EnrollmentDB) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return db.list(ctx, "user_id = ?", userID)
}

// ListBySemester returns all enrollments for a semester.
func (db *EnrollmentDB) ListBySemester(ctx context.Context, semesterID string) ([]model.Enrollment, error) {
	return db.list(ctx, "semester_id = ?", semesterID)
}

func (db *EnrollmentDB) list(ctx context.Context, where string, arg any) ([]model.Enrollment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments
		 WHERE `+where+` ORDER BY semester_id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return enrollments, nil
}

func scanEnrollment(scan func(...any) error) (*model.Enrollment, error) {
	var e model.Enrollment
	err := scan(
		&e.ID, &e.UserID, &e.SemesterID, &e.ProjectID, &e.Credits,
		&e.IsProjectLead, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
