package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// SemesterDB is the semesters sub-repository. Obtain one from
// DB.Semesters().
type SemesterDB struct {
	conn *sql.DB
}

var _ repository.SemesterRepository = (*SemesterDB)(nil)

// Create inserts a semester. Semester IDs are assigned by the caller
// (registrar convention, e.g. "202501"), not generated.
func (db *SemesterDB) Create(ctx context.Context, s *model.Semester) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO semesters (id, name, start_date, end_date) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, s.StartDate, s.EndDate,
	)
	if err != nil {
		return conflictOr(err, "a semester with that id already exists",
			fmt.Sprintf("sqlite: inserting semester %s", s.ID))
	}
	return nil
}

func (db *SemesterDB) GetByID(ctx context.Context, id string) (*model.Semester, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date FROM semesters WHERE id = ?`, id)

	var s model.Semester
	if err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("semester", id)
		}
		return nil, fmt.Errorf("sqlite: getting semester %s: %w", id, err)
	}
	return &s, nil
}

func (db *SemesterDB) List(ctx context.Context) ([]model.Semester, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, start_date, end_date FROM semesters ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing semesters: %w", err)
	}
	defer rows.Close()

	var semesters []model.Semester
	for rows.Next() {
		var s model.Semester
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate); err != nil {
			return nil, fmt.Errorf("sqlite: scanning semester: %w", err)
		}
		semesters = append(semesters, s)
	}
	return semesters, rows.Err()
}

// GetActive returns the semester containing now. Between semesters (or
// before the first one) there is no active semester — that's a NotFound,
// and callers surface it as "enrollment is closed right now".
func (db *SemesterDB) GetActive(ctx context.Context, now time.Time) (*model.Semester, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date FROM semesters
		 WHERE start_date <= ? AND end_date >= ?
		 ORDER BY start_date DESC LIMIT 1`, now, now)

	var s model.Semester
	if err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("active semester", now.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("sqlite: getting active semester: %w", err)
	}
	return &s, nil
}
