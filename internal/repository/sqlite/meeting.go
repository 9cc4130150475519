package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// MeetingDB is the meetings sub-repository. Obtain one from DB.Meetings().
type MeetingDB struct {
	conn *sql.DB
}

var _ repository.MeetingRepository = (*MeetingDB)(nil)

const meetingColumns = `id, name, type, starts_at, ends_at, room,
	description, host_id, is_published, created_at, updated_at`

func (db *MeetingDB) Create(ctx context.Context, m *model.Meeting) error {
	now := time.Now()
	m.ID = xid.New().String()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meetings (`+meetingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Type, m.StartsAt, m.EndsAt, m.Room,
		m.Description, m.HostID, m.IsPublished, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting meeting: %w", err)
	}
	return nil
}

func (db *MeetingDB) GetByID(ctx context.Context, id string) (*model.Meeting, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)

	m, err := scanMeeting(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meeting", id)
		}
		return nil, fmt.Errorf("sqlite: getting meeting %s: %w", id, err)
	}
	return m, nil
}

// List returns meetings starting in [from, to), oldest first. The calendar
// requests a month at a time; the upcoming list requests [now, +inf).
func (db *MeetingDB) List(ctx context.Context, from, to time.Time, publishedOnly bool) ([]model.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE starts_at >= ? AND starts_at < ?`
	args := []any{from, to}
	if publishedOnly {
		query += " AND is_published = 1"
	}
	query += " ORDER BY starts_at"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meetings: %w", err)
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	return meetings, rows.Err()
}

func scanMeeting(scan func(...any) error) (*model.Meeting, error) {
	var m model.Meeting
	err := scan(
		&m.ID, &m.Name, &m.Type, &m.StartsAt, &m.EndsAt, &m.Room,
		&m.Description, &m.HostID, &m.IsPublished, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
