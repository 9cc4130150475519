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

// ProjectDB is the projects sub-repository. Obtain one from DB.Projects().
type ProjectDB struct {
	conn *sql.DB
}

var _ repository.ProjectRepository = (*ProjectDB)(nil)

const projectColumns = `id, name, description, tags, external_chat_url,
	homepage_url, owner_id, organization_id, is_approved, created_at, updated_at`

// Create inserts a newly proposed project (unapproved by default).
func (db *ProjectDB) Create(ctx context.Context, project *model.Project) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.Tags,
		project.ExternalChatURL, project.HomepageURL,
		project.OwnerID, project.OrganizationID, project.IsApproved,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project %q: %w", project.Name, err)
	}
	return nil
}

// GetByID retrieves a project.
func (db *ProjectDB) GetByID(ctx context.Context, id string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// List returns projects, optionally filtered to approved ones and to a
// semester (projects with at least one enrollment that semester).
func (db *ProjectDB) List(ctx context.Context, opts repository.ListOptions, approvedOnly bool) ([]model.Project, error) {
	query := `SELECT DISTINCT ` + prefixColumns("p", projectColumns) + ` FROM projects p`
	var args []any
	var where []string

	if opts.SemesterID != "" {
		query += ` JOIN enrollments e ON e.project_id = p.id`
		where = append(where, "e.semester_id = ?")
		args = append(args, opts.SemesterID)
	}
	if approvedOnly {
		where = append(where, "p.is_approved = 1")
	}
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		where = append(where, `(p.name LIKE ? OR p.description LIKE ? OR p.tags LIKE ?)`)
		args = append(args, like, like, like)
	}
	if len(where) > 0 {
		query += " WHERE " + joinAnd(where)
	}
	query += " ORDER BY p.name LIMIT ? OFFSET ?"
	args = append(args, listLimit(opts.Limit), opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(scan func(...any) error) (*model.Project, error) {
	var p model.Project
	err := scan(
		&p.ID, &p.Name, &p.Description, &p.Tags, &p.ExternalChatURL,
		&p.HomepageURL, &p.OwnerID, &p.OrganizationID, &p.IsApproved,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
