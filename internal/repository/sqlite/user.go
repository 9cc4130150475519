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

// UserDB is the users sub-repository. Obtain one from DB.Users().
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, password_hash, role, first_name, last_name,
	rcs_id, graduation_year, discord_user_id, github_username,
	organization_id, is_approved, created_at, updated_at`

// Create inserts a new user. Returns apperror.ErrConflict (wrapped) if the
// email — or an already-set external id — collides with an existing row.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = model.RoleRPI
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.RcsID, user.GraduationYear,
		user.DiscordUserID, user.GitHubUsername, user.OrganizationID,
		user.IsApproved, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return conflictOr(err, "a user with that email or linked account already exists",
			fmt.Sprintf("sqlite: inserting user %s", user.Email))
	}
	return nil
}

// Update persists every mutable field of the user.
//
// This is the write the identity linking flow depends on: when the update
// sets discord_user_id or github_username to a value held by a DIFFERENT
// row, SQLite rejects it and the caller sees apperror.ErrConflict. Writing
// the same value back to the SAME row is not a conflict — a UNIQUE index
// never conflicts with the row that already holds the value — which is
// what makes re-linking the same account a harmless no-op.
func (db *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, role = ?,
			first_name = ?, last_name = ?, rcs_id = ?, graduation_year = ?,
			discord_user_id = ?, github_username = ?, organization_id = ?,
			is_approved = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.RcsID, user.GraduationYear,
		user.DiscordUserID, user.GitHubUsername, user.OrganizationID,
		user.IsApproved, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return conflictOr(err, "that account is already linked to another user",
			fmt.Sprintf("sqlite: updating user %s", user.ID))
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("sqlite: updating user: %w", apperror.NotFound("user", user.ID))
	}
	return nil
}

// GetByID retrieves a user by their internal ID.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUserWhere(ctx, "id = ?", id, "user", id)
}

// GetByEmail retrieves a user by email (the primary sign-in identifier).
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserWhere(ctx, "email = ?", email, "user", email)
}

// GetByDiscordUserID retrieves the user holding the given Discord link.
// Used by the login branch of the Discord callback.
func (db *UserDB) GetByDiscordUserID(ctx context.Context, discordUserID string) (*model.User, error) {
	return db.getUserWhere(ctx, "discord_user_id = ?", discordUserID, "user", discordUserID)
}

// GetByGitHubUsername retrieves the user holding the given GitHub link.
func (db *UserDB) GetByGitHubUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUserWhere(ctx, "github_username = ?", username, "user", username)
}

func (db *UserDB) getUserWhere(ctx context.Context, where string, arg any, resource, key string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(resource, key)
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", resource, key, err)
	}
	return u, nil
}

// List returns users matching the options, name-ordered.
//
// The semester filter joins through enrollments — "users in Spring 2025"
// means users with an enrollment row for that semester. Search matches
// name, RCS ID, and graduation year, mirroring the directory page.
func (db *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	query := `SELECT ` + prefixColumns("u", userColumns) + ` FROM users u`
	var args []any
	var where []string

	if opts.SemesterID != "" {
		query += ` JOIN enrollments e ON e.user_id = u.id`
		where = append(where, "e.semester_id = ?")
		args = append(args, opts.SemesterID)
	}
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		where = append(where,
			`(u.first_name LIKE ? OR u.last_name LIKE ? OR u.rcs_id LIKE ? OR CAST(u.graduation_year AS TEXT) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if len(where) > 0 {
		query += " WHERE " + joinAnd(where)
	}
	query += " ORDER BY u.last_name, u.first_name LIMIT ? OFFSET ?"
	args = append(args, listLimit(opts.Limit), opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// scanUser reads one user row. Taking the Scan func lets this work for
// both sql.Row and sql.Rows.
func scanUser(scan func(...any) error) (*model.User, error) {
	var u model.User
	err := scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.RcsID, &u.GraduationYear,
		&u.DiscordUserID, &u.GitHubUsername, &u.OrganizationID,
		&u.IsApproved, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
