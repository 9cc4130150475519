// Package sqlite implements the repository interfaces using SQLite.
//
// WHY modernc.org/sqlite?
// It's a pure Go translation of SQLite — no CGo, no C compiler, works
// everywhere Go works. The portal is a single-server app; an embedded
// database is exactly the right amount of infrastructure.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/portal/internal/apperror"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests) and runs the
// embedded migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — important
	// for a web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Typed sub-repositories. Each record type gets its own receiver struct so
// method sets don't collide (every repository interface has a Create).
// They all share the one connection pool.

func (db *DB) Users() *UserDB             { return &UserDB{conn: db.conn} }
func (db *DB) Projects() *ProjectDB       { return &ProjectDB{conn: db.conn} }
func (db *DB) Enrollments() *EnrollmentDB { return &EnrollmentDB{conn: db.conn} }
func (db *DB) Meetings() *MeetingDB       { return &MeetingDB{conn: db.conn} }
func (db *DB) Semesters() *SemesterDB     { return &SemesterDB{conn: db.conn} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent, so it's safe to run on every startup.
//
// THE TWO UNIQUE COLUMNS THAT MATTER:
// users.discord_user_id and users.github_username are UNIQUE. These
// constraints — not application-level existence checks — are what prevent
// one external account from being linked to two members. Two concurrent
// link callbacks for the same external id cannot both succeed: SQLite
// enforces the constraint atomically at write time, and the loser gets a
// constraint error that isConflict translates to apperror.ErrConflict.
func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			homepage_url TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE,
			password_hash   TEXT NOT NULL DEFAULT '',
			role            TEXT NOT NULL DEFAULT 'rpi',
			first_name      TEXT NOT NULL DEFAULT '',
			last_name       TEXT NOT NULL DEFAULT '',
			rcs_id          TEXT NOT NULL DEFAULT '',
			graduation_year INTEGER NOT NULL DEFAULT 0,
			discord_user_id TEXT UNIQUE,
			github_username TEXT UNIQUE,
			organization_id TEXT REFERENCES organizations(id),
			is_approved     INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS semesters (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			start_date DATETIME NOT NULL,
			end_date   DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			tags              TEXT NOT NULL DEFAULT '',
			external_chat_url TEXT NOT NULL DEFAULT '',
			homepage_url      TEXT NOT NULL DEFAULT '',
			owner_id          TEXT REFERENCES users(id),
			organization_id   TEXT REFERENCES organizations(id),
			is_approved       INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			semester_id     TEXT NOT NULL REFERENCES semesters(id),
			project_id      TEXT REFERENCES projects(id),
			credits         INTEGER NOT NULL DEFAULT 0,
			is_project_lead INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, semester_id)
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			type         TEXT NOT NULL,
			starts_at    DATETIME NOT NULL,
			ends_at      DATETIME NOT NULL,
			room         TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			host_id      TEXT REFERENCES users(id),
			is_published INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_semester ON enrollments(semester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_starts_at ON meetings(starts_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}

	return nil
}

// isConflict reports whether err is a UNIQUE constraint violation.
//
// modernc.org/sqlite doesn't export a typed constraint error, so we match
// the stable SQLite error text. This is the one place driver errors are
// translated; everything above the repository matches apperror.ErrConflict.
func isConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// conflictOr wraps a write error: constraint violations become
// apperror.Conflict, everything else is returned annotated as-is.
func conflictOr(err error, message, wrap string) error {
	if isConflict(err) {
		return fmt.Errorf("%s: %w", wrap, apperror.Conflict(message))
	}
	return fmt.Errorf("%s: %w", wrap, err)
}
