// Package repository defines the data-access interfaces consumed by the
// service layer. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/portal/internal/model"
)

// ListOptions carries the common list parameters. Search is matched
// case-insensitively against each record type's search fields; SemesterID
// filters through enrollments where that makes sense (users, projects).
type ListOptions struct {
	Limit      int
	Offset     int
	Search     string
	SemesterID string
}

// UserRepository reads and writes member accounts.
//
// Lookup methods return an error wrapping apperror.ErrNotFound when no
// row matches. Create and Update return an error wrapping
// apperror.ErrConflict when a UNIQUE constraint is violated (email,
// discord_user_id, github_username) — the caller decides what a conflict
// means; the repository never resolves one silently.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByDiscordUserID(ctx context.Context, discordUserID string) (*model.User, error)
	GetByGitHubUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
}

// ProjectRepository reads and writes projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// List returns approved projects unless opts are widened by the
	// service (approvedOnly=false shows drafts to signed-in members).
	List(ctx context.Context, opts ListOptions, approvedOnly bool) ([]model.Project, error)
}

// EnrollmentRepository reads and writes per-semester enrollments.
type EnrollmentRepository interface {
	// Upsert creates the (user, semester) enrollment or updates the
	// project/credits of an existing one. Mirrors update_or_create.
	Upsert(ctx context.Context, enrollment *model.Enrollment) error
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Enrollment, error)
}

// MeetingRepository reads meetings.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	GetByID(ctx context.Context, id string) (*model.Meeting, error)
	// List returns meetings starting in [from, to), oldest first.
	// publishedOnly hides drafts from anonymous visitors.
	List(ctx context.Context, from, to time.Time, publishedOnly bool) ([]model.Meeting, error)
}

// SemesterRepository reads semesters.
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, id string) (*model.Semester, error)
	List(ctx context.Context) ([]model.Semester, error)
	// GetActive returns the semester containing the given instant, or an
	// apperror.ErrNotFound error outside of any semester.
	GetActive(ctx context.Context, now time.Time) (*model.Semester, error)
}
