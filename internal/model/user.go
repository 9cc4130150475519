// Package model defines the data structures used throughout the application.
package model

import "time"

// User roles. RPI members sign up with a campus email and have an RCS ID;
// external members (community contributors, alumni) do not.
const (
	RoleRPI      = "rpi"
	RoleExternal = "external"
)

// User represents a member account.
//
// A user authenticates with email+password and may additionally link up to
// two external identities: a Discord account and a GitHub account. Both
// external identity columns are nullable and UNIQUE across all users — a
// given Discord ID or GitHub username can be linked to at most one account
// at a time. The database constraint is the single arbiter of that rule;
// application code never pre-checks for an existing link before writing
// (a read-then-write check would race with concurrent callbacks).
//
// WHY *string AND NOT string FOR THE EXTERNAL IDS?
// An empty string is a legal-looking value, and a UNIQUE column full of ""
// would reject the second unlinked user. NULL is exempt from UNIQUE in
// SQLite (and SQL generally), so "not linked" must be NULL, which in Go
// maps to a nil pointer.
type User struct {
	ID             string    `json:"id"             db:"id"`
	Email          string    `json:"email"          db:"email"`
	PasswordHash   string    `json:"-"              db:"password_hash"`
	Role           string    `json:"role"           db:"role"` // "rpi" or "external"
	FirstName      string    `json:"firstName"      db:"first_name"`
	LastName       string    `json:"lastName"       db:"last_name"`
	RcsID          string    `json:"rcsId"          db:"rcs_id"`          // campus ID, empty for external members
	GraduationYear int       `json:"graduationYear" db:"graduation_year"` // 0 if unknown / not applicable
	DiscordUserID  *string   `json:"discordUserId"  db:"discord_user_id"` // nil = not linked, UNIQUE
	GitHubUsername *string   `json:"githubUsername" db:"github_username"` // nil = not linked, UNIQUE
	OrganizationID *string   `json:"organizationId" db:"organization_id"`
	IsApproved     bool      `json:"isApproved"     db:"is_approved"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// DisplayName returns the user's full name, falling back to the local part
// of their email when the profile hasn't been filled out yet.
func (u *User) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		name := u.FirstName
		if u.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.LastName
		}
		return name
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

// IsSetUp reports whether the user has completed their profile: name filled
// in and both external accounts linked. Record-creating operations
// (enrolling, proposing a project) are gated on this.
func (u *User) IsSetUp() bool {
	return u.FirstName != "" &&
		u.LastName != "" &&
		u.DiscordUserID != nil &&
		u.GitHubUsername != nil
}
