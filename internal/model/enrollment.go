package model

import "time"

// Enrollment records a user's participation in one semester, optionally on
// a project and optionally for course credit.
//
// (UserID, SemesterID) is UNIQUE — a member enrolls at most once per
// semester. Enrolling again in the same semester updates the existing row
// (project/credits can change mid-semester) rather than failing.
type Enrollment struct {
	ID            string    `json:"id"            db:"id"`
	UserID        string    `json:"userId"        db:"user_id"`
	SemesterID    string    `json:"semesterId"    db:"semester_id"`
	ProjectID     *string   `json:"projectId"     db:"project_id"` // nil until the member picks a project
	Credits       int       `json:"credits"       db:"credits"`    // 0 = participating for experience only
	IsProjectLead bool      `json:"isProjectLead" db:"is_project_lead"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}
