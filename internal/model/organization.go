package model

import "time"

// Organization is an external group (company, lab, other club) that
// sponsors projects or members. Users and projects reference it by ID.
type Organization struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	HomepageURL string    `json:"homepageUrl" db:"homepage_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
