package model

import "time"

// Semester is one academic term (e.g. "Spring 2025"). Semester IDs follow
// the registrar convention: year + start month, so Spring 2025 = "202501".
type Semester struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate"   db:"end_date"`
}

// IsActive reports whether the given instant falls within the semester.
// "The active semester" everywhere in the app means the one containing now.
func (s *Semester) IsActive(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}
