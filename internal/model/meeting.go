package model

import "time"

// Meeting types. Small group meetings are per-team; large group meetings
// are the whole club.
const (
	MeetingSmallGroup = "small_group"
	MeetingLargeGroup = "large_group"
	MeetingWorkshop   = "workshop"
	MeetingMentor     = "mentor"
)

// Meeting is a scheduled club event. Unpublished meetings are drafts,
// visible only to signed-in members.
type Meeting struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Type        string    `json:"type"        db:"type"`
	StartsAt    time.Time `json:"startsAt"    db:"starts_at"`
	EndsAt      time.Time `json:"endsAt"      db:"ends_at"`
	Room        string    `json:"room"        db:"room"`
	Description string    `json:"description" db:"description"`
	HostID      *string   `json:"hostId"      db:"host_id"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// DisplayName combines the meeting type and name the way the calendar
// shows it, e.g. "Workshop: Intro to Git".
func (m *Meeting) DisplayName() string {
	label := map[string]string{
		MeetingSmallGroup: "Small Group",
		MeetingLargeGroup: "Large Group",
		MeetingWorkshop:   "Workshop",
		MeetingMentor:     "Mentor",
	}[m.Type]
	if label == "" {
		return m.Name
	}
	if m.Name == "" {
		return label
	}
	return label + ": " + m.Name
}
