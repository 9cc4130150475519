package model

import "time"

// Project is an open-source project that members can enroll in.
//
// Projects are proposed by members (OwnerID) and must be approved by an
// admin before they show up in public listings. Tags is a comma-separated
// list — a join table is overkill for a filter chip.
type Project struct {
	ID              string    `json:"id"              db:"id"`
	Name            string    `json:"name"            db:"name"`
	Description     string    `json:"description"     db:"description"`
	Tags            string    `json:"tags"            db:"tags"`
	ExternalChatURL string    `json:"externalChatUrl" db:"external_chat_url"`
	HomepageURL     string    `json:"homepageUrl"     db:"homepage_url"`
	OwnerID         *string   `json:"ownerId"         db:"owner_id"`
	OrganizationID  *string   `json:"organizationId"  db:"organization_id"`
	IsApproved      bool      `json:"isApproved"      db:"is_approved"`
	CreatedAt       time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"       db:"updated_at"`
}
