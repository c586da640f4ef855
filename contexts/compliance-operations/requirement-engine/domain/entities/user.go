package entities

import "time"

// User is the engine's projection of a practitioner account. Role and tier are
// mutated only through the orchestrators; accounts are deactivated, never deleted.
type User struct {
	UserID        string
	DisplayName   string
	Email         string
	Role          Role
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeactivatedAt *time.Time
}
