package entities

import "time"

type NotificationType string

const (
	NotificationRequirementUpdate       NotificationType = "requirement_update"
	NotificationTierAdvancementEligible NotificationType = "tier_advancement_eligible"
	NotificationTierChanged             NotificationType = "tier_changed"
	NotificationRoleChanged             NotificationType = "role_changed"
	NotificationAccountDeactivated      NotificationType = "account_deactivated"
)

// Notification is a write-once user-facing message; delivery transport is a
// collaborator concern.
type Notification struct {
	NotificationID string
	UserID         string
	Type           NotificationType
	Title          string
	Message        string
	Metadata       map[string]string
	CreatedAt      time.Time
	ReadAt         *time.Time
}
