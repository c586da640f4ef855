package entities

import "time"

// TierAssignment is the per-user current tier plus the derived completion
// percentage over mandatory requirements. Version backs optimistic writes.
type TierAssignment struct {
	UserID               string
	Tier                 Tier
	CompletionPercentage float64
	AssignedAt           time.Time
	UpdatedAt            time.Time
	Version              int64
}
