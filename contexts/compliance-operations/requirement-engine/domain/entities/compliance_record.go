package entities

import "time"

// ComplianceRecord is one row per (user, requirement). Records are superseded by
// not_applicable when a role/tier change drops the requirement; they are never
// hard-deleted.
type ComplianceRecord struct {
	RecordID         string
	UserID           string
	RequirementID    string
	RequirementName  string
	Category         string
	Mandatory        bool
	PointValue       int
	WorkflowStatus   WorkflowStatus
	ComplianceStatus ComplianceStatus
	Score            *float64
	Notes            string
	DueAt            *time.Time
	AssignedAt       time.Time
	UpdatedAt        time.Time
	Version          int64
}

// IsActive reports whether the record counts toward the user's current
// requirement set.
func (r ComplianceRecord) IsActive() bool {
	return r.ComplianceStatus != ComplianceNotApplicable
}
