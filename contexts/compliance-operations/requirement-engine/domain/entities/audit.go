package entities

import "time"

type AuditType string

const (
	AuditRequirementStatusChanged AuditType = "requirement_status_changed"
	AuditTierChanged              AuditType = "tier_changed"
	AuditRoleChanged              AuditType = "role_changed"
	AuditUserDeactivated          AuditType = "user_deactivated"
)

// AuditDetail is the closed set of typed audit payloads. One concrete detail
// type exists per audit type so new orchestration decisions cannot land in the
// log without a shape.
type AuditDetail interface {
	AuditType() AuditType
}

type RequirementStatusDetail struct {
	RequirementID string         `json:"requirement_id"`
	OldStatus     WorkflowStatus `json:"old_status"`
	NewStatus     WorkflowStatus `json:"new_status"`
	Score         *float64       `json:"score,omitempty"`
}

func (RequirementStatusDetail) AuditType() AuditType { return AuditRequirementStatusChanged }

type TierChangeDetail struct {
	OldTier Tier   `json:"old_tier"`
	NewTier Tier   `json:"new_tier"`
	Reason  string `json:"reason,omitempty"`
}

func (TierChangeDetail) AuditType() AuditType { return AuditTierChanged }

type RoleChangeDetail struct {
	OldRole     Role `json:"old_role"`
	NewRole     Role `json:"new_role"`
	TierChanged bool `json:"tier_changed"`
}

func (RoleChangeDetail) AuditType() AuditType { return AuditRoleChanged }

type DeactivationDetail struct {
	Reason          string `json:"reason,omitempty"`
	RecordsAffected int    `json:"records_affected"`
}

func (DeactivationDetail) AuditType() AuditType { return AuditUserDeactivated }

// AuditEntry is an immutable, append-only fact describing one orchestration
// decision.
type AuditEntry struct {
	EntryID     string
	UserID      string
	PerformedBy string
	Detail      AuditDetail
	Notes       string
	CreatedAt   time.Time
}

func (e AuditEntry) Type() AuditType {
	if e.Detail == nil {
		return ""
	}
	return e.Detail.AuditType()
}
