package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TransitionRequirementRequest struct {
	NewStatus string   `json:"new_status"`
	Score     *float64 `json:"score,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type SwitchTierRequest struct {
	NewTier string `json:"new_tier"`
	Reason  string `json:"reason,omitempty"`
}

type ChangeRoleRequest struct {
	NewRole string `json:"new_role"`
}

type DeactivateUserRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RecordResponse struct {
	RecordID         string     `json:"record_id"`
	UserID           string     `json:"user_id"`
	RequirementID    string     `json:"requirement_id"`
	RequirementName  string     `json:"requirement_name"`
	Category         string     `json:"category"`
	Mandatory        bool       `json:"mandatory"`
	PointValue       int        `json:"point_value"`
	WorkflowStatus   string     `json:"workflow_status"`
	ComplianceStatus string     `json:"compliance_status"`
	Score            *float64   `json:"score,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	AssignedAt       time.Time  `json:"assigned_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type SummaryResponse struct {
	UserID               string    `json:"user_id"`
	Role                 string    `json:"role"`
	Tier                 string    `json:"tier"`
	Compliant            int       `json:"compliant"`
	NonCompliant         int       `json:"non_compliant"`
	Warning              int       `json:"warning"`
	Pending              int       `json:"pending"`
	TotalActive          int       `json:"total_active"`
	MandatoryTotal       int       `json:"mandatory_total"`
	MandatoryCompliant   int       `json:"mandatory_compliant"`
	CompletionPercentage float64   `json:"completion_percentage"`
	CalculatedAt         time.Time `json:"calculated_at"`
}

type AdvancementResponse struct {
	CurrentTier        string  `json:"current_tier"`
	Eligible           bool    `json:"eligible"`
	NextTier           string  `json:"next_tier,omitempty"`
	RequiredPercentage float64 `json:"required_percentage"`
	Message            string  `json:"message"`
}

type AssignmentResponse struct {
	UserID               string    `json:"user_id"`
	Tier                 string    `json:"tier"`
	CompletionPercentage float64   `json:"completion_percentage"`
	AssignedAt           time.Time `json:"assigned_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type TransitionResponse struct {
	Record      RecordResponse      `json:"record"`
	Summary     SummaryResponse     `json:"summary"`
	Advancement AdvancementResponse `json:"advancement"`
	Warnings    []string            `json:"warnings,omitempty"`
	Replayed    bool                `json:"replayed"`
}

type TierSwitchResponse struct {
	Assignment  AssignmentResponse  `json:"assignment"`
	Summary     SummaryResponse     `json:"summary"`
	Advancement AdvancementResponse `json:"advancement"`
	Changed     bool                `json:"changed"`
	Message     string              `json:"message,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Replayed    bool                `json:"replayed"`
}

type RoleChangeResponse struct {
	UserID      string              `json:"user_id"`
	Role        string              `json:"role"`
	Assignment  AssignmentResponse  `json:"assignment"`
	Summary     SummaryResponse     `json:"summary"`
	Advancement AdvancementResponse `json:"advancement"`
	Changed     bool                `json:"changed"`
	TierChanged bool                `json:"tier_changed"`
	Message     string              `json:"message,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Replayed    bool                `json:"replayed"`
}

type DeactivateResponse struct {
	UserID          string   `json:"user_id"`
	Active          bool     `json:"active"`
	RecordsAffected int      `json:"records_affected"`
	Changed         bool     `json:"changed"`
	Message         string   `json:"message,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Replayed        bool     `json:"replayed"`
}

type RequirementItem struct {
	Record          RecordResponse `json:"record"`
	RequirementType string         `json:"requirement_type,omitempty"`
	ValidationRules []string       `json:"validation_rules,omitempty"`
	InTemplate      bool           `json:"in_template"`
}

type RequirementsResponse struct {
	UserID string            `json:"user_id"`
	Items  []RequirementItem `json:"items"`
}

type TierStatusResponse struct {
	Assignment  AssignmentResponse  `json:"assignment"`
	Advancement AdvancementResponse `json:"advancement"`
}

type UserSummaryResponse struct {
	UserID      string              `json:"user_id"`
	DisplayName string              `json:"display_name"`
	Role        string              `json:"role"`
	Active      bool                `json:"active"`
	Assignment  AssignmentResponse  `json:"assignment"`
	Summary     SummaryResponse     `json:"summary"`
	Advancement AdvancementResponse `json:"advancement"`
}
