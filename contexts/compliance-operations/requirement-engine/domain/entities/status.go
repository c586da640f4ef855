package entities

import "strings"

// WorkflowStatus is the fine-grained requirement workflow state a record moves
// through while a submission is reviewed.
type WorkflowStatus string

const (
	WorkflowPending          WorkflowStatus = "pending"
	WorkflowInProgress       WorkflowStatus = "in_progress"
	WorkflowSubmitted        WorkflowStatus = "submitted"
	WorkflowApproved         WorkflowStatus = "approved"
	WorkflowRevisionRequired WorkflowStatus = "revision_required"
	WorkflowRejected         WorkflowStatus = "rejected"
)

func ParseWorkflowStatus(raw string) (WorkflowStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(WorkflowPending):
		return WorkflowPending, true
	case string(WorkflowInProgress):
		return WorkflowInProgress, true
	case string(WorkflowSubmitted):
		return WorkflowSubmitted, true
	case string(WorkflowApproved):
		return WorkflowApproved, true
	case string(WorkflowRevisionRequired):
		return WorkflowRevisionRequired, true
	case string(WorkflowRejected):
		return WorkflowRejected, true
	default:
		return "", false
	}
}

func IsValidWorkflowStatus(status WorkflowStatus) bool {
	_, ok := ParseWorkflowStatus(string(status))
	return ok
}

// ComplianceStatus is the coarse rollup used for aggregate scoring.
type ComplianceStatus string

const (
	ComplianceCompliant     ComplianceStatus = "compliant"
	ComplianceNonCompliant  ComplianceStatus = "non_compliant"
	ComplianceWarning       ComplianceStatus = "warning"
	CompliancePending       ComplianceStatus = "pending"
	ComplianceNotApplicable ComplianceStatus = "not_applicable"
)

func ParseComplianceStatus(raw string) (ComplianceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ComplianceCompliant):
		return ComplianceCompliant, true
	case string(ComplianceNonCompliant):
		return ComplianceNonCompliant, true
	case string(ComplianceWarning):
		return ComplianceWarning, true
	case string(CompliancePending):
		return CompliancePending, true
	case string(ComplianceNotApplicable):
		return ComplianceNotApplicable, true
	default:
		return "", false
	}
}
