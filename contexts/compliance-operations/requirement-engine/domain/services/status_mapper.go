package services

import (
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
)

// MapWorkflowStatus translates a requirement workflow status into the coarse
// compliance status used for aggregate scoring. Unrecognized input fails hard;
// a silent default would corrupt completion math downstream.
func MapWorkflowStatus(status entities.WorkflowStatus) (entities.ComplianceStatus, error) {
	switch status {
	case entities.WorkflowApproved:
		return entities.ComplianceCompliant, nil
	case entities.WorkflowRevisionRequired, entities.WorkflowRejected:
		return entities.ComplianceNonCompliant, nil
	case entities.WorkflowSubmitted:
		return entities.ComplianceWarning, nil
	case entities.WorkflowPending, entities.WorkflowInProgress:
		return entities.CompliancePending, nil
	default:
		return "", domainerrors.ErrInvalidStatus
	}
}
