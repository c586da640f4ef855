package services

import (
	"errors"
	"testing"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
)

func TestMapWorkflowStatusCoversEveryWorkflowStatus(t *testing.T) {
	expected := map[entities.WorkflowStatus]entities.ComplianceStatus{
		entities.WorkflowApproved:         entities.ComplianceCompliant,
		entities.WorkflowRevisionRequired: entities.ComplianceNonCompliant,
		entities.WorkflowRejected:         entities.ComplianceNonCompliant,
		entities.WorkflowSubmitted:        entities.ComplianceWarning,
		entities.WorkflowPending:          entities.CompliancePending,
		entities.WorkflowInProgress:       entities.CompliancePending,
	}

	for workflow, want := range expected {
		got, err := MapWorkflowStatus(workflow)
		if err != nil {
			t.Fatalf("MapWorkflowStatus(%s) failed: %v", workflow, err)
		}
		if got != want {
			t.Fatalf("MapWorkflowStatus(%s) = %s, want %s", workflow, got, want)
		}
	}
}

func TestMapWorkflowStatusRejectsUnknownInput(t *testing.T) {
	for _, raw := range []string{"done", "APPROVED ", "", "complete"} {
		_, err := MapWorkflowStatus(entities.WorkflowStatus(raw))
		if !errors.Is(err, domainerrors.ErrInvalidStatus) {
			t.Fatalf("MapWorkflowStatus(%q) err = %v, want ErrInvalidStatus", raw, err)
		}
	}
}
