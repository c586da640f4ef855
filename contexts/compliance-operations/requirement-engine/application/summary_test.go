package application

import (
	"testing"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

func summaryDefs() []catalog.RequirementDefinition {
	return []catalog.RequirementDefinition{
		{ID: "req-a", Mandatory: true},
		{ID: "req-b", Mandatory: true},
		{ID: "req-c", Mandatory: true},
		{ID: "req-d", Mandatory: false},
	}
}

func record(requirementID string, status entities.ComplianceStatus) entities.ComplianceRecord {
	return entities.ComplianceRecord{
		UserID:           "user-1",
		RequirementID:    requirementID,
		ComplianceStatus: status,
	}
}

func TestComputeSummaryMandatoryOnlyPercentage(t *testing.T) {
	now := time.Now().UTC()
	records := []entities.ComplianceRecord{
		record("req-a", entities.ComplianceCompliant),
		record("req-b", entities.ComplianceCompliant),
		record("req-c", entities.CompliancePending),
		record("req-d", entities.ComplianceCompliant),
	}

	summary := ComputeSummary("user-1", entities.RoleIT, entities.TierBasic, summaryDefs(), records, now)
	if summary.CompletionPercentage != 66.7 {
		t.Fatalf("expected 66.7, got %v", summary.CompletionPercentage)
	}
	if summary.MandatoryTotal != 3 || summary.MandatoryCompliant != 2 {
		t.Fatalf("unexpected mandatory counts: %d/%d", summary.MandatoryCompliant, summary.MandatoryTotal)
	}
	if summary.Compliant != 3 || summary.Pending != 1 {
		t.Fatalf("unexpected status counts: compliant=%d pending=%d", summary.Compliant, summary.Pending)
	}
}

func TestComputeSummaryMissingRecordsCountPending(t *testing.T) {
	summary := ComputeSummary("user-1", entities.RoleIT, entities.TierBasic, summaryDefs(), nil, time.Now().UTC())
	if summary.Pending != 4 {
		t.Fatalf("expected all 4 requirements pending, got %d", summary.Pending)
	}
	if summary.CompletionPercentage != 0 {
		t.Fatalf("expected 0%% completion, got %v", summary.CompletionPercentage)
	}
}

func TestComputeSummaryIgnoresSupersededRecords(t *testing.T) {
	records := []entities.ComplianceRecord{
		record("req-a", entities.ComplianceNotApplicable),
	}
	summary := ComputeSummary("user-1", entities.RoleIT, entities.TierBasic, summaryDefs(), records, time.Now().UTC())
	if summary.Pending != 4 {
		t.Fatalf("superseded record must count as pending against the template, got pending=%d", summary.Pending)
	}
}

func TestComputeSummaryNoMandatoryRequirements(t *testing.T) {
	defs := []catalog.RequirementDefinition{
		{ID: "req-opt", Mandatory: false},
	}
	summary := ComputeSummary("user-1", entities.RoleIT, entities.TierBasic, defs, nil, time.Now().UTC())
	if summary.CompletionPercentage != 100 {
		t.Fatalf("expected 100%% with no mandatory requirements, got %v", summary.CompletionPercentage)
	}
}

func TestComputeSummaryRoundsToOneDecimal(t *testing.T) {
	defs := []catalog.RequirementDefinition{
		{ID: "r1", Mandatory: true},
		{ID: "r2", Mandatory: true},
		{ID: "r3", Mandatory: true},
		{ID: "r4", Mandatory: true},
		{ID: "r5", Mandatory: true},
		{ID: "r6", Mandatory: true},
		{ID: "r7", Mandatory: true},
	}
	records := []entities.ComplianceRecord{
		record("r1", entities.ComplianceCompliant),
	}
	summary := ComputeSummary("user-1", entities.RoleIT, entities.TierBasic, defs, records, time.Now().UTC())
	if summary.CompletionPercentage != 14.3 {
		t.Fatalf("expected 14.3, got %v", summary.CompletionPercentage)
	}
}
