package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/adapters/memory"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
)

func seedReconcileUser(t *testing.T, store *memory.Store, registry *catalog.Registry, role entities.Role, tier entities.Tier) string {
	t.Helper()
	now := time.Now().UTC()
	userID := "usr-reconcile"

	defs, ok := registry.Template(role, tier)
	if !ok {
		t.Fatalf("no template for %s/%s", role, tier)
	}
	records := make([]entities.ComplianceRecord, 0, len(defs))
	for _, def := range defs {
		due := now.AddDate(0, 0, def.DueDays)
		records = append(records, entities.ComplianceRecord{
			RecordID:         userID + "-rec-" + def.ID,
			UserID:           userID,
			RequirementID:    def.ID,
			RequirementName:  def.Name,
			Category:         def.Category,
			Mandatory:        def.Mandatory,
			PointValue:       def.PointValue,
			WorkflowStatus:   entities.WorkflowPending,
			ComplianceStatus: entities.CompliancePending,
			DueAt:            &due,
			AssignedAt:       now,
			UpdatedAt:        now,
		})
	}
	store.SeedUser(
		entities.User{UserID: userID, DisplayName: "Reconcile Tester", Role: role, Active: true, CreatedAt: now, UpdatedAt: now},
		entities.TierAssignment{UserID: userID, Tier: tier, AssignedAt: now, UpdatedAt: now},
		records,
	)
	return userID
}

func activeByRequirement(t *testing.T, store *memory.Store, userID string) map[string]entities.ComplianceRecord {
	t.Helper()
	records, err := store.ListComplianceRecords(context.Background(), userID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	active := make(map[string]entities.ComplianceRecord)
	for _, record := range records {
		if record.IsActive() {
			active[record.RequirementID] = record
		}
	}
	return active
}

func TestReconcileProvisionsAndSupersedes(t *testing.T) {
	store := memory.NewStore()
	registry := catalog.NewRegistry()
	userID := seedReconcileUser(t, store, registry, entities.RoleIT, entities.TierBasic)
	now := time.Now().UTC()

	outcome, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.RoleIT, entities.TierRobust, 0, now)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	robustDefs, _ := registry.Template(entities.RoleIT, entities.TierRobust)
	if len(outcome.Provisioned) != len(robustDefs) {
		t.Fatalf("expected %d provisioned, got %v", len(robustDefs), outcome.Provisioned)
	}
	basicDefs, _ := registry.Template(entities.RoleIT, entities.TierBasic)
	if len(outcome.Superseded) != len(basicDefs) {
		t.Fatalf("expected %d superseded, got %v", len(basicDefs), outcome.Superseded)
	}

	active := activeByRequirement(t, store, userID)
	if len(active) != len(robustDefs) {
		t.Fatalf("expected %d active records, got %d", len(robustDefs), len(active))
	}
	for _, def := range robustDefs {
		if _, ok := active[def.ID]; !ok {
			t.Fatalf("requirement %s missing from active set", def.ID)
		}
	}
	for _, def := range basicDefs {
		if _, ok := active[def.ID]; ok {
			t.Fatalf("requirement %s should be superseded", def.ID)
		}
	}
}

func TestReconcileSecondPassIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	registry := catalog.NewRegistry()
	userID := seedReconcileUser(t, store, registry, entities.RoleIT, entities.TierBasic)
	now := time.Now().UTC()

	if _, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.RoleIT, entities.TierRobust, 0, now); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	outcome, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.RoleIT, entities.TierRobust, 0, now)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if len(outcome.Provisioned) != 0 || len(outcome.Reactivated) != 0 || len(outcome.Superseded) != 0 {
		t.Fatalf("second pass must change nothing, got %+v", outcome)
	}
}

func TestReconcileReactivatesInsteadOfDuplicating(t *testing.T) {
	store := memory.NewStore()
	registry := catalog.NewRegistry()
	userID := seedReconcileUser(t, store, registry, entities.RoleIT, entities.TierBasic)
	now := time.Now().UTC()

	if _, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.RoleIT, entities.TierRobust, 0, now); err != nil {
		t.Fatalf("up pass failed: %v", err)
	}
	outcome, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.RoleIT, entities.TierBasic, 0, now)
	if err != nil {
		t.Fatalf("down pass failed: %v", err)
	}

	basicDefs, _ := registry.Template(entities.RoleIT, entities.TierBasic)
	if len(outcome.Reactivated) != len(basicDefs) {
		t.Fatalf("expected %d reactivated, got %v", len(basicDefs), outcome.Reactivated)
	}
	if len(outcome.Provisioned) != 0 {
		t.Fatalf("round trip must not provision new rows, got %v", outcome.Provisioned)
	}

	active := activeByRequirement(t, store, userID)
	for _, def := range basicDefs {
		record, ok := active[def.ID]
		if !ok {
			t.Fatalf("requirement %s missing after reactivation", def.ID)
		}
		if record.RecordID != userID+"-rec-"+def.ID {
			t.Fatalf("requirement %s got a new record id %s", def.ID, record.RecordID)
		}
		if record.ComplianceStatus != entities.CompliancePending {
			t.Fatalf("reactivated record %s should be pending, got %s", def.ID, record.ComplianceStatus)
		}
	}
}

func TestReconcileUnknownTemplate(t *testing.T) {
	store := memory.NewStore()
	registry := catalog.NewRegistry()
	userID := seedReconcileUser(t, store, registry, entities.RoleIT, entities.TierBasic)

	_, err := ReconcileRequirements(context.Background(), store, registry, store, nil, userID, entities.Role("ZZ"), entities.TierBasic, 0, time.Now().UTC())
	if !errors.Is(err, domainerrors.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
