package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// ReconcileOutcome reports what a reconciliation pass changed.
type ReconcileOutcome struct {
	Template    []catalog.RequirementDefinition `json:"-"`
	Provisioned []string                        `json:"provisioned,omitempty"`
	Reactivated []string                        `json:"reactivated,omitempty"`
	Superseded  []string                        `json:"superseded,omitempty"`
}

// ReconcileRequirements is the single shared primitive that aligns a user's
// active compliance records with the template for (role, tier). Both the
// tier-switch and role-change paths go through here; the two must never
// diverge on which requirements survive a change.
//
// The pass is idempotent: requirements already active are left untouched,
// superseded rows are reactivated rather than duplicated, and stale active
// rows are marked not_applicable.
func ReconcileRequirements(
	ctx context.Context,
	repo ports.Repository,
	registry *catalog.Registry,
	idgen ports.IDGenerator,
	logger *slog.Logger,
	userID string,
	role entities.Role,
	tier entities.Tier,
	storeTimeout time.Duration,
	now time.Time,
) (ReconcileOutcome, error) {
	defs, ok := registry.Template(role, tier)
	if !ok {
		return ReconcileOutcome{}, domainerrors.ErrTemplateNotFound
	}
	outcome := ReconcileOutcome{Template: defs}

	var records []entities.ComplianceRecord
	err := ReadGuard(ctx, storeTimeout, func(c context.Context) error {
		var listErr error
		records, listErr = repo.ListComplianceRecords(c, userID)
		return listErr
	})
	if err != nil {
		return ReconcileOutcome{}, err
	}

	byRequirement := make(map[string]entities.ComplianceRecord, len(records))
	for _, record := range records {
		byRequirement[record.RequirementID] = record
	}

	inTemplate := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		inTemplate[def.ID] = struct{}{}

		existing, exists := byRequirement[def.ID]
		if exists && existing.IsActive() {
			continue
		}

		if !exists {
			recordID, idErr := idgen.NewID(ctx)
			if idErr != nil {
				return outcome, idErr
			}
			record := newRecordFromDefinition(recordID, userID, def, now)
			if writeErr := WriteGuard(ctx, storeTimeout, func(c context.Context) error {
				_, upErr := repo.UpsertComplianceRecord(c, record, 0)
				return upErr
			}); writeErr != nil {
				return outcome, writeErr
			}
			outcome.Provisioned = append(outcome.Provisioned, def.ID)
			continue
		}

		// Superseded row for a requirement that is back in the template:
		// reactivate in place, never create a duplicate.
		reactivated := existing
		reactivated.WorkflowStatus = entities.WorkflowPending
		reactivated.ComplianceStatus = entities.CompliancePending
		reactivated.Notes = "requirement re-provisioned"
		reactivated.Score = nil
		due := now.AddDate(0, 0, def.DueDays)
		reactivated.DueAt = &due
		reactivated.AssignedAt = now
		reactivated.UpdatedAt = now
		if writeErr := WriteGuard(ctx, storeTimeout, func(c context.Context) error {
			_, upErr := repo.UpsertComplianceRecord(c, reactivated, existing.Version)
			return upErr
		}); writeErr != nil {
			return outcome, writeErr
		}
		outcome.Reactivated = append(outcome.Reactivated, def.ID)
	}

	var stale []string
	for _, record := range records {
		if !record.IsActive() {
			continue
		}
		if _, keep := inTemplate[record.RequirementID]; !keep {
			stale = append(stale, record.RequirementID)
		}
	}
	if len(stale) > 0 {
		if writeErr := WriteGuard(ctx, storeTimeout, func(c context.Context) error {
			_, naErr := repo.SetRecordsNotApplicable(c, userID, stale, "superseded by role/tier change", now)
			return naErr
		}); writeErr != nil {
			return outcome, writeErr
		}
		outcome.Superseded = stale
	}

	if len(outcome.Provisioned) > 0 || len(outcome.Reactivated) > 0 || len(outcome.Superseded) > 0 {
		ResolveLogger(logger).Info("requirement set reconciled",
			"event", "compliance_requirements_reconciled",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", userID,
			"role", string(role),
			"tier", string(tier),
			"provisioned", len(outcome.Provisioned),
			"reactivated", len(outcome.Reactivated),
			"superseded", len(outcome.Superseded),
		)
	}
	return outcome, nil
}

func newRecordFromDefinition(recordID string, userID string, def catalog.RequirementDefinition, now time.Time) entities.ComplianceRecord {
	due := now.AddDate(0, 0, def.DueDays)
	return entities.ComplianceRecord{
		RecordID:         recordID,
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
	}
}
