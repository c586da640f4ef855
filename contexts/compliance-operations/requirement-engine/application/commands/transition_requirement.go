package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/catalog"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/services"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// TransitionRequirementCommand is transport-agnostic input for a requirement
// workflow status change.
type TransitionRequirementCommand struct {
	IdempotencyKey string
	UserID         string
	RequirementID  string
	NewStatus      string
	Score          *float64
	Notes          string
	PerformedBy    string
}

// TransitionRequirementResult carries the persisted record, the recomputed
// rollup, and the advancement decision. Warnings flag degraded side channels
// after a committed primary write.
type TransitionRequirementResult struct {
	Record      entities.ComplianceRecord    `json:"record"`
	Summary     ports.ComplianceSummary      `json:"summary"`
	Advancement services.AdvancementDecision `json:"advancement"`
	Warnings    []string                     `json:"warnings,omitempty"`
	Replayed    bool                         `json:"replayed"`
}

// TransitionRequirementUseCase applies a requirement status change: persist,
// audit, recompute the rollup, evaluate advancement, notify.
type TransitionRequirementUseCase struct {
	Repo              ports.Repository
	Audit             ports.AuditLog
	Notifier          ports.Notifier
	Outbox            ports.OutboxRepository
	Idempotency       ports.IdempotencyStore
	Catalog           *catalog.Registry
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	IdempotencyTTL    time.Duration
	StoreTimeout      time.Duration
	SideEffectTimeout time.Duration
	Logger            *slog.Logger
}

func (u TransitionRequirementUseCase) Execute(ctx context.Context, cmd TransitionRequirementCommand) (TransitionRequirementResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return TransitionRequirementResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if strings.TrimSpace(cmd.UserID) == "" || strings.TrimSpace(cmd.RequirementID) == "" {
		return TransitionRequirementResult{}, domainerrors.ErrInvalidRequest
	}

	// No from-state guard on purpose: supervisors may revert a record from
	// any workflow status to any other.
	newStatus, ok := entities.ParseWorkflowStatus(cmd.NewStatus)
	if !ok {
		return TransitionRequirementResult{}, domainerrors.ErrInvalidStatus
	}
	newCompliance, err := services.MapWorkflowStatus(newStatus)
	if err != nil {
		return TransitionRequirementResult{}, err
	}

	requestHash, err := hashRequest(struct {
		UserID        string   `json:"user_id"`
		RequirementID string   `json:"requirement_id"`
		NewStatus     string   `json:"new_status"`
		Score         *float64 `json:"score,omitempty"`
		Notes         string   `json:"notes,omitempty"`
		RequestType   string   `json:"request_type"`
	}{
		UserID:        strings.TrimSpace(cmd.UserID),
		RequirementID: strings.TrimSpace(cmd.RequirementID),
		NewStatus:     string(newStatus),
		Score:         cmd.Score,
		Notes:         strings.TrimSpace(cmd.Notes),
		RequestType:   "transition_requirement",
	})
	if err != nil {
		return TransitionRequirementResult{}, err
	}

	now := u.now()
	idempotencyKey := idempotencyKeyPrefix + strings.TrimSpace(cmd.IdempotencyKey)

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return TransitionRequirementResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return TransitionRequirementResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay TransitionRequirementResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return TransitionRequirementResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	userID := strings.TrimSpace(cmd.UserID)
	requirementID := strings.TrimSpace(cmd.RequirementID)

	var user entities.User
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var readErr error
		user, readErr = u.Repo.GetUser(c, userID)
		return readErr
	}); err != nil {
		return TransitionRequirementResult{}, err
	}
	if !user.Active {
		return TransitionRequirementResult{}, domainerrors.ErrUserDeactivated
	}

	var assignment entities.TierAssignment
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var readErr error
		assignment, readErr = u.Repo.GetTierAssignment(c, userID)
		return readErr
	}); err != nil {
		return TransitionRequirementResult{}, err
	}

	record, exists, err := u.Repo.GetComplianceRecord(ctx, userID, requirementID)
	if err != nil {
		return TransitionRequirementResult{}, err
	}
	if !exists || !record.IsActive() {
		return TransitionRequirementResult{}, domainerrors.ErrRecordNotFound
	}
	oldStatus := record.WorkflowStatus

	// Primary write with one optimistic retry: on a version conflict the
	// record is re-read and the transition re-derived.
	var updated entities.ComplianceRecord
	for attempt := 0; ; attempt++ {
		candidate := record
		candidate.WorkflowStatus = newStatus
		candidate.ComplianceStatus = newCompliance
		if cmd.Score != nil {
			candidate.Score = cmd.Score
		}
		if strings.TrimSpace(cmd.Notes) != "" {
			candidate.Notes = strings.TrimSpace(cmd.Notes)
		}
		candidate.UpdatedAt = now

		writeErr := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
			var upErr error
			updated, upErr = u.Repo.UpsertComplianceRecord(c, candidate, record.Version)
			return upErr
		})
		if writeErr == nil {
			break
		}
		if !errors.Is(writeErr, domainerrors.ErrVersionConflict) || attempt >= 1 {
			logger.Error("requirement transition write failed",
				"event", "compliance_transition_write_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", userID,
				"requirement_id", requirementID,
				"error", writeErr.Error(),
			)
			return TransitionRequirementResult{}, writeErr
		}
		record, exists, err = u.Repo.GetComplianceRecord(ctx, userID, requirementID)
		if err != nil {
			return TransitionRequirementResult{}, err
		}
		if !exists || !record.IsActive() {
			return TransitionRequirementResult{}, domainerrors.ErrRecordNotFound
		}
		oldStatus = record.WorkflowStatus
	}

	// Primary write committed: everything below degrades to warnings.
	var warnings []string

	auditID, idErr := u.IDGenerator.NewID(ctx)
	if idErr != nil {
		warnings = append(warnings, "audit id generation failed")
	} else if auditErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Audit.Append(c, entities.AuditEntry{
			EntryID:     auditID,
			UserID:      userID,
			PerformedBy: strings.TrimSpace(cmd.PerformedBy),
			Detail: entities.RequirementStatusDetail{
				RequirementID: requirementID,
				OldStatus:     oldStatus,
				NewStatus:     newStatus,
				Score:         cmd.Score,
			},
			Notes:     strings.TrimSpace(cmd.Notes),
			CreatedAt: now,
		})
	}); auditErr != nil {
		warnings = append(warnings, "audit append failed")
		logger.Warn("requirement transition audit append failed",
			"event", "compliance_transition_audit_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", userID,
			"requirement_id", requirementID,
			"error", auditErr.Error(),
		)
	}

	summary, advancement, summaryWarnings := u.recomputeAndEvaluate(ctx, logger, user, assignment, now)
	warnings = append(warnings, summaryWarnings...)

	warnings = append(warnings, u.notify(ctx, logger, user, updated, assignment, advancement, now)...)

	if row, rowErr := buildOutboxRow(ctx, u.IDGenerator, ports.EventRequirementStatusChanged, userID, entities.RequirementStatusDetail{
		RequirementID: requirementID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Score:         cmd.Score,
	}, now); rowErr != nil {
		warnings = append(warnings, "outbox event build failed")
	} else if outboxErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Outbox.AppendOutbox(c, row)
	}); outboxErr != nil {
		warnings = append(warnings, "outbox append failed")
	}

	result := TransitionRequirementResult{
		Record:      updated,
		Summary:     summary,
		Advancement: advancement,
		Warnings:    warnings,
	}

	if payload, marshalErr := json.Marshal(result); marshalErr != nil {
		warnings = append(warnings, "idempotency payload encode failed")
		result.Warnings = warnings
	} else if putErr := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "transition_requirement",
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); putErr != nil {
		warnings = append(warnings, "idempotency record save failed")
		result.Warnings = warnings
	}

	logger.Info("requirement transition completed",
		"event", "compliance_transition_completed",
		"module", "compliance-operations/requirement-engine",
		"layer", "application",
		"user_id", userID,
		"requirement_id", requirementID,
		"old_status", string(oldStatus),
		"new_status", string(newStatus),
		"completion_percentage", summary.CompletionPercentage,
		"advancement_eligible", advancement.Eligible,
		"warnings", len(warnings),
	)
	return result, nil
}

// recomputeAndEvaluate refreshes the stored rollup and evaluates tier
// advancement. Runs after the primary write; failures become warnings.
func (u TransitionRequirementUseCase) recomputeAndEvaluate(
	ctx context.Context,
	logger *slog.Logger,
	user entities.User,
	assignment entities.TierAssignment,
	now time.Time,
) (ports.ComplianceSummary, services.AdvancementDecision, []string) {
	var warnings []string

	defs, ok := u.Catalog.Template(user.Role, assignment.Tier)
	if !ok {
		warnings = append(warnings, "no template for current role and tier")
		return ports.ComplianceSummary{UserID: user.UserID, Role: user.Role, Tier: assignment.Tier, CalculatedAt: now},
			services.EvaluateTierAdvancement(assignment.Tier, 0), warnings
	}

	var records []entities.ComplianceRecord
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var listErr error
		records, listErr = u.Repo.ListComplianceRecords(c, user.UserID)
		return listErr
	}); err != nil {
		warnings = append(warnings, "summary recompute failed")
		return ports.ComplianceSummary{UserID: user.UserID, Role: user.Role, Tier: assignment.Tier, CalculatedAt: now},
			services.EvaluateTierAdvancement(assignment.Tier, assignment.CompletionPercentage), warnings
	}

	summary := application.ComputeSummary(user.UserID, user.Role, assignment.Tier, defs, records, now)
	advancement := services.EvaluateTierAdvancement(assignment.Tier, summary.CompletionPercentage)

	for attempt := 0; ; attempt++ {
		save := assignment
		save.CompletionPercentage = summary.CompletionPercentage
		save.UpdatedAt = now

		err := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
			_, saveErr := u.Repo.SaveTierAssignment(c, save, assignment.Version)
			return saveErr
		})
		if err == nil {
			break
		}
		if errors.Is(err, domainerrors.ErrVersionConflict) && attempt < 1 {
			fresh, readErr := u.Repo.GetTierAssignment(ctx, user.UserID)
			if readErr == nil {
				assignment = fresh
				continue
			}
		}
		warnings = append(warnings, "completion percentage save failed")
		logger.Warn("tier assignment completion save failed",
			"event", "compliance_completion_save_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", user.UserID,
			"error", err.Error(),
		)
		break
	}
	return summary, advancement, warnings
}

func (u TransitionRequirementUseCase) notify(
	ctx context.Context,
	logger *slog.Logger,
	user entities.User,
	record entities.ComplianceRecord,
	assignment entities.TierAssignment,
	advancement services.AdvancementDecision,
	now time.Time,
) []string {
	var warnings []string

	send := func(notificationType entities.NotificationType, title string, message string, metadata map[string]string) {
		notificationID, idErr := u.IDGenerator.NewID(ctx)
		if idErr != nil {
			warnings = append(warnings, "notification id generation failed")
			return
		}
		if err := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
			return u.Notifier.Send(c, entities.Notification{
				NotificationID: notificationID,
				UserID:         user.UserID,
				Type:           notificationType,
				Title:          title,
				Message:        message,
				Metadata:       metadata,
				CreatedAt:      now,
			})
		}); err != nil {
			warnings = append(warnings, "notification dispatch failed")
			logger.Warn("requirement transition notification failed",
				"event", "compliance_transition_notify_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", user.UserID,
				"notification_type", string(notificationType),
				"error", err.Error(),
			)
		}
	}

	send(
		entities.NotificationRequirementUpdate,
		"Requirement status updated",
		record.RequirementName+" is now "+string(record.WorkflowStatus),
		map[string]string{
			"requirement_id": record.RequirementID,
			"status":         string(record.WorkflowStatus),
		},
	)

	// Second, distinct notification only when eligibility newly arises.
	if advancement.Eligible && assignment.CompletionPercentage < advancement.RequiredPercentage {
		send(
			entities.NotificationTierAdvancementEligible,
			"Tier advancement available",
			"You have met the requirements to advance to the robust compliance tier",
			map[string]string{"next_tier": string(entities.TierRobust)},
		)
	}
	return warnings
}

func (u TransitionRequirementUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u TransitionRequirementUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
