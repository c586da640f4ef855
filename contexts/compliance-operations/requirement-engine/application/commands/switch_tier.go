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

type SwitchTierCommand struct {
	IdempotencyKey string
	UserID         string
	NewTier        string
	Reason         string
	PerformedBy    string
}

type SwitchTierResult struct {
	Assignment  entities.TierAssignment      `json:"assignment"`
	Summary     ports.ComplianceSummary      `json:"summary"`
	Advancement services.AdvancementDecision `json:"advancement"`
	Changed     bool                         `json:"changed"`
	Message     string                       `json:"message,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"`
	Replayed    bool                         `json:"replayed"`
}

// SwitchTierUseCase applies a tier change: persist the assignment, reconcile
// the requirement set to the new template, recompute the rollup, audit and
// notify. Switching to the current tier is a no-op success.
type SwitchTierUseCase struct {
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

func (u SwitchTierUseCase) Execute(ctx context.Context, cmd SwitchTierCommand) (SwitchTierResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return SwitchTierResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return SwitchTierResult{}, domainerrors.ErrInvalidRequest
	}
	newTier, ok := entities.ParseTier(cmd.NewTier)
	if !ok {
		return SwitchTierResult{}, domainerrors.ErrUnknownTier
	}

	requestHash, err := hashRequest(struct {
		UserID      string `json:"user_id"`
		NewTier     string `json:"new_tier"`
		Reason      string `json:"reason,omitempty"`
		RequestType string `json:"request_type"`
	}{
		UserID:      userID,
		NewTier:     string(newTier),
		Reason:      strings.TrimSpace(cmd.Reason),
		RequestType: "switch_tier",
	})
	if err != nil {
		return SwitchTierResult{}, err
	}

	now := u.now()
	idempotencyKey := idempotencyKeyPrefix + strings.TrimSpace(cmd.IdempotencyKey)

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return SwitchTierResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return SwitchTierResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay SwitchTierResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return SwitchTierResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	var user entities.User
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var readErr error
		user, readErr = u.Repo.GetUser(c, userID)
		return readErr
	}); err != nil {
		return SwitchTierResult{}, err
	}
	if !user.Active {
		return SwitchTierResult{}, domainerrors.ErrUserDeactivated
	}

	var assignment entities.TierAssignment
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var readErr error
		assignment, readErr = u.Repo.GetTierAssignment(c, userID)
		return readErr
	}); err != nil {
		return SwitchTierResult{}, err
	}

	// No-op fast path: same tier, recompute and return without mutation.
	if assignment.Tier == newTier {
		summary, advancement := u.summarize(ctx, user, assignment, now)
		result := SwitchTierResult{
			Assignment:  assignment,
			Summary:     summary,
			Advancement: advancement,
			Changed:     false,
			Message:     "tier unchanged; no action taken",
		}
		u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)
		return result, nil
	}

	oldTier := assignment.Tier

	// Primary write with one optimistic retry.
	var saved entities.TierAssignment
	for attempt := 0; ; attempt++ {
		candidate := assignment
		candidate.Tier = newTier
		candidate.AssignedAt = now
		candidate.UpdatedAt = now

		writeErr := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
			var saveErr error
			saved, saveErr = u.Repo.SaveTierAssignment(c, candidate, assignment.Version)
			return saveErr
		})
		if writeErr == nil {
			break
		}
		if !errors.Is(writeErr, domainerrors.ErrVersionConflict) || attempt >= 1 {
			logger.Error("tier switch write failed",
				"event", "compliance_tier_switch_write_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", userID,
				"new_tier", string(newTier),
				"error", writeErr.Error(),
			)
			return SwitchTierResult{}, writeErr
		}
		fresh, readErr := u.Repo.GetTierAssignment(ctx, userID)
		if readErr != nil {
			return SwitchTierResult{}, readErr
		}
		assignment = fresh
		if assignment.Tier == newTier {
			// Concurrent switch already landed the target tier.
			saved = assignment
			break
		}
	}

	// Reconciliation is part of provisioning the new tier. A failure here
	// leaves the committed tier without its requirement set, so it is a hard
	// error; the pass is idempotent and safe to retry.
	if _, err := application.ReconcileRequirements(
		ctx, u.Repo, u.Catalog, u.IDGenerator, u.Logger,
		userID, user.Role, newTier, u.StoreTimeout, now,
	); err != nil {
		logger.Error("tier switch reconciliation failed",
			"event", "compliance_tier_switch_reconcile_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", userID,
			"new_tier", string(newTier),
			"error", err.Error(),
		)
		return SwitchTierResult{}, err
	}

	var warnings []string
	summary, advancement := u.summarize(ctx, user, saved, now)

	completionSave := saved
	completionSave.CompletionPercentage = summary.CompletionPercentage
	completionSave.UpdatedAt = now
	if err := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var saveErr error
		saved, saveErr = u.Repo.SaveTierAssignment(c, completionSave, saved.Version)
		return saveErr
	}); err != nil {
		warnings = append(warnings, "completion percentage save failed")
	}

	auditID, idErr := u.IDGenerator.NewID(ctx)
	if idErr != nil {
		warnings = append(warnings, "audit id generation failed")
	} else if auditErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Audit.Append(c, entities.AuditEntry{
			EntryID:     auditID,
			UserID:      userID,
			PerformedBy: strings.TrimSpace(cmd.PerformedBy),
			Detail: entities.TierChangeDetail{
				OldTier: oldTier,
				NewTier: newTier,
				Reason:  strings.TrimSpace(cmd.Reason),
			},
			CreatedAt: now,
		})
	}); auditErr != nil {
		warnings = append(warnings, "audit append failed")
	}

	notificationID, idErr := u.IDGenerator.NewID(ctx)
	if idErr != nil {
		warnings = append(warnings, "notification id generation failed")
	} else if notifyErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Notifier.Send(c, entities.Notification{
			NotificationID: notificationID,
			UserID:         userID,
			Type:           entities.NotificationTierChanged,
			Title:          "Compliance tier changed",
			Message:        "Your compliance tier is now " + string(newTier),
			Metadata: map[string]string{
				"old_tier": string(oldTier),
				"new_tier": string(newTier),
			},
			CreatedAt: now,
		})
	}); notifyErr != nil {
		warnings = append(warnings, "notification dispatch failed")
	}

	if row, rowErr := buildOutboxRow(ctx, u.IDGenerator, ports.EventTierChanged, userID, entities.TierChangeDetail{
		OldTier: oldTier,
		NewTier: newTier,
		Reason:  strings.TrimSpace(cmd.Reason),
	}, now); rowErr != nil {
		warnings = append(warnings, "outbox event build failed")
	} else if outboxErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Outbox.AppendOutbox(c, row)
	}); outboxErr != nil {
		warnings = append(warnings, "outbox append failed")
	}

	result := SwitchTierResult{
		Assignment:  saved,
		Summary:     summary,
		Advancement: advancement,
		Changed:     true,
		Warnings:    warnings,
	}
	u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)

	logger.Info("tier switch completed",
		"event", "compliance_tier_switch_completed",
		"module", "compliance-operations/requirement-engine",
		"layer", "application",
		"user_id", userID,
		"old_tier", string(oldTier),
		"new_tier", string(newTier),
		"completion_percentage", summary.CompletionPercentage,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (u SwitchTierUseCase) summarize(
	ctx context.Context,
	user entities.User,
	assignment entities.TierAssignment,
	now time.Time,
) (ports.ComplianceSummary, services.AdvancementDecision) {
	defs, ok := u.Catalog.Template(user.Role, assignment.Tier)
	if !ok {
		return ports.ComplianceSummary{UserID: user.UserID, Role: user.Role, Tier: assignment.Tier, CalculatedAt: now},
			services.EvaluateTierAdvancement(assignment.Tier, 0)
	}

	var records []entities.ComplianceRecord
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var listErr error
		records, listErr = u.Repo.ListComplianceRecords(c, user.UserID)
		return listErr
	}); err != nil {
		return ports.ComplianceSummary{UserID: user.UserID, Role: user.Role, Tier: assignment.Tier, CalculatedAt: now},
			services.EvaluateTierAdvancement(assignment.Tier, assignment.CompletionPercentage)
	}

	summary := application.ComputeSummary(user.UserID, user.Role, assignment.Tier, defs, records, now)
	return summary, services.EvaluateTierAdvancement(assignment.Tier, summary.CompletionPercentage)
}

func (u SwitchTierUseCase) saveReplay(ctx context.Context, key string, requestHash string, result *SwitchTierResult, now time.Time) {
	payload, err := json.Marshal(*result)
	if err != nil {
		result.Warnings = append(result.Warnings, "idempotency payload encode failed")
		return
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		Operation:       "switch_tier",
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		result.Warnings = append(result.Warnings, "idempotency record save failed")
	}
}

func (u SwitchTierUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u SwitchTierUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
