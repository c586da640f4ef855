package commands

import (
	"context"
	"encoding/json"
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

type ChangeRoleCommand struct {
	IdempotencyKey string
	UserID         string
	NewRole        string
	PerformedBy    string
}

type ChangeRoleResult struct {
	User        entities.User                `json:"user"`
	Assignment  entities.TierAssignment      `json:"assignment"`
	Summary     ports.ComplianceSummary      `json:"summary"`
	Advancement services.AdvancementDecision `json:"advancement"`
	Changed     bool                         `json:"changed"`
	TierChanged bool                         `json:"tier_changed"`
	Message     string                       `json:"message,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"`
	Replayed    bool                         `json:"replayed"`
}

// ChangeRoleUseCase updates a user's role and realigns their compliance state.
// When the new role's default tier differs from the current tier the change is
// delegated to the tier switch path, so both flows share one reconciliation.
type ChangeRoleUseCase struct {
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

func (u ChangeRoleUseCase) Execute(ctx context.Context, cmd ChangeRoleCommand) (ChangeRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return ChangeRoleResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return ChangeRoleResult{}, domainerrors.ErrInvalidRequest
	}
	newRole, ok := entities.ParseRole(cmd.NewRole)
	if !ok {
		return ChangeRoleResult{}, domainerrors.ErrUnknownRole
	}

	requestHash, err := hashRequest(struct {
		UserID      string `json:"user_id"`
		NewRole     string `json:"new_role"`
		RequestType string `json:"request_type"`
	}{
		UserID:      userID,
		NewRole:     string(newRole),
		RequestType: "change_role",
	})
	if err != nil {
		return ChangeRoleResult{}, err
	}

	now := u.now()
	idempotencyKey := idempotencyKeyPrefix + strings.TrimSpace(cmd.IdempotencyKey)

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return ChangeRoleResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return ChangeRoleResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay ChangeRoleResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return ChangeRoleResult{}, err
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
		return ChangeRoleResult{}, err
	}
	if !user.Active {
		return ChangeRoleResult{}, domainerrors.ErrUserDeactivated
	}

	var assignment entities.TierAssignment
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var readErr error
		assignment, readErr = u.Repo.GetTierAssignment(c, userID)
		return readErr
	}); err != nil {
		return ChangeRoleResult{}, err
	}

	// No-op fast path: same role, recompute and return without mutation.
	if user.Role == newRole {
		summary, advancement := u.summarize(ctx, user, assignment, now)
		result := ChangeRoleResult{
			User:        user,
			Assignment:  assignment,
			Summary:     summary,
			Advancement: advancement,
			Changed:     false,
			Message:     "role unchanged; no action taken",
		}
		u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)
		return result, nil
	}

	oldRole := user.Role

	// Tier adjustment compares the new role's default against the tier the
	// user actually holds, not against the old role's default. A user on a
	// non-default tier would otherwise skip reconciliation and keep the old
	// role's requirement set.
	targetTier, err := services.DefaultTierForRole(newRole)
	if err != nil {
		return ChangeRoleResult{}, err
	}

	if err := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var updateErr error
		user, updateErr = u.Repo.UpdateUserRole(c, userID, newRole, now)
		return updateErr
	}); err != nil {
		logger.Error("role update failed",
			"event", "compliance_role_change_write_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", userID,
			"new_role", string(newRole),
			"error", err.Error(),
		)
		return ChangeRoleResult{}, err
	}

	var warnings []string
	result := ChangeRoleResult{Changed: true}

	if targetTier != assignment.Tier {
		switchResult, switchErr := u.tierSwitcher().Execute(ctx, SwitchTierCommand{
			IdempotencyKey: strings.TrimSpace(cmd.IdempotencyKey) + ":tier",
			UserID:         userID,
			NewTier:        string(targetTier),
			Reason:         "role changed to " + string(newRole),
			PerformedBy:    strings.TrimSpace(cmd.PerformedBy),
		})
		if switchErr != nil {
			// Role update is committed and idempotent; a retry of the whole
			// command converges on the same state.
			logger.Error("tier adjustment after role change failed",
				"event", "compliance_role_change_tier_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", userID,
				"new_role", string(newRole),
				"target_tier", string(targetTier),
				"error", switchErr.Error(),
			)
			return ChangeRoleResult{}, switchErr
		}
		result.TierChanged = true
		result.Assignment = switchResult.Assignment
		result.Summary = switchResult.Summary
		result.Advancement = switchResult.Advancement
		warnings = append(warnings, switchResult.Warnings...)
	} else {
		if _, reconcileErr := application.ReconcileRequirements(
			ctx, u.Repo, u.Catalog, u.IDGenerator, u.Logger,
			userID, newRole, assignment.Tier, u.StoreTimeout, now,
		); reconcileErr != nil {
			logger.Error("requirement reconciliation after role change failed",
				"event", "compliance_role_change_reconcile_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", userID,
				"new_role", string(newRole),
				"error", reconcileErr.Error(),
			)
			return ChangeRoleResult{}, reconcileErr
		}

		summary, advancement := u.summarize(ctx, user, assignment, now)
		completionSave := assignment
		completionSave.CompletionPercentage = summary.CompletionPercentage
		completionSave.UpdatedAt = now
		if saveErr := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
			var writeErr error
			assignment, writeErr = u.Repo.SaveTierAssignment(c, completionSave, assignment.Version)
			return writeErr
		}); saveErr != nil {
			warnings = append(warnings, "completion percentage save failed")
		}
		result.Assignment = assignment
		result.Summary = summary
		result.Advancement = advancement
	}
	result.User = user

	auditID, idErr := u.IDGenerator.NewID(ctx)
	if idErr != nil {
		warnings = append(warnings, "audit id generation failed")
	} else if auditErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Audit.Append(c, entities.AuditEntry{
			EntryID:     auditID,
			UserID:      userID,
			PerformedBy: strings.TrimSpace(cmd.PerformedBy),
			Detail: entities.RoleChangeDetail{
				OldRole:     oldRole,
				NewRole:     newRole,
				TierChanged: result.TierChanged,
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
			Type:           entities.NotificationRoleChanged,
			Title:          "Role changed",
			Message:        "Your role is now " + string(newRole),
			Metadata: map[string]string{
				"old_role": string(oldRole),
				"new_role": string(newRole),
			},
			CreatedAt: now,
		})
	}); notifyErr != nil {
		warnings = append(warnings, "notification dispatch failed")
	}

	if row, rowErr := buildOutboxRow(ctx, u.IDGenerator, ports.EventRoleChanged, userID, entities.RoleChangeDetail{
		OldRole:     oldRole,
		NewRole:     newRole,
		TierChanged: result.TierChanged,
	}, now); rowErr != nil {
		warnings = append(warnings, "outbox event build failed")
	} else if outboxErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Outbox.AppendOutbox(c, row)
	}); outboxErr != nil {
		warnings = append(warnings, "outbox append failed")
	}

	result.Warnings = warnings
	u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)

	logger.Info("role change completed",
		"event", "compliance_role_change_completed",
		"module", "compliance-operations/requirement-engine",
		"layer", "application",
		"user_id", userID,
		"old_role", string(oldRole),
		"new_role", string(newRole),
		"tier_changed", result.TierChanged,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// tierSwitcher shares every collaborator with the parent use case so the
// delegated flow behaves exactly like a direct tier switch.
func (u ChangeRoleUseCase) tierSwitcher() SwitchTierUseCase {
	return SwitchTierUseCase{
		Repo:              u.Repo,
		Audit:             u.Audit,
		Notifier:          u.Notifier,
		Outbox:            u.Outbox,
		Idempotency:       u.Idempotency,
		Catalog:           u.Catalog,
		Clock:             u.Clock,
		IDGenerator:       u.IDGenerator,
		IdempotencyTTL:    u.IdempotencyTTL,
		StoreTimeout:      u.StoreTimeout,
		SideEffectTimeout: u.SideEffectTimeout,
		Logger:            u.Logger,
	}
}

func (u ChangeRoleUseCase) summarize(
	ctx context.Context,
	user entities.User,
	assignment entities.TierAssignment,
	now time.Time,
) (ports.ComplianceSummary, services.AdvancementDecision) {
	defs, ok := u.Catalog.Template(user.Role, assignment.Tier)
	if !ok {
		return ports.ComplianceSummary{UserID: user.UserID, Role: user.Role, Tier: assignment.Tier, CalculatedAt: now},
			services.EvaluateTierAdvancement(assignment.Tier, assignment.CompletionPercentage)
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

func (u ChangeRoleUseCase) saveReplay(ctx context.Context, key string, requestHash string, result *ChangeRoleResult, now time.Time) {
	payload, err := json.Marshal(*result)
	if err != nil {
		result.Warnings = append(result.Warnings, "idempotency payload encode failed")
		return
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		Operation:       "change_role",
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		result.Warnings = append(result.Warnings, "idempotency record save failed")
	}
}

func (u ChangeRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u ChangeRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
