package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

type DeactivateUserCommand struct {
	IdempotencyKey string
	UserID         string
	Reason         string
	PerformedBy    string
}

type DeactivateUserResult struct {
	User            entities.User `json:"user"`
	RecordsAffected int           `json:"records_affected"`
	Changed         bool          `json:"changed"`
	Message         string        `json:"message,omitempty"`
	Warnings        []string      `json:"warnings,omitempty"`
	Replayed        bool          `json:"replayed"`
}

// DeactivateUserUseCase retires a user from compliance tracking: all active
// requirement records become not_applicable and the user is flagged inactive.
// Deactivating an already inactive user is a no-op success.
type DeactivateUserUseCase struct {
	Repo              ports.Repository
	Audit             ports.AuditLog
	Notifier          ports.Notifier
	Outbox            ports.OutboxRepository
	Idempotency       ports.IdempotencyStore
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	IdempotencyTTL    time.Duration
	StoreTimeout      time.Duration
	SideEffectTimeout time.Duration
	Logger            *slog.Logger
}

func (u DeactivateUserUseCase) Execute(ctx context.Context, cmd DeactivateUserCommand) (DeactivateUserResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return DeactivateUserResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return DeactivateUserResult{}, domainerrors.ErrInvalidRequest
	}

	requestHash, err := hashRequest(struct {
		UserID      string `json:"user_id"`
		Reason      string `json:"reason,omitempty"`
		RequestType string `json:"request_type"`
	}{
		UserID:      userID,
		Reason:      strings.TrimSpace(cmd.Reason),
		RequestType: "deactivate_user",
	})
	if err != nil {
		return DeactivateUserResult{}, err
	}

	now := u.now()
	idempotencyKey := idempotencyKeyPrefix + strings.TrimSpace(cmd.IdempotencyKey)

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return DeactivateUserResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return DeactivateUserResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay DeactivateUserResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return DeactivateUserResult{}, err
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
		return DeactivateUserResult{}, err
	}

	// No-op fast path: already inactive.
	if !user.Active {
		result := DeactivateUserResult{
			User:    user,
			Changed: false,
			Message: "user already deactivated; no action taken",
		}
		u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)
		return result, nil
	}

	var records []entities.ComplianceRecord
	if err := application.ReadGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		var listErr error
		records, listErr = u.Repo.ListComplianceRecords(c, userID)
		return listErr
	}); err != nil {
		return DeactivateUserResult{}, err
	}

	var activeIDs []string
	for _, record := range records {
		if record.IsActive() {
			activeIDs = append(activeIDs, record.RequirementID)
		}
	}

	reason := strings.TrimSpace(cmd.Reason)
	note := "user deactivated"
	if reason != "" {
		note = "user deactivated: " + reason
	}

	affected := 0
	if len(activeIDs) > 0 {
		if err := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
			var naErr error
			affected, naErr = u.Repo.SetRecordsNotApplicable(c, userID, activeIDs, note, now)
			return naErr
		}); err != nil {
			logger.Error("record retirement failed",
				"event", "compliance_deactivation_records_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "application",
				"user_id", userID,
				"error", err.Error(),
			)
			return DeactivateUserResult{}, err
		}
	}

	if err := application.WriteGuard(ctx, u.StoreTimeout, func(c context.Context) error {
		return u.Repo.MarkUserDeactivated(c, userID, now)
	}); err != nil {
		logger.Error("user deactivation write failed",
			"event", "compliance_deactivation_write_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return DeactivateUserResult{}, err
	}
	user.Active = false
	user.DeactivatedAt = &now
	user.UpdatedAt = now

	var warnings []string

	auditID, idErr := u.IDGenerator.NewID(ctx)
	if idErr != nil {
		warnings = append(warnings, "audit id generation failed")
	} else if auditErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Audit.Append(c, entities.AuditEntry{
			EntryID:     auditID,
			UserID:      userID,
			PerformedBy: strings.TrimSpace(cmd.PerformedBy),
			Detail: entities.DeactivationDetail{
				Reason:          reason,
				RecordsAffected: affected,
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
			Type:           entities.NotificationAccountDeactivated,
			Title:          "Account deactivated",
			Message:        "Your compliance tracking has been deactivated",
			Metadata: map[string]string{
				"records_affected": strconv.Itoa(affected),
			},
			CreatedAt: now,
		})
	}); notifyErr != nil {
		warnings = append(warnings, "notification dispatch failed")
	}

	if row, rowErr := buildOutboxRow(ctx, u.IDGenerator, ports.EventUserDeactivated, userID, entities.DeactivationDetail{
		Reason:          reason,
		RecordsAffected: affected,
	}, now); rowErr != nil {
		warnings = append(warnings, "outbox event build failed")
	} else if outboxErr := application.SideEffectGuard(ctx, u.SideEffectTimeout, func(c context.Context) error {
		return u.Outbox.AppendOutbox(c, row)
	}); outboxErr != nil {
		warnings = append(warnings, "outbox append failed")
	}

	result := DeactivateUserResult{
		User:            user,
		RecordsAffected: affected,
		Changed:         true,
		Warnings:        warnings,
	}
	u.saveReplay(ctx, idempotencyKey, requestHash, &result, now)

	logger.Info("user deactivation completed",
		"event", "compliance_deactivation_completed",
		"module", "compliance-operations/requirement-engine",
		"layer", "application",
		"user_id", userID,
		"records_affected", affected,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (u DeactivateUserUseCase) saveReplay(ctx context.Context, key string, requestHash string, result *DeactivateUserResult, now time.Time) {
	payload, err := json.Marshal(*result)
	if err != nil {
		result.Warnings = append(result.Warnings, "idempotency payload encode failed")
		return
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		Operation:       "deactivate_user",
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		result.Warnings = append(result.Warnings, "idempotency record save failed")
	}
}

func (u DeactivateUserUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u DeactivateUserUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
