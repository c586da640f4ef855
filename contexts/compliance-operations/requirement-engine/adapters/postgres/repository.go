package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	outboxStatusFailed    = "failed"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, r.logError("compliance_repo_get_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, userID string, role entities.Role, updatedAt time.Time) (entities.User, error) {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Updates(map[string]any{
			"role":       string(role),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return entities.User{}, r.logError("compliance_repo_update_user_role_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
			"role", string(role),
		)
	}
	if result.RowsAffected == 0 {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return r.GetUser(ctx, userID)
}

func (r *Repository) MarkUserDeactivated(ctx context.Context, userID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Updates(map[string]any{
			"active":         false,
			"deactivated_at": at.UTC(),
			"updated_at":     at.UTC(),
		})
	if result.Error != nil {
		return r.logError("compliance_repo_deactivate_user_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) GetTierAssignment(ctx context.Context, userID string) (entities.TierAssignment, error) {
	var row tierAssignmentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TierAssignment{}, domainerrors.ErrAssignmentNotFound
		}
		return entities.TierAssignment{}, r.logError("compliance_repo_get_assignment_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveTierAssignment(ctx context.Context, assignment entities.TierAssignment, expectedVersion int64) (entities.TierAssignment, error) {
	row := tierAssignmentModelFromEntity(assignment)

	if expectedVersion == 0 {
		row.Version = 1
		create := r.db.WithContext(ctx).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return entities.TierAssignment{}, domainerrors.ErrVersionConflict
			}
			return entities.TierAssignment{}, r.logError("compliance_repo_create_assignment_failed", create.Error,
				"user_id", row.UserID,
			)
		}
		return row.toEntity(), nil
	}

	row.Version = expectedVersion + 1
	result := r.db.WithContext(ctx).
		Model(&tierAssignmentModel{}).
		Where("user_id = ?", row.UserID).
		Where("version = ?", expectedVersion).
		Updates(map[string]any{
			"tier":                  row.Tier,
			"completion_percentage": row.CompletionPercentage,
			"assigned_at":           row.AssignedAt,
			"updated_at":            row.UpdatedAt,
			"version":               row.Version,
		})
	if result.Error != nil {
		return entities.TierAssignment{}, r.logError("compliance_repo_save_assignment_failed", result.Error,
			"user_id", row.UserID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.TierAssignment{}, domainerrors.ErrVersionConflict
	}
	return row.toEntity(), nil
}

func (r *Repository) ListComplianceRecords(ctx context.Context, userID string) ([]entities.ComplianceRecord, error) {
	var rows []complianceRecordModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("requirement_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("compliance_repo_list_records_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	items := make([]entities.ComplianceRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetComplianceRecord(ctx context.Context, userID string, requirementID string) (entities.ComplianceRecord, bool, error) {
	var row complianceRecordModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("requirement_id = ?", strings.TrimSpace(requirementID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ComplianceRecord{}, false, nil
		}
		return entities.ComplianceRecord{}, false, r.logError("compliance_repo_get_record_failed", err,
			"user_id", strings.TrimSpace(userID),
			"requirement_id", strings.TrimSpace(requirementID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertComplianceRecord(ctx context.Context, record entities.ComplianceRecord, expectedVersion int64) (entities.ComplianceRecord, error) {
	row := complianceRecordModelFromEntity(record)

	if expectedVersion == 0 {
		row.Version = 1
		create := r.db.WithContext(ctx).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return entities.ComplianceRecord{}, domainerrors.ErrVersionConflict
			}
			return entities.ComplianceRecord{}, r.logError("compliance_repo_create_record_failed", create.Error,
				"user_id", row.UserID,
				"requirement_id", row.RequirementID,
			)
		}
		return row.toEntity(), nil
	}

	row.Version = expectedVersion + 1
	result := r.db.WithContext(ctx).
		Model(&complianceRecordModel{}).
		Where("user_id = ?", row.UserID).
		Where("requirement_id = ?", row.RequirementID).
		Where("version = ?", expectedVersion).
		Updates(map[string]any{
			"requirement_name":  row.RequirementName,
			"category":          row.Category,
			"mandatory":         row.Mandatory,
			"point_value":       row.PointValue,
			"workflow_status":   row.WorkflowStatus,
			"compliance_status": row.ComplianceStatus,
			"score":             row.Score,
			"notes":             row.Notes,
			"due_at":            row.DueAt,
			"assigned_at":       row.AssignedAt,
			"updated_at":        row.UpdatedAt,
			"version":           row.Version,
		})
	if result.Error != nil {
		return entities.ComplianceRecord{}, r.logError("compliance_repo_upsert_record_failed", result.Error,
			"user_id", row.UserID,
			"requirement_id", row.RequirementID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.ComplianceRecord{}, domainerrors.ErrVersionConflict
	}
	return row.toEntity(), nil
}

func (r *Repository) SetRecordsNotApplicable(ctx context.Context, userID string, requirementIDs []string, note string, at time.Time) (int, error) {
	if len(requirementIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&complianceRecordModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("requirement_id IN ?", requirementIDs).
		Where("compliance_status <> ?", string(entities.ComplianceNotApplicable)).
		Updates(map[string]any{
			"compliance_status": string(entities.ComplianceNotApplicable),
			"notes":             note,
			"updated_at":        at.UTC(),
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, r.logError("compliance_repo_supersede_records_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
			"requirement_count", len(requirementIDs),
		)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) Append(ctx context.Context, entry entities.AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return r.logError("compliance_repo_audit_marshal_failed", err, "entry_id", entry.EntryID)
	}
	row := auditModel{
		ID:          strings.TrimSpace(entry.EntryID),
		UserID:      strings.TrimSpace(entry.UserID),
		PerformedBy: strings.TrimSpace(entry.PerformedBy),
		AuditType:   string(entry.Type()),
		Detail:      detail,
		Notes:       entry.Notes,
		CreatedAt:   entry.CreatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("compliance_repo_audit_append_failed", create.Error, "entry_id", row.ID)
	}
	return nil
}

func (r *Repository) Send(ctx context.Context, notification entities.Notification) error {
	metadata, err := json.Marshal(notification.Metadata)
	if err != nil {
		return r.logError("compliance_repo_notification_marshal_failed", err,
			"notification_id", notification.NotificationID,
		)
	}
	row := notificationModel{
		ID:        strings.TrimSpace(notification.NotificationID),
		UserID:    strings.TrimSpace(notification.UserID),
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		Metadata:  metadata,
		CreatedAt: notification.CreatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("compliance_repo_notification_send_failed", create.Error,
			"notification_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, outboxRow ports.OutboxRow) error {
	row := outboxModel{
		OutboxID:  strings.TrimSpace(outboxRow.OutboxID),
		EventType: strings.TrimSpace(outboxRow.EventType),
		Payload:   outboxRow.Payload,
		Status:    outboxStatusPending,
		CreatedAt: outboxRow.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("compliance_repo_append_outbox_failed", create.Error, "outbox_id", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("compliance_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxRow{
			OutboxID:    row.OutboxID,
			EventType:   row.EventType,
			Payload:     append([]byte(nil), row.Payload...),
			Status:      row.Status,
			RetryCount:  row.RetryCount,
			CreatedAt:   row.CreatedAt.UTC(),
			PublishedAt: normalizeOptionalTime(row.PublishedAt),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": at.UTC(),
		})
	if result.Error != nil {
		return r.logError("compliance_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":      outboxStatusFailed,
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  at.UTC(),
		})
	if result.Error != nil {
		return r.logError("compliance_repo_mark_outbox_failed_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("compliance_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("compliance_repo_idempotency_expire_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		Operation:       row.Operation,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		Operation:       strings.TrimSpace(record.Operation),
		RequestHash:     strings.TrimSpace(record.RequestHash),
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("compliance_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("compliance_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "compliance-operations/requirement-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("compliance repository operation failed", fields...)
	return err
}

type userModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	DisplayName   string     `gorm:"column:display_name"`
	Email         string     `gorm:"column:email"`
	Role          string     `gorm:"column:role"`
	Active        bool       `gorm:"column:active"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
}

func (userModel) TableName() string {
	return "compliance_users"
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:        m.ID,
		DisplayName:   m.DisplayName,
		Email:         m.Email,
		Role:          entities.Role(m.Role),
		Active:        m.Active,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		DeactivatedAt: normalizeOptionalTime(m.DeactivatedAt),
	}
}

type tierAssignmentModel struct {
	UserID               string    `gorm:"column:user_id;primaryKey"`
	Tier                 string    `gorm:"column:tier"`
	CompletionPercentage float64   `gorm:"column:completion_percentage"`
	AssignedAt           time.Time `gorm:"column:assigned_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
	Version              int64     `gorm:"column:version"`
}

func (tierAssignmentModel) TableName() string {
	return "compliance_tier_assignments"
}

func tierAssignmentModelFromEntity(assignment entities.TierAssignment) tierAssignmentModel {
	return tierAssignmentModel{
		UserID:               strings.TrimSpace(assignment.UserID),
		Tier:                 string(assignment.Tier),
		CompletionPercentage: assignment.CompletionPercentage,
		AssignedAt:           assignment.AssignedAt.UTC(),
		UpdatedAt:            assignment.UpdatedAt.UTC(),
		Version:              assignment.Version,
	}
}

func (m tierAssignmentModel) toEntity() entities.TierAssignment {
	return entities.TierAssignment{
		UserID:               m.UserID,
		Tier:                 entities.Tier(m.Tier),
		CompletionPercentage: m.CompletionPercentage,
		AssignedAt:           m.AssignedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
		Version:              m.Version,
	}
}

type complianceRecordModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	UserID           string     `gorm:"column:user_id"`
	RequirementID    string     `gorm:"column:requirement_id"`
	RequirementName  string     `gorm:"column:requirement_name"`
	Category         string     `gorm:"column:category"`
	Mandatory        bool       `gorm:"column:mandatory"`
	PointValue       int        `gorm:"column:point_value"`
	WorkflowStatus   string     `gorm:"column:workflow_status"`
	ComplianceStatus string     `gorm:"column:compliance_status"`
	Score            *float64   `gorm:"column:score"`
	Notes            string     `gorm:"column:notes"`
	DueAt            *time.Time `gorm:"column:due_at"`
	AssignedAt       time.Time  `gorm:"column:assigned_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	Version          int64      `gorm:"column:version"`
}

func (complianceRecordModel) TableName() string {
	return "compliance_user_records"
}

func complianceRecordModelFromEntity(record entities.ComplianceRecord) complianceRecordModel {
	return complianceRecordModel{
		ID:               strings.TrimSpace(record.RecordID),
		UserID:           strings.TrimSpace(record.UserID),
		RequirementID:    strings.TrimSpace(record.RequirementID),
		RequirementName:  record.RequirementName,
		Category:         record.Category,
		Mandatory:        record.Mandatory,
		PointValue:       record.PointValue,
		WorkflowStatus:   string(record.WorkflowStatus),
		ComplianceStatus: string(record.ComplianceStatus),
		Score:            record.Score,
		Notes:            record.Notes,
		DueAt:            normalizeOptionalTime(record.DueAt),
		AssignedAt:       record.AssignedAt.UTC(),
		UpdatedAt:        record.UpdatedAt.UTC(),
		Version:          record.Version,
	}
}

func (m complianceRecordModel) toEntity() entities.ComplianceRecord {
	return entities.ComplianceRecord{
		RecordID:         m.ID,
		UserID:           m.UserID,
		RequirementID:    m.RequirementID,
		RequirementName:  m.RequirementName,
		Category:         m.Category,
		Mandatory:        m.Mandatory,
		PointValue:       m.PointValue,
		WorkflowStatus:   entities.WorkflowStatus(m.WorkflowStatus),
		ComplianceStatus: entities.ComplianceStatus(m.ComplianceStatus),
		Score:            m.Score,
		Notes:            m.Notes,
		DueAt:            normalizeOptionalTime(m.DueAt),
		AssignedAt:       m.AssignedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
		Version:          m.Version,
	}
}

type auditModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id"`
	PerformedBy string    `gorm:"column:performed_by"`
	AuditType   string    `gorm:"column:audit_type"`
	Detail      []byte    `gorm:"column:detail"`
	Notes       string    `gorm:"column:notes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "compliance_audit_log"
}

type notificationModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	UserID    string     `gorm:"column:user_id"`
	Type      string     `gorm:"column:type"`
	Title     string     `gorm:"column:title"`
	Message   string     `gorm:"column:message"`
	Metadata  []byte     `gorm:"column:metadata"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ReadAt    *time.Time `gorm:"column:read_at"`
}

func (notificationModel) TableName() string {
	return "compliance_notifications"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "compliance_outbox"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "compliance_idempotency"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.AuditLog = (*Repository)(nil)
var _ ports.Notifier = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
