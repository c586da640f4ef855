package ports

import (
	"context"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
)

// ComplianceSummary is the aggregate rollup recomputed after every mutation.
// Completion percentage covers mandatory requirements only.
type ComplianceSummary struct {
	UserID               string
	Role                 entities.Role
	Tier                 entities.Tier
	Compliant            int
	NonCompliant         int
	Warning              int
	Pending              int
	TotalActive          int
	MandatoryTotal       int
	MandatoryCompliant   int
	CompletionPercentage float64
	CalculatedAt         time.Time
}

// Repository is the store contract for users, compliance records, and tier
// assignments. Versioned writes: expectedVersion 0 means "create"; a mismatch
// against the stored version fails with domain ErrVersionConflict.
type Repository interface {
	GetUser(ctx context.Context, userID string) (entities.User, error)
	UpdateUserRole(ctx context.Context, userID string, role entities.Role, updatedAt time.Time) (entities.User, error)
	MarkUserDeactivated(ctx context.Context, userID string, at time.Time) error

	GetTierAssignment(ctx context.Context, userID string) (entities.TierAssignment, error)
	SaveTierAssignment(ctx context.Context, assignment entities.TierAssignment, expectedVersion int64) (entities.TierAssignment, error)

	ListComplianceRecords(ctx context.Context, userID string) ([]entities.ComplianceRecord, error)
	GetComplianceRecord(ctx context.Context, userID string, requirementID string) (entities.ComplianceRecord, bool, error)
	UpsertComplianceRecord(ctx context.Context, record entities.ComplianceRecord, expectedVersion int64) (entities.ComplianceRecord, error)
	SetRecordsNotApplicable(ctx context.Context, userID string, requirementIDs []string, note string, at time.Time) (int, error)
}

// AuditLog is append-only; failures are downgraded to warnings by the
// orchestrators once the primary write has committed.
type AuditLog interface {
	Append(ctx context.Context, entry entities.AuditEntry) error
}

// Notifier delivers user-facing messages over a side channel, best effort.
type Notifier interface {
	Send(ctx context.Context, notification entities.Notification) error
}

type IdempotencyRecord struct {
	Key             string
	Operation       string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
