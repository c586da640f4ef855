package ports

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventRequirementStatusChanged = "compliance.requirement_status_changed"
	EventTierChanged              = "compliance.tier_changed"
	EventRoleChanged              = "compliance.role_changed"
	EventUserDeactivated          = "compliance.user_deactivated"
)

// ComplianceEvent is the engine's outbound event shape, relayed from the
// outbox by the worker process.
type ComplianceEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	UserID     string          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type EventPublisher interface {
	PublishComplianceEvent(ctx context.Context, event ComplianceEvent) error
}

type OutboxRow struct {
	OutboxID    string
	EventType   string
	Payload     []byte
	Status      string // pending, published, failed
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type OutboxRepository interface {
	AppendOutbox(ctx context.Context, row OutboxRow) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error
	MarkOutboxFailed(ctx context.Context, outboxID string, at time.Time) error
}
