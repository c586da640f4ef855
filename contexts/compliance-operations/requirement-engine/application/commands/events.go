package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// buildOutboxRow wraps a typed payload in the canonical compliance event and
// serializes it for outbox persistence. The worker relay republishes pending
// rows at least once.
func buildOutboxRow(
	ctx context.Context,
	idgen ports.IDGenerator,
	eventType string,
	userID string,
	payload any,
	now time.Time,
) (ports.OutboxRow, error) {
	eventID, err := idgen.NewID(ctx)
	if err != nil {
		return ports.OutboxRow{}, err
	}
	outboxID, err := idgen.NewID(ctx)
	if err != nil {
		return ports.OutboxRow{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxRow{}, err
	}
	event := ports.ComplianceEvent{
		EventID:    eventID,
		EventType:  eventType,
		UserID:     userID,
		OccurredAt: now,
		Payload:    body,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return ports.OutboxRow{}, err
	}

	return ports.OutboxRow{
		OutboxID:  outboxID,
		EventType: eventType,
		Payload:   raw,
		Status:    "pending",
		CreatedAt: now,
	}, nil
}
