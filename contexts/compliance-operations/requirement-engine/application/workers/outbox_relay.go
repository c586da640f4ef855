package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/application"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

// OutboxRelay publishes pending compliance outbox rows to the event bus.
// A row that fails to publish is marked failed and the cycle continues with
// the remaining rows, so one poison row cannot stall the relay.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("compliance outbox list failed",
			"event", "compliance_outbox_list_failed",
			"module", "compliance-operations/requirement-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event ports.ComplianceEvent
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("compliance outbox decode failed",
				"event", "compliance_outbox_decode_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, row.OutboxID, now); markErr != nil {
				return markErr
			}
			continue
		}

		if err := r.Publisher.PublishComplianceEvent(ctx, event); err != nil {
			logger.Error("compliance outbox publish failed",
				"event", "compliance_outbox_publish_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, row.OutboxID, now); markErr != nil {
				return markErr
			}
			continue
		}

		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("compliance outbox mark published failed",
				"event", "compliance_outbox_mark_published_failed",
				"module", "compliance-operations/requirement-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		published++
	}

	if len(pending) > 0 {
		logger.Info("compliance outbox relay cycle completed",
			"event", "compliance_outbox_relay_completed",
			"module", "compliance-operations/requirement-engine",
			"layer", "worker",
			"pending_count", len(pending),
			"published_count", published,
		)
	}
	return nil
}
