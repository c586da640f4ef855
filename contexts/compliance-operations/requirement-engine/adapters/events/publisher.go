package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
	sharedevents "github.com/BlindPI/bpiinc-arccm-42-sub008/internal/shared/events"
)

// Bus is the platform publish surface the relay targets.
type Bus interface {
	Publish(ctx context.Context, topic string, event sharedevents.Envelope) error
}

// Publisher bridges the engine's outbound events onto the shared bus envelope.
type Publisher struct {
	Bus    Bus
	Logger *slog.Logger
}

func NewPublisher(bus Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{Bus: bus, Logger: logger}
}

func (p *Publisher) PublishComplianceEvent(ctx context.Context, event ports.ComplianceEvent) error {
	var payload any
	if len(event.Payload) > 0 {
		payload = json.RawMessage(event.Payload)
	}
	envelope := sharedevents.Envelope{
		EventID:        event.EventID,
		EventType:      event.EventType,
		SourceService:  "compliance-operations/requirement-engine",
		OccurredAtUTC:  event.OccurredAt.UTC(),
		CorrelationID:  event.EventID,
		EntityType:     "user",
		EntityID:       event.UserID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	if err := p.Bus.Publish(ctx, event.EventType, envelope); err != nil {
		return err
	}
	p.Logger.Info("compliance event published",
		"event", "compliance_event_published",
		"module", "compliance-operations/requirement-engine",
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"user_id", event.UserID,
	)
	return nil
}

var _ ports.EventPublisher = (*Publisher)(nil)
