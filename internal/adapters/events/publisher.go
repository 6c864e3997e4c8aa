package events

import (
	"context"
	"log/slog"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
)

// LoggingPublisher is the publisher of last resort: deployments without
// brokers configured still surface every event in the structured log.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) PublishDomain(ctx context.Context, envelope contracts.EventEnvelope) error {
	p.log(ctx, "domain event published", envelope)
	return nil
}

func (p *LoggingPublisher) PublishOps(ctx context.Context, envelope contracts.EventEnvelope) error {
	p.log(ctx, "ops event published", envelope)
	return nil
}

func (p *LoggingPublisher) log(ctx context.Context, msg string, envelope contracts.EventEnvelope) {
	p.logger.InfoContext(ctx, msg,
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
		"event_class", envelope.EventClass,
		"partition_key", envelope.PartitionKey,
	)
}

type LoggingDLQPublisher struct {
	logger *slog.Logger
}

func NewLoggingDLQPublisher(logger *slog.Logger) *LoggingDLQPublisher {
	return &LoggingDLQPublisher{logger: logger}
}

func (p *LoggingDLQPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	p.logger.ErrorContext(ctx, "event routed to dlq",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish_dlq",
		"outcome", "failure",
		"event_id", record.OriginalEvent.EventID,
		"event_type", record.OriginalEvent.EventType,
		"dlq_topic", record.DLQTopic,
		"error_summary", record.ErrorSummary,
	)
	return nil
}
