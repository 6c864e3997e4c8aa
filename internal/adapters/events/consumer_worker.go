package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/application"
	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker drains the reconciliation topics and feeds each
// envelope through the application layer. Envelopes that fail are routed
// to the DLQ instead of blocking the partition.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	dlq      ports.DLQPublisher
	dlqTopic string
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, dlq ports.DLQPublisher, dlqTopic string, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, dlq: dlq, dlqTopic: dlqTopic, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		var envelope contracts.EventEnvelope
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			w.toDLQ(ctx, msg.Topic, envelope, err)
			continue
		}
		if err := w.service.HandleReconciliationEvent(ctx, envelope); err != nil {
			w.logger.WarnContext(ctx, "reconciliation event rejected",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "handle_event",
				"outcome", "failure",
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err,
			)
			w.toDLQ(ctx, msg.Topic, envelope, err)
		}
	}
	return nil
}

func (w *ConsumerWorker) toDLQ(ctx context.Context, sourceTopic string, envelope contracts.EventEnvelope, cause error) {
	if w.dlq == nil {
		return
	}
	now := time.Now().UTC()
	_ = w.dlq.PublishDLQ(ctx, contracts.DLQRecord{
		OriginalEvent: envelope,
		ErrorSummary:  cause.Error(),
		RetryCount:    1,
		FirstSeenAt:   now,
		LastErrorAt:   now,
		SourceTopic:   sourceTopic,
		DLQTopic:      w.dlqTopic,
		TraceID:       envelope.TraceID,
	})
}
