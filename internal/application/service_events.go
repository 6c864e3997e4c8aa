package application

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

// HandleReconciliationEvent is the single entry point for external
// confirmation signals (postback relay, CSV importer, network poller).
// The envelope schema is strict: malformed payloads are rejected instead
// of defaulting fields, and every delivery is deduplicated so redelivery
// is harmless.
func (s *Service) HandleReconciliationEvent(ctx context.Context, envelope contracts.EventEnvelope) error {
	if strings.TrimSpace(envelope.EventID) == "" || strings.TrimSpace(envelope.EventType) == "" || len(envelope.Data) == 0 {
		return domain.ErrInvalidInput
	}
	if !domain.IsCanonicalInputEvent(envelope.EventType) {
		return domain.ErrUnsupportedEventType
	}
	if s.eventDedup != nil {
		duplicate, err := s.eventDedup.IsDuplicate(ctx, envelope.EventID, s.nowFn())
		if err != nil {
			return err
		}
		if duplicate {
			return nil
		}
	}
	if err := s.dispatchReconciliation(ctx, envelope); err != nil {
		return err
	}
	// Mark only after the transition applied. A failed delivery (most
	// commonly a settle arriving before its order) stays unmarked, so the
	// redelivery gets a real retry instead of a dedup no-op.
	if s.eventDedup != nil {
		now := s.nowFn()
		if err := s.eventDedup.MarkProcessed(ctx, envelope.EventID, envelope.EventType, now.Add(s.cfg.EventDedupTTL)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) dispatchReconciliation(ctx context.Context, envelope contracts.EventEnvelope) error {
	var payload contracts.ReconciliationOrderPayload
	decoder := json.NewDecoder(bytes.NewReader(envelope.Data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return domain.ErrInvalidInput
	}

	actor := Actor{SubjectID: envelope.SourceService, Role: "system", RequestID: envelope.TraceID}
	if actor.SubjectID == "" {
		actor.SubjectID = "reconciliation"
	}

	switch envelope.EventType {
	case domain.EventOrderRecorded:
		_, err := s.CreateConversion(ctx, actor, CreateConversionInput{
			ProgramID:     payload.ProgramID,
			OrderRef:      payload.OrderRef,
			Amount:        payload.Amount,
			Currency:      payload.Currency,
			AmbassadorRef: payload.AmbassadorRef,
			BuyerID:       payload.BuyerID,
		})
		return err
	case domain.EventOrderSettled:
		conv, err := s.conversionFromPayload(ctx, payload)
		if err != nil {
			return err
		}
		_, err = s.ConfirmConversion(ctx, actor, conv.ConversionID)
		return err
	case domain.EventOrderRefunded:
		conv, err := s.conversionFromPayload(ctx, payload)
		if err != nil {
			return err
		}
		reason := payload.Reason
		if reason == "" {
			reason = "refunded"
		}
		_, err = s.CancelConversion(ctx, actor, conv.ConversionID, reason)
		return err
	case domain.EventPayoutCompleted:
		conv, err := s.conversionFromPayload(ctx, payload)
		if err != nil {
			return err
		}
		_, err = s.MarkConversionPaid(ctx, actor, conv.ConversionID)
		return err
	default:
		return domain.ErrUnsupportedEventType
	}
}

func (s *Service) conversionFromPayload(ctx context.Context, payload contracts.ReconciliationOrderPayload) (domain.Conversion, error) {
	if payload.ConversionID != "" {
		return s.conversions.GetByID(ctx, payload.ConversionID)
	}
	if payload.ProgramID == "" || payload.OrderRef == "" {
		return domain.Conversion{}, domain.ErrInvalidInput
	}
	return s.conversions.GetByOrderRef(ctx, payload.ProgramID, payload.OrderRef)
}

// FlushOutbox drains pending outbox records to the configured
// publishers. The worker calls this on a ticker; tests call it directly.
func (s *Service) FlushOutbox(ctx context.Context) error {
	if s.outbox == nil {
		return nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	for _, record := range pending {
		if err := s.publishRecord(ctx, record); err != nil {
			if s.dlq != nil {
				now := s.nowFn()
				_ = s.dlq.PublishDLQ(ctx, contracts.DLQRecord{
					OriginalEvent: record.Envelope,
					ErrorSummary:  err.Error(),
					RetryCount:    1,
					FirstSeenAt:   now,
					LastErrorAt:   now,
					SourceTopic:   record.Envelope.EventType,
					DLQTopic:      s.cfg.ServiceName + ".dlq",
					TraceID:       record.Envelope.TraceID,
				})
			}
			return err
		}
		if err := s.outbox.MarkSent(ctx, record.RecordID, s.nowFn()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishRecord(ctx context.Context, record ports.OutboxRecord) error {
	if record.EventClass == domain.CanonicalEventClassOps && s.ops != nil {
		return s.ops.PublishOps(ctx, record.Envelope)
	}
	if s.domainEvents != nil {
		return s.domainEvents.PublishDomain(ctx, record.Envelope)
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType string, payload any, partitionKey string) error {
	if s.outbox == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := s.nowFn()
	envelope := contracts.EventEnvelope{
		EventID:          "evt_" + uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClass(eventType),
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          uuid.NewString(),
		SchemaVersion:    "1.0",
		Data:             raw,
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		RecordID:   "obx_" + uuid.NewString(),
		EventClass: envelope.EventClass,
		Envelope:   envelope,
		CreatedAt:  now,
	})
}

func (s *Service) enqueueConversionEvent(ctx context.Context, eventType string, conv domain.Conversion, reason string) error {
	return s.enqueueEvent(ctx, eventType, contracts.ConversionLifecyclePayload{
		ConversionID:    conv.ConversionID,
		ProgramID:       conv.ProgramID,
		AmbassadorID:    conv.AmbassadorID,
		OrderRef:        conv.OrderRef,
		Amount:          conv.Amount,
		Currency:        conv.Currency,
		CommissionTotal: conv.CommissionTotal,
		Status:          conv.Status,
		Reason:          reason,
		OccurredAt:      conv.UpdatedAt.Format(timeFormat),
	}, conv.ConversionID)
}

func (s *Service) enqueueCashbackEvent(ctx context.Context, eventType string, entry domain.CashbackLedgerEntry) error {
	return s.enqueueEvent(ctx, eventType, contracts.CashbackEntryPayload{
		EntryID:      entry.EntryID,
		BuyerID:      entry.BuyerID,
		ConversionID: entry.ConversionID,
		EntryType:    entry.EntryType,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		PostedAt:     entry.CreatedAt.Format(timeFormat),
	}, entry.BuyerID)
}
