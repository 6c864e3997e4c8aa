package postgres

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	payload, err := json.Marshal(record.Envelope)
	if err != nil {
		return err
	}
	rec := outboxModel{
		RecordID:   record.RecordID,
		EventClass: record.EventClass,
		Envelope:   string(payload),
		CreatedAt:  record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, rec := range rows {
		var envelope contracts.EventEnvelope
		if err := json.Unmarshal([]byte(rec.Envelope), &envelope); err != nil {
			return nil, err
		}
		out = append(out, ports.OutboxRecord{
			RecordID:   rec.RecordID,
			EventClass: rec.EventClass,
			Envelope:   envelope,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return out, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("record_id = ? AND published_at IS NULL", recordID).
		Update("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.OutboxRepository = (*outboxRepository)(nil)
