package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var rec eventDedupModel
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if now.After(rec.ExpiresAt) {
		// Expired markers no longer guard anything; drop them lazily.
		_ = r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&eventDedupModel{}).Error
		return false, nil
	}
	return true, nil
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).
		Where(eventDedupModel{EventID: eventID}).
		Assign(rec).
		FirstOrCreate(&eventDedupModel{}).Error
}

var _ ports.EventDedupRepository = (*eventDedupRepository)(nil)
