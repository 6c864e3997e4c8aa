package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type conversionRepository struct {
	db *gorm.DB
}

func (r *conversionRepository) Create(ctx context.Context, row domain.Conversion) error {
	rec := toConversionModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *conversionRepository) GetByID(ctx context.Context, conversionID string) (domain.Conversion, error) {
	var rec conversionModel
	if err := r.db.WithContext(ctx).Where("conversion_id = ?", strings.TrimSpace(conversionID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversion{}, domain.ErrNotFound
		}
		return domain.Conversion{}, err
	}
	return toDomainConversion(rec), nil
}

func (r *conversionRepository) GetByOrderRef(ctx context.Context, programID, orderRef string) (domain.Conversion, error) {
	var rec conversionModel
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND order_ref = ?", strings.TrimSpace(programID), strings.TrimSpace(orderRef)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversion{}, domain.ErrNotFound
		}
		return domain.Conversion{}, err
	}
	return toDomainConversion(rec), nil
}

// TransitionFrom relies on a single conditional UPDATE: the WHERE clause
// carries the expected current status, so a lost race shows up as zero
// affected rows rather than a torn write.
func (r *conversionRepository) TransitionFrom(ctx context.Context, fromStatus string, row domain.Conversion) (bool, error) {
	rec := toConversionModel(row)
	res := r.db.WithContext(ctx).Model(&conversionModel{}).
		Where("conversion_id = ? AND status = ?", row.ConversionID, fromStatus).
		Updates(map[string]any{
			"commission_total": rec.CommissionTotal,
			"ambassador_share": rec.AmbassadorShare,
			"sponsor_l1_share": rec.SponsorL1Share,
			"sponsor_l2_share": rec.SponsorL2Share,
			"buyer_share":      rec.BuyerShare,
			"platform_share":   rec.PlatformShare,
			"tier":             rec.Tier,
			"status":           rec.Status,
			"needs_review":     rec.NeedsReview,
			"cancel_reason":    rec.CancelReason,
			"confirmed_at":     rec.ConfirmedAt,
			"paid_at":          rec.PaidAt,
			"updated_at":       rec.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *conversionRepository) CountConfirmedSince(ctx context.Context, ambassadorID string, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&conversionModel{}).
		Where("ambassador_id = ? AND status IN ? AND confirmed_at > ?",
			ambassadorID, []string{domain.ConversionStatusConfirmed, domain.ConversionStatusPaid}, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *conversionRepository) ListByAmbassadorID(ctx context.Context, ambassadorID string) ([]domain.Conversion, error) {
	var rows []conversionModel
	err := r.db.WithContext(ctx).
		Where("ambassador_id = ?", strings.TrimSpace(ambassadorID)).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Conversion, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainConversion(rec))
	}
	return out, nil
}

var _ ports.ConversionRepository = (*conversionRepository)(nil)
