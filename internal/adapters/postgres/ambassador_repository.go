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

type ambassadorRepository struct {
	db *gorm.DB
}

func (r *ambassadorRepository) Create(ctx context.Context, row domain.Ambassador) error {
	rec := toAmbassadorModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ambassadorRepository) GetByID(ctx context.Context, ambassadorID string) (domain.Ambassador, error) {
	var rec ambassadorModel
	if err := r.db.WithContext(ctx).Where("ambassador_id = ?", strings.TrimSpace(ambassadorID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Ambassador{}, domain.ErrNotFound
		}
		return domain.Ambassador{}, err
	}
	return toDomainAmbassador(rec), nil
}

func (r *ambassadorRepository) GetByRef(ctx context.Context, ref string) (domain.Ambassador, error) {
	var rec ambassadorModel
	if err := r.db.WithContext(ctx).Where("ref = ?", strings.TrimSpace(ref)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Ambassador{}, domain.ErrNotFound
		}
		return domain.Ambassador{}, err
	}
	return toDomainAmbassador(rec), nil
}

func (r *ambassadorRepository) ListActive(ctx context.Context) ([]domain.Ambassador, error) {
	var rows []ambassadorModel
	if err := r.db.WithContext(ctx).Where("status = ?", domain.AmbassadorStatusActive).Order("ambassador_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Ambassador, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainAmbassador(rec))
	}
	return out, nil
}

func (r *ambassadorRepository) Update(ctx context.Context, row domain.Ambassador) error {
	rec := toAmbassadorModel(row)
	res := r.db.WithContext(ctx).Model(&ambassadorModel{}).Where("ambassador_id = ?", row.AmbassadorID).Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ambassadorRepository) UpdateTier(ctx context.Context, ambassadorID, tier string, validatedSales30d int, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&ambassadorModel{}).Where("ambassador_id = ?", ambassadorID).Updates(map[string]any{
		"tier":                tier,
		"validated_sales_30d": validatedSales30d,
		"updated_at":          at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.AmbassadorRepository = (*ambassadorRepository)(nil)
