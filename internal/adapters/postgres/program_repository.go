package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type programRepository struct {
	db *gorm.DB
}

func (r *programRepository) Create(ctx context.Context, row domain.AffiliateProgram) error {
	rec := toProgramModel(row)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *programRepository) GetByID(ctx context.Context, programID string) (domain.AffiliateProgram, error) {
	var rec programModel
	if err := r.db.WithContext(ctx).Where("program_id = ?", strings.TrimSpace(programID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AffiliateProgram{}, domain.ErrNotFound
		}
		return domain.AffiliateProgram{}, err
	}
	return toDomainProgram(rec), nil
}

func (r *programRepository) List(ctx context.Context) ([]domain.AffiliateProgram, error) {
	var rows []programModel
	if err := r.db.WithContext(ctx).Order("program_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AffiliateProgram, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainProgram(rec))
	}
	return out, nil
}

func (r *programRepository) Update(ctx context.Context, row domain.AffiliateProgram) error {
	rec := toProgramModel(row)
	res := r.db.WithContext(ctx).Model(&programModel{}).Where("program_id = ?", row.ProgramID).Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.ProgramRepository = (*programRepository)(nil)
