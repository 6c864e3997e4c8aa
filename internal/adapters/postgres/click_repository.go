package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type clickEventRepository struct {
	db *gorm.DB
}

func (r *clickEventRepository) Append(ctx context.Context, row domain.ClickEvent) error {
	rec := clickEventModel{
		ClickID:       row.ClickID,
		VisitorID:     row.VisitorID,
		AmbassadorRef: row.AmbassadorRef,
		ProgramID:     row.ProgramID,
		ResolvedURL:   row.ResolvedURL,
		SubIDSent:     row.SubIDSent,
		ProductURL:    row.ProductURL,
		CreatedAt:     row.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *clickEventRepository) ListByVisitorID(ctx context.Context, visitorID string) ([]domain.ClickEvent, error) {
	var rows []clickEventModel
	if err := r.db.WithContext(ctx).Where("visitor_id = ?", strings.TrimSpace(visitorID)).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ClickEvent, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainClick(rec))
	}
	return out, nil
}

func (r *clickEventRepository) CountByProgramID(ctx context.Context, programID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&clickEventModel{}).Where("program_id = ?", strings.TrimSpace(programID)).Count(&count).Error
	return int(count), err
}

var _ ports.ClickEventRepository = (*clickEventRepository)(nil)
