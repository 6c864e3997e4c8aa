package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type cashbackLedgerRepository struct {
	db *gorm.DB
}

// Append takes a row lock on the buyer's balance row before writing the
// entry, so concurrent appends for the same buyer serialize and every
// stored BalanceAfter reflects the entry that produced it.
func (r *cashbackLedgerRepository) Append(ctx context.Context, entry domain.CashbackLedgerEntry) (domain.CashbackLedgerEntry, error) {
	out := entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bal cashbackBalanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("buyer_id = ?", entry.BuyerID).
			Take(&bal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bal = cashbackBalanceModel{BuyerID: entry.BuyerID, UpdatedAt: entry.CreatedAt}
			if err := tx.Create(&bal).Error; err != nil {
				return err
			}
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("buyer_id = ?", entry.BuyerID).
				Take(&bal).Error
		}
		if err != nil {
			return err
		}

		bal.Balance = domain.Round2(bal.Balance + entry.Amount)
		bal.UpdatedAt = entry.CreatedAt
		out.BalanceAfter = bal.Balance

		rec := cashbackEntryModel{
			EntryID:      out.EntryID,
			BuyerID:      out.BuyerID,
			ConversionID: out.ConversionID,
			EntryType:    out.EntryType,
			Amount:       out.Amount,
			BalanceAfter: out.BalanceAfter,
			Reason:       out.Reason,
			CreatedAt:    out.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		return tx.Model(&cashbackBalanceModel{}).
			Where("buyer_id = ?", entry.BuyerID).
			Updates(map[string]any{"balance": bal.Balance, "updated_at": bal.UpdatedAt}).Error
	})
	if err != nil {
		return domain.CashbackLedgerEntry{}, err
	}
	return out, nil
}

func (r *cashbackLedgerRepository) Balance(ctx context.Context, buyerID string) (float64, error) {
	var bal cashbackBalanceModel
	err := r.db.WithContext(ctx).Where("buyer_id = ?", strings.TrimSpace(buyerID)).Take(&bal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return bal.Balance, nil
}

func (r *cashbackLedgerRepository) ListByBuyerID(ctx context.Context, buyerID string) ([]domain.CashbackLedgerEntry, error) {
	var rows []cashbackEntryModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", strings.TrimSpace(buyerID)).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.CashbackLedgerEntry, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainCashbackEntry(rec))
	}
	return out, nil
}

var _ ports.CashbackLedgerRepository = (*cashbackLedgerRepository)(nil)
