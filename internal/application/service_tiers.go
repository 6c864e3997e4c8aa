package application

import (
	"context"
	"strings"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

// AmbassadorTier reports the ambassador's live tier from the trailing
// 30-day validated sale count. The cached tier on the row is advisory;
// this query is the source of truth.
func (s *Service) AmbassadorTier(ctx context.Context, actor Actor, ambassadorID string) (AmbassadorTierResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return AmbassadorTierResult{}, domain.ErrUnauthorized
	}
	ambassador, err := s.ambassadors.GetByID(ctx, strings.TrimSpace(ambassadorID))
	if err != nil {
		return AmbassadorTierResult{}, err
	}
	now := s.nowFn()
	count, err := s.conversions.CountConfirmedSince(ctx, ambassador.AmbassadorID, now.Add(-s.cfg.ValidatedSaleWindow))
	if err != nil {
		return AmbassadorTierResult{}, err
	}
	tier := domain.TierFor(count)
	return AmbassadorTierResult{
		AmbassadorID:      ambassador.AmbassadorID,
		Tier:              tier.Name,
		Rate:              tier.Rate,
		ValidatedSales30d: count,
	}, nil
}

// RecomputeTiers refreshes every active ambassador's cached tier from
// the trailing validated-sale window. Runs as the daily batch job; it is
// idempotent and has no ordering dependency between ambassadors.
func (s *Service) RecomputeTiers(ctx context.Context) (int, error) {
	ambassadors, err := s.ambassadors.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	now := s.nowFn()
	since := now.Add(-s.cfg.ValidatedSaleWindow)
	updated := 0
	for _, ambassador := range ambassadors {
		count, countErr := s.conversions.CountConfirmedSince(ctx, ambassador.AmbassadorID, since)
		if countErr != nil {
			return updated, countErr
		}
		tier := domain.TierFor(count)
		if tier.Name == ambassador.Tier && count == ambassador.ValidatedSales30d {
			continue
		}
		if err := s.ambassadors.UpdateTier(ctx, ambassador.AmbassadorID, tier.Name, count, now); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
