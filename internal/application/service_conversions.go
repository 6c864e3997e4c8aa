package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

func isReconciler(actor Actor) bool {
	switch strings.ToLower(strings.TrimSpace(actor.Role)) {
	case "admin", "reconciliation", "system":
		return true
	default:
		return false
	}
}

// CreateConversion enters a sale into the pending state. Duplicate
// deliveries of the same (program, order_ref) return the existing row.
// An ambassador ref that does not resolve to an active ambassador still
// yields a conversion, with no ambassador attached, so reconciliation
// keeps full visibility of merchant-reported sales.
func (s *Service) CreateConversion(ctx context.Context, actor Actor, in CreateConversionInput) (domain.Conversion, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Conversion{}, domain.ErrUnauthorized
	}
	if !isReconciler(actor) {
		return domain.Conversion{}, domain.ErrForbidden
	}
	in.ProgramID = strings.TrimSpace(in.ProgramID)
	in.OrderRef = strings.TrimSpace(in.OrderRef)
	in.AmbassadorRef = strings.TrimSpace(in.AmbassadorRef)
	in.BuyerID = strings.TrimSpace(in.BuyerID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = s.cfg.DefaultCurrency
	}
	if in.ProgramID == "" || in.OrderRef == "" || in.Amount <= 0 {
		return domain.Conversion{}, domain.ErrInvalidInput
	}
	if existing, err := s.conversions.GetByOrderRef(ctx, in.ProgramID, in.OrderRef); err == nil {
		return existing, nil
	}
	program, err := s.programs.GetByID(ctx, in.ProgramID)
	if err != nil {
		return domain.Conversion{}, err
	}

	var ambassador *domain.Ambassador
	if in.AmbassadorRef != "" {
		if row, refErr := s.ambassadors.GetByRef(ctx, in.AmbassadorRef); refErr == nil && row.Status == domain.AmbassadorStatusActive {
			ambassador = &row
		}
	}

	now := s.nowFn()
	conv := domain.Conversion{
		ConversionID: "conv_" + uuid.NewString(),
		ProgramID:    program.ProgramID,
		OrderRef:     in.OrderRef,
		BuyerID:      in.BuyerID,
		Amount:       in.Amount,
		Currency:     in.Currency,
		Status:       domain.ConversionStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ambassador != nil {
		conv.AmbassadorID = ambassador.AmbassadorID
	}
	shares, err := s.sharesFor(ctx, conv, program, now)
	if err != nil {
		return domain.Conversion{}, err
	}
	applyShares(&conv, shares)

	if err := s.conversions.Create(ctx, conv); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, getErr := s.conversions.GetByOrderRef(ctx, in.ProgramID, in.OrderRef); getErr == nil {
				return existing, nil
			}
		}
		return domain.Conversion{}, err
	}
	_ = s.enqueueConversionEvent(ctx, domain.EventConversionCreated, conv, "")
	return conv, nil
}

// ConfirmConversion advances pending → confirmed, computing and freezing
// the monetary split. Confirmation is a one-time effect guarded by the
// current state: re-confirming an already-confirmed conversion returns
// the frozen shares, and credits the buyer's cashback only if a prior
// attempt flipped the status but lost the ledger write.
func (s *Service) ConfirmConversion(ctx context.Context, actor Actor, conversionID string) (domain.Conversion, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Conversion{}, domain.ErrUnauthorized
	}
	if !isReconciler(actor) {
		return domain.Conversion{}, domain.ErrForbidden
	}
	conv, err := s.conversions.GetByID(ctx, strings.TrimSpace(conversionID))
	if err != nil {
		return domain.Conversion{}, err
	}
	if conv.Status == domain.ConversionStatusConfirmed {
		// A prior confirm may have flipped the status and then lost its
		// ledger write; the unique (conversion, entry type) constraint
		// makes the repair safe to retry.
		if err := s.ensureCashbackEntry(ctx, conv, domain.CashbackEntryEarned, conv.BuyerShare, ""); err != nil {
			return domain.Conversion{}, err
		}
		return conv, nil
	}
	if conv.Status != domain.ConversionStatusPending {
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}
	program, err := s.programs.GetByID(ctx, conv.ProgramID)
	if err != nil {
		return domain.Conversion{}, err
	}

	now := s.nowFn()
	shares, err := s.sharesFor(ctx, conv, program, now)
	if err != nil {
		return domain.Conversion{}, err
	}
	updated := conv
	applyShares(&updated, shares)
	updated.Status = domain.ConversionStatusConfirmed
	updated.ConfirmedAt = &now
	updated.NeedsReview = shares.ConfigAlert
	updated.UpdatedAt = now

	swapped, err := s.conversions.TransitionFrom(ctx, domain.ConversionStatusPending, updated)
	if err != nil {
		return domain.Conversion{}, err
	}
	if !swapped {
		// Lost the race: a concurrent confirm already applied. Repair its
		// ledger write if it failed mid-way, then report the stored outcome.
		current, getErr := s.conversions.GetByID(ctx, updated.ConversionID)
		if getErr == nil && current.Status == domain.ConversionStatusConfirmed {
			if err := s.ensureCashbackEntry(ctx, current, domain.CashbackEntryEarned, current.BuyerShare, ""); err != nil {
				return domain.Conversion{}, err
			}
			return current, nil
		}
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}

	if err := s.ensureCashbackEntry(ctx, updated, domain.CashbackEntryEarned, updated.BuyerShare, ""); err != nil {
		return domain.Conversion{}, err
	}
	_ = s.enqueueConversionEvent(ctx, domain.EventConversionConfirmed, updated, "")
	if shares.ConfigAlert {
		_ = s.enqueueEvent(ctx, domain.EventCommissionConfigFlag, contracts.CommissionAlertPayload{
			ConversionID:    updated.ConversionID,
			ProgramID:       updated.ProgramID,
			CommissionTotal: updated.CommissionTotal,
			AmbassadorShare: updated.AmbassadorShare,
			SponsorL1Share:  updated.SponsorL1Share,
			SponsorL2Share:  updated.SponsorL2Share,
			Detail:          "tier and sponsor rates exceed commission total; platform residual clamped to zero",
			RaisedAt:        now.Format(timeFormat),
		}, updated.ConversionID)
	}
	return updated, nil
}

// MarkConversionPaid advances confirmed → paid after the payout rail has
// moved funds. No recomputation happens here.
func (s *Service) MarkConversionPaid(ctx context.Context, actor Actor, conversionID string) (domain.Conversion, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Conversion{}, domain.ErrUnauthorized
	}
	if !isReconciler(actor) {
		return domain.Conversion{}, domain.ErrForbidden
	}
	conv, err := s.conversions.GetByID(ctx, strings.TrimSpace(conversionID))
	if err != nil {
		return domain.Conversion{}, err
	}
	if !domain.CanTransition(conv.Status, domain.ConversionStatusPaid) {
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}
	now := s.nowFn()
	updated := conv
	updated.Status = domain.ConversionStatusPaid
	updated.PaidAt = &now
	updated.UpdatedAt = now
	swapped, err := s.conversions.TransitionFrom(ctx, domain.ConversionStatusConfirmed, updated)
	if err != nil {
		return domain.Conversion{}, err
	}
	if !swapped {
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}
	_ = s.enqueueConversionEvent(ctx, domain.EventConversionPaid, updated, "")
	return updated, nil
}

// CancelConversion is legal from pending or confirmed. A confirmed
// cancellation reverses the buyer's earned cashback with a clawback
// entry of the same magnitude; shares stay on the record for audit but
// are no longer payable. Cancelling an already-cancelled conversion is
// a no-op that repairs a missing clawback entry.
func (s *Service) CancelConversion(ctx context.Context, actor Actor, conversionID, reason string) (domain.Conversion, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Conversion{}, domain.ErrUnauthorized
	}
	if !isReconciler(actor) {
		return domain.Conversion{}, domain.ErrForbidden
	}
	conv, err := s.conversions.GetByID(ctx, strings.TrimSpace(conversionID))
	if err != nil {
		return domain.Conversion{}, err
	}
	if conv.Status == domain.ConversionStatusCancelled {
		// Redelivered cancel. If the first pass flipped the status but lost
		// the clawback write, repair it here; a confirmed_at timestamp marks
		// the cancellations that owe one.
		if conv.ConfirmedAt != nil {
			if err := s.ensureCashbackEntry(ctx, conv, domain.CashbackEntryClawback, -conv.BuyerShare, conv.CancelReason); err != nil {
				return domain.Conversion{}, err
			}
		}
		return conv, nil
	}
	if !domain.CanTransition(conv.Status, domain.ConversionStatusCancelled) {
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}
	wasConfirmed := conv.Status == domain.ConversionStatusConfirmed

	now := s.nowFn()
	updated := conv
	updated.Status = domain.ConversionStatusCancelled
	updated.CancelReason = strings.TrimSpace(reason)
	updated.UpdatedAt = now
	swapped, err := s.conversions.TransitionFrom(ctx, conv.Status, updated)
	if err != nil {
		return domain.Conversion{}, err
	}
	if !swapped {
		return domain.Conversion{}, domain.ErrTransitionNotAllowed
	}

	if wasConfirmed {
		if err := s.ensureCashbackEntry(ctx, updated, domain.CashbackEntryClawback, -updated.BuyerShare, updated.CancelReason); err != nil {
			return domain.Conversion{}, err
		}
	}
	_ = s.enqueueConversionEvent(ctx, domain.EventConversionCancelled, updated, updated.CancelReason)
	return updated, nil
}

// ensureCashbackEntry moves the buyer's cashback for one conversion at
// most once. The ledger's uniqueness on (conversion, entry type) turns a
// repeated append into ErrConflict, which means the money already moved;
// any other error leaves the entry missing and the caller's retry lands
// back here to repair it.
func (s *Service) ensureCashbackEntry(ctx context.Context, conv domain.Conversion, entryType string, amount float64, reason string) error {
	if conv.BuyerID == "" || conv.BuyerShare <= 0 {
		return nil
	}
	entry, err := s.ledger.Append(ctx, domain.CashbackLedgerEntry{
		EntryID:      "cble_" + uuid.NewString(),
		BuyerID:      conv.BuyerID,
		ConversionID: conv.ConversionID,
		EntryType:    entryType,
		Amount:       amount,
		Reason:       reason,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return err
	}
	eventType := domain.EventCashbackEarned
	if entryType == domain.CashbackEntryClawback {
		eventType = domain.EventCashbackClawback
	}
	_ = s.enqueueCashbackEvent(ctx, eventType, entry)
	return nil
}

func (s *Service) GetConversion(ctx context.Context, actor Actor, conversionID string) (domain.Conversion, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Conversion{}, domain.ErrUnauthorized
	}
	return s.conversions.GetByID(ctx, strings.TrimSpace(conversionID))
}

func (s *Service) CashbackBalance(ctx context.Context, actor Actor, buyerID string) (CashbackBalanceResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return CashbackBalanceResult{}, domain.ErrUnauthorized
	}
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return CashbackBalanceResult{}, domain.ErrInvalidInput
	}
	balance, err := s.ledger.Balance(ctx, buyerID)
	if err != nil {
		return CashbackBalanceResult{}, err
	}
	entries, err := s.ledger.ListByBuyerID(ctx, buyerID)
	if err != nil {
		return CashbackBalanceResult{}, err
	}
	return CashbackBalanceResult{BuyerID: buyerID, Balance: balance, Entries: entries}, nil
}

// sharesFor computes the monetary split for a conversion in its current
// attribution state. The sponsor chain is resolved once, capped at two
// hops, and guarded against loops introduced by bad data entry.
func (s *Service) sharesFor(ctx context.Context, conv domain.Conversion, program domain.AffiliateProgram, now time.Time) (domain.Shares, error) {
	if conv.AmbassadorID == "" {
		return domain.ComputeShares(conv.Amount, program, nil, 0, domain.SponsorChain{}, s.policy(), now), nil
	}
	ambassador, err := s.ambassadors.GetByID(ctx, conv.AmbassadorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ComputeShares(conv.Amount, program, nil, 0, domain.SponsorChain{}, s.policy(), now), nil
		}
		return domain.Shares{}, err
	}
	count, err := s.conversions.CountConfirmedSince(ctx, ambassador.AmbassadorID, now.Add(-s.cfg.ValidatedSaleWindow))
	if err != nil {
		return domain.Shares{}, err
	}
	chain := s.resolveSponsorChain(ctx, ambassador)
	return domain.ComputeShares(conv.Amount, program, &ambassador, count, chain, s.policy(), now), nil
}

func (s *Service) resolveSponsorChain(ctx context.Context, ambassador domain.Ambassador) domain.SponsorChain {
	var chain domain.SponsorChain
	if ambassador.SponsorID == "" || ambassador.SponsorID == ambassador.AmbassadorID {
		return chain
	}
	level1, err := s.ambassadors.GetByID(ctx, ambassador.SponsorID)
	if err != nil {
		return chain
	}
	chain.Level1ID = level1.AmbassadorID
	if level1.SponsorID == "" || level1.SponsorID == level1.AmbassadorID || level1.SponsorID == ambassador.AmbassadorID {
		return chain
	}
	level2, err := s.ambassadors.GetByID(ctx, level1.SponsorID)
	if err != nil {
		return chain
	}
	chain.Level2ID = level2.AmbassadorID
	return chain
}

func applyShares(conv *domain.Conversion, shares domain.Shares) {
	conv.CommissionTotal = shares.CommissionTotal
	conv.AmbassadorShare = shares.AmbassadorShare
	conv.SponsorL1Share = shares.SponsorL1Share
	conv.SponsorL2Share = shares.SponsorL2Share
	conv.BuyerShare = shares.BuyerShare
	conv.PlatformShare = shares.PlatformShare
	conv.Tier = shares.Tier
}
