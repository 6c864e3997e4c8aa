package postgres

import "github.com/Samuel871933/buylav2-sub001/internal/domain"

func toDomainProgram(rec programModel) domain.AffiliateProgram {
	return domain.AffiliateProgram{
		ProgramID:             rec.ProgramID,
		Name:                  rec.Name,
		Network:               rec.Network,
		RedirectTemplate:      rec.RedirectTemplate,
		BaseURL:               rec.BaseURL,
		SubIDParam:            rec.SubIDParam,
		SubIDFormat:           rec.SubIDFormat,
		PublisherID:           rec.PublisherID,
		MerchantID:            rec.MerchantID,
		NetworkCommissionRate: rec.NetworkCommissionRate,
		BuyerCashbackRate:     rec.BuyerCashbackRate,
		Active:                rec.Active,
		CreatedAt:             rec.CreatedAt,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func toProgramModel(row domain.AffiliateProgram) programModel {
	return programModel{
		ProgramID:             row.ProgramID,
		Name:                  row.Name,
		Network:               row.Network,
		RedirectTemplate:      row.RedirectTemplate,
		BaseURL:               row.BaseURL,
		SubIDParam:            row.SubIDParam,
		SubIDFormat:           row.SubIDFormat,
		PublisherID:           row.PublisherID,
		MerchantID:            row.MerchantID,
		NetworkCommissionRate: row.NetworkCommissionRate,
		BuyerCashbackRate:     row.BuyerCashbackRate,
		Active:                row.Active,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

func toDomainClick(rec clickEventModel) domain.ClickEvent {
	return domain.ClickEvent{
		ClickID:       rec.ClickID,
		VisitorID:     rec.VisitorID,
		AmbassadorRef: rec.AmbassadorRef,
		ProgramID:     rec.ProgramID,
		ResolvedURL:   rec.ResolvedURL,
		SubIDSent:     rec.SubIDSent,
		ProductURL:    rec.ProductURL,
		CreatedAt:     rec.CreatedAt,
	}
}

func toDomainAmbassador(rec ambassadorModel) domain.Ambassador {
	return domain.Ambassador{
		AmbassadorID:      rec.AmbassadorID,
		Ref:               rec.Ref,
		Status:            rec.Status,
		SponsorID:         rec.SponsorID,
		Tier:              rec.Tier,
		ValidatedSales30d: rec.ValidatedSales30d,
		JoinedAt:          rec.JoinedAt,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func toAmbassadorModel(row domain.Ambassador) ambassadorModel {
	return ambassadorModel{
		AmbassadorID:      row.AmbassadorID,
		Ref:               row.Ref,
		Status:            row.Status,
		SponsorID:         row.SponsorID,
		Tier:              row.Tier,
		ValidatedSales30d: row.ValidatedSales30d,
		JoinedAt:          row.JoinedAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func toDomainConversion(rec conversionModel) domain.Conversion {
	return domain.Conversion{
		ConversionID:    rec.ConversionID,
		ProgramID:       rec.ProgramID,
		AmbassadorID:    rec.AmbassadorID,
		BuyerID:         rec.BuyerID,
		OrderRef:        rec.OrderRef,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		CommissionTotal: rec.CommissionTotal,
		AmbassadorShare: rec.AmbassadorShare,
		SponsorL1Share:  rec.SponsorL1Share,
		SponsorL2Share:  rec.SponsorL2Share,
		BuyerShare:      rec.BuyerShare,
		PlatformShare:   rec.PlatformShare,
		Tier:            rec.Tier,
		Status:          rec.Status,
		NeedsReview:     rec.NeedsReview,
		CancelReason:    rec.CancelReason,
		CreatedAt:       rec.CreatedAt,
		ConfirmedAt:     rec.ConfirmedAt,
		PaidAt:          rec.PaidAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func toConversionModel(row domain.Conversion) conversionModel {
	return conversionModel{
		ConversionID:    row.ConversionID,
		ProgramID:       row.ProgramID,
		AmbassadorID:    row.AmbassadorID,
		BuyerID:         row.BuyerID,
		OrderRef:        row.OrderRef,
		Amount:          row.Amount,
		Currency:        row.Currency,
		CommissionTotal: row.CommissionTotal,
		AmbassadorShare: row.AmbassadorShare,
		SponsorL1Share:  row.SponsorL1Share,
		SponsorL2Share:  row.SponsorL2Share,
		BuyerShare:      row.BuyerShare,
		PlatformShare:   row.PlatformShare,
		Tier:            row.Tier,
		Status:          row.Status,
		NeedsReview:     row.NeedsReview,
		CancelReason:    row.CancelReason,
		CreatedAt:       row.CreatedAt,
		ConfirmedAt:     row.ConfirmedAt,
		PaidAt:          row.PaidAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainCashbackEntry(rec cashbackEntryModel) domain.CashbackLedgerEntry {
	return domain.CashbackLedgerEntry{
		EntryID:      rec.EntryID,
		BuyerID:      rec.BuyerID,
		ConversionID: rec.ConversionID,
		EntryType:    rec.EntryType,
		Amount:       rec.Amount,
		BalanceAfter: rec.BalanceAfter,
		Reason:       rec.Reason,
		CreatedAt:    rec.CreatedAt,
	}
}
