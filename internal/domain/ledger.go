package domain

import "time"

const (
	CashbackEntryEarned     = "earned"
	CashbackEntryWithdrawal = "withdrawal"
	CashbackEntryClawback   = "clawback"
	CashbackEntryAdjustment = "adjustment"
)

// CashbackLedgerEntry is one balance-affecting event for a buyer.
// Append-only: corrections are made by appending a clawback or an
// adjustment, never by mutating prior rows.
type CashbackLedgerEntry struct {
	EntryID      string    `json:"entry_id"`
	BuyerID      string    `json:"buyer_id"`
	ConversionID string    `json:"conversion_id"`
	EntryType    string    `json:"entry_type"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}
