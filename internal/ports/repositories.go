package ports

import (
	"context"
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

type ProgramRepository interface {
	Create(ctx context.Context, row domain.AffiliateProgram) error
	GetByID(ctx context.Context, programID string) (domain.AffiliateProgram, error)
	List(ctx context.Context) ([]domain.AffiliateProgram, error)
	Update(ctx context.Context, row domain.AffiliateProgram) error
}

type ClickEventRepository interface {
	Append(ctx context.Context, row domain.ClickEvent) error
	ListByVisitorID(ctx context.Context, visitorID string) ([]domain.ClickEvent, error)
	CountByProgramID(ctx context.Context, programID string) (int, error)
}

// AttributionStore holds the server-side mirror of the visitor cookies.
// RecordVisit is last-write-wins; concurrent writers need no coordination
// beyond the atomic overwrite.
type AttributionStore interface {
	// EnsureVisitor persists the visitor id on first sight with its own
	// long-lived expiry. Re-ensuring an existing id never refreshes it.
	EnsureVisitor(ctx context.Context, visitorID string) error
	// RecordVisit overwrites the attribution and restarts its window.
	RecordVisit(ctx context.Context, visitorID, ambassadorRef string) error
	// GetAttribution returns domain.ErrNotFound for absent or expired
	// records; expiry is logical absence, not an error condition.
	GetAttribution(ctx context.Context, visitorID string) (string, error)
}

type AmbassadorRepository interface {
	Create(ctx context.Context, row domain.Ambassador) error
	GetByID(ctx context.Context, ambassadorID string) (domain.Ambassador, error)
	GetByRef(ctx context.Context, ref string) (domain.Ambassador, error)
	ListActive(ctx context.Context) ([]domain.Ambassador, error)
	Update(ctx context.Context, row domain.Ambassador) error
	UpdateTier(ctx context.Context, ambassadorID, tier string, validatedSales30d int, at time.Time) error
}

type ConversionRepository interface {
	Create(ctx context.Context, row domain.Conversion) error
	GetByID(ctx context.Context, conversionID string) (domain.Conversion, error)
	GetByOrderRef(ctx context.Context, programID, orderRef string) (domain.Conversion, error)
	// TransitionFrom persists row only if the stored status still equals
	// fromStatus (compare-and-swap scoped to one conversion). A false
	// return means the guard lost; the stored row is untouched.
	TransitionFrom(ctx context.Context, fromStatus string, row domain.Conversion) (bool, error)
	CountConfirmedSince(ctx context.Context, ambassadorID string, since time.Time) (int, error)
	ListByAmbassadorID(ctx context.Context, ambassadorID string) ([]domain.Conversion, error)
}

type CashbackLedgerRepository interface {
	// Append serializes appends per buyer and fills in BalanceAfter.
	// Appends for distinct buyers are independent.
	Append(ctx context.Context, entry domain.CashbackLedgerEntry) (domain.CashbackLedgerEntry, error)
	Balance(ctx context.Context, buyerID string) (float64, error)
	ListByBuyerID(ctx context.Context, buyerID string) ([]domain.CashbackLedgerEntry, error)
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxRecord struct {
	RecordID   string
	EventClass string
	Envelope   contracts.EventEnvelope
	CreatedAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}
