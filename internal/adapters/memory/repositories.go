package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type Repositories struct {
	Programs    *ProgramRepository
	Clicks      *ClickEventRepository
	Ambassadors *AmbassadorRepository
	Conversions *ConversionRepository
	Ledger      *CashbackLedgerRepository
	EventDedup  *EventDedupRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Programs:    &ProgramRepository{byID: map[string]domain.AffiliateProgram{}},
		Clicks:      &ClickEventRepository{rows: []domain.ClickEvent{}},
		Ambassadors: &AmbassadorRepository{byID: map[string]domain.Ambassador{}, byRef: map[string]string{}},
		Conversions: &ConversionRepository{byID: map[string]domain.Conversion{}, byOrderRef: map[string]string{}},
		Ledger:      &CashbackLedgerRepository{byBuyer: map[string][]domain.CashbackLedgerEntry{}},
		EventDedup:  &EventDedupRepository{rows: map[string]time.Time{}},
		Outbox:      &OutboxRepository{rows: map[string]ports.OutboxRecord{}, order: []string{}},
	}
}

type ProgramRepository struct {
	mu   sync.Mutex
	byID map[string]domain.AffiliateProgram
}

func (r *ProgramRepository) Create(_ context.Context, row domain.AffiliateProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[row.ProgramID]; ok {
		return domain.ErrConflict
	}
	r.byID[row.ProgramID] = row
	return nil
}

func (r *ProgramRepository) GetByID(_ context.Context, programID string) (domain.AffiliateProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[strings.TrimSpace(programID)]
	if !ok {
		return domain.AffiliateProgram{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *ProgramRepository) List(_ context.Context) ([]domain.AffiliateProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AffiliateProgram, 0, len(r.byID))
	for _, row := range r.byID {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramID < out[j].ProgramID })
	return out, nil
}

func (r *ProgramRepository) Update(_ context.Context, row domain.AffiliateProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[row.ProgramID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[row.ProgramID] = row
	return nil
}

type ClickEventRepository struct {
	mu   sync.Mutex
	rows []domain.ClickEvent
}

func (r *ClickEventRepository) Append(_ context.Context, row domain.ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *ClickEventRepository) ListByVisitorID(_ context.Context, visitorID string) ([]domain.ClickEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ClickEvent{}
	for _, row := range r.rows {
		if row.VisitorID == visitorID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *ClickEventRepository) CountByProgramID(_ context.Context, programID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.ProgramID == programID {
			count++
		}
	}
	return count, nil
}

type AmbassadorRepository struct {
	mu    sync.Mutex
	byID  map[string]domain.Ambassador
	byRef map[string]string
}

func (r *AmbassadorRepository) Create(_ context.Context, row domain.Ambassador) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[row.AmbassadorID]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.byRef[row.Ref]; ok {
		return domain.ErrConflict
	}
	r.byID[row.AmbassadorID] = row
	r.byRef[row.Ref] = row.AmbassadorID
	return nil
}

func (r *AmbassadorRepository) GetByID(_ context.Context, ambassadorID string) (domain.Ambassador, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[strings.TrimSpace(ambassadorID)]
	if !ok {
		return domain.Ambassador{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *AmbassadorRepository) GetByRef(_ context.Context, ref string) (domain.Ambassador, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[strings.TrimSpace(ref)]
	if !ok {
		return domain.Ambassador{}, domain.ErrNotFound
	}
	row, ok := r.byID[id]
	if !ok {
		return domain.Ambassador{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *AmbassadorRepository) ListActive(_ context.Context) ([]domain.Ambassador, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ambassador{}
	for _, row := range r.byID {
		if row.Status == domain.AmbassadorStatusActive {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AmbassadorID < out[j].AmbassadorID })
	return out, nil
}

func (r *AmbassadorRepository) Update(_ context.Context, row domain.Ambassador) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[row.AmbassadorID]; !ok {
		return domain.ErrNotFound
	}
	r.byID[row.AmbassadorID] = row
	r.byRef[row.Ref] = row.AmbassadorID
	return nil
}

func (r *AmbassadorRepository) UpdateTier(_ context.Context, ambassadorID, tier string, validatedSales30d int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[ambassadorID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Tier = tier
	row.ValidatedSales30d = validatedSales30d
	row.UpdatedAt = at
	r.byID[ambassadorID] = row
	return nil
}

type ConversionRepository struct {
	mu         sync.Mutex
	byID       map[string]domain.Conversion
	byOrderRef map[string]string
}

func orderKey(programID, orderRef string) string { return programID + "|" + orderRef }

func (r *ConversionRepository) Create(_ context.Context, row domain.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[row.ConversionID]; ok {
		return domain.ErrConflict
	}
	key := orderKey(row.ProgramID, row.OrderRef)
	if _, ok := r.byOrderRef[key]; ok {
		return domain.ErrConflict
	}
	r.byID[row.ConversionID] = row
	r.byOrderRef[key] = row.ConversionID
	return nil
}

func (r *ConversionRepository) GetByID(_ context.Context, conversionID string) (domain.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[strings.TrimSpace(conversionID)]
	if !ok {
		return domain.Conversion{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *ConversionRepository) GetByOrderRef(_ context.Context, programID, orderRef string) (domain.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOrderRef[orderKey(strings.TrimSpace(programID), strings.TrimSpace(orderRef))]
	if !ok {
		return domain.Conversion{}, domain.ErrNotFound
	}
	row, ok := r.byID[id]
	if !ok {
		return domain.Conversion{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *ConversionRepository) TransitionFrom(_ context.Context, fromStatus string, row domain.Conversion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[row.ConversionID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if current.Status != fromStatus {
		return false, nil
	}
	r.byID[row.ConversionID] = row
	return true, nil
}

func (r *ConversionRepository) CountConfirmedSince(_ context.Context, ambassadorID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.byID {
		if row.AmbassadorID != ambassadorID || row.ConfirmedAt == nil {
			continue
		}
		if (row.Status == domain.ConversionStatusConfirmed || row.Status == domain.ConversionStatusPaid) && row.ConfirmedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *ConversionRepository) ListByAmbassadorID(_ context.Context, ambassadorID string) ([]domain.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Conversion{}
	for _, row := range r.byID {
		if row.AmbassadorID == ambassadorID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CashbackLedgerRepository serializes appends under one mutex, which
// trivially satisfies the per-buyer ordering requirement for tests and
// local runs. The postgres adapter holds a row lock per buyer instead.
type CashbackLedgerRepository struct {
	mu      sync.Mutex
	byBuyer map[string][]domain.CashbackLedgerEntry
}

func (r *CashbackLedgerRepository) Append(_ context.Context, entry domain.CashbackLedgerEntry) (domain.CashbackLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byBuyer[entry.BuyerID]
	if entry.ConversionID != "" {
		for _, existing := range entries {
			if existing.ConversionID == entry.ConversionID && existing.EntryType == entry.EntryType {
				return domain.CashbackLedgerEntry{}, domain.ErrConflict
			}
		}
	}
	balance := 0.0
	if len(entries) > 0 {
		balance = entries[len(entries)-1].BalanceAfter
	}
	entry.BalanceAfter = domain.Round2(balance + entry.Amount)
	r.byBuyer[entry.BuyerID] = append(entries, entry)
	return entry, nil
}

func (r *CashbackLedgerRepository) Balance(_ context.Context, buyerID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byBuyer[buyerID]
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[len(entries)-1].BalanceAfter, nil
}

func (r *CashbackLedgerRepository) ListByBuyerID(_ context.Context, buyerID string) ([]domain.CashbackLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byBuyer[buyerID]
	out := make([]domain.CashbackLedgerEntry, len(entries))
	copy(out, entries)
	return out, nil
}

type EventDedupRepository struct {
	mu   sync.Mutex
	rows map[string]time.Time
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.rows[eventID]
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		delete(r.rows, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[eventID] = expiresAt
	return nil
}

type OutboxRepository struct {
	mu    sync.Mutex
	rows  map[string]ports.OutboxRecord
	order []string
	sent  map[string]time.Time
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[record.RecordID]; ok {
		return domain.ErrConflict
	}
	r.rows[record.RecordID] = record
	r.order = append(r.order, record.RecordID)
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ports.OutboxRecord{}
	for _, id := range r.order {
		if r.sent != nil {
			if _, done := r.sent[id]; done {
				continue
			}
		}
		record, ok := r.rows[id]
		if !ok {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[recordID]; !ok {
		return domain.ErrNotFound
	}
	if r.sent == nil {
		r.sent = map[string]time.Time{}
	}
	r.sent[recordID] = at
	return nil
}
