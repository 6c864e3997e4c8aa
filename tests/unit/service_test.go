package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	eventadapter "github.com/Samuel871933/buylav2-sub001/internal/adapters/events"
	"github.com/Samuel871933/buylav2-sub001/internal/adapters/memory"
	"github.com/Samuel871933/buylav2-sub001/internal/application"
	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

type fixture struct {
	svc       *application.Service
	repos     *memory.Repositories
	store     *memory.AttributionStore
	domainPub *eventadapter.MemoryDomainPublisher
	opsPub    *eventadapter.MemoryOpsPublisher
	now       *time.Time
}

func newFixture() *fixture {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{now: &now}
	f.repos = memory.NewRepositories()
	f.store = memory.NewAttributionStore(func() time.Time { return *f.now })
	f.domainPub = eventadapter.NewMemoryDomainPublisher()
	f.opsPub = eventadapter.NewMemoryOpsPublisher()
	f.svc = application.NewService(application.Dependencies{
		Programs:     f.repos.Programs,
		Clicks:       f.repos.Clicks,
		Attribution:  f.store,
		Ambassadors:  f.repos.Ambassadors,
		Conversions:  f.repos.Conversions,
		Ledger:       f.repos.Ledger,
		EventDedup:   f.repos.EventDedup,
		Outbox:       f.repos.Outbox,
		DomainEvents: f.domainPub,
		Ops:          f.opsPub,
		DLQ:          eventadapter.NewMemoryDLQPublisher(),
	})
	return f
}

func (f *fixture) seedProgram(t *testing.T) domain.AffiliateProgram {
	t.Helper()
	program := domain.AffiliateProgram{
		ProgramID:             "prog_amz",
		Name:                  "Amazon FR",
		Network:               domain.NetworkAmazon,
		RedirectTemplate:      "{BASE_URL}?tag={AFFILIATE_TAG}&subid={SUB_ID}",
		BaseURL:               "https://www.amazon.fr",
		SubIDParam:            "subid",
		SubIDFormat:           "buyla_{REF}",
		PublisherID:           "buyla-tag-20",
		NetworkCommissionRate: 0.10,
		BuyerCashbackRate:     0.02,
		Active:                true,
	}
	if err := f.repos.Programs.Create(context.Background(), program); err != nil {
		t.Fatalf("seed program: %v", err)
	}
	return program
}

func (f *fixture) seedAmbassadors(t *testing.T) {
	t.Helper()
	// Share computations run on the wall clock, so the joined date must be
	// relative to it for the sponsor windows to hold.
	joined := time.Now().UTC().AddDate(0, -1, 0)
	rows := []domain.Ambassador{
		{AmbassadorID: "amb_3", Ref: "GHI789", Status: domain.AmbassadorStatusActive, Tier: domain.TierBeginner, JoinedAt: joined},
		{AmbassadorID: "amb_2", Ref: "DEF456", Status: domain.AmbassadorStatusActive, SponsorID: "amb_3", Tier: domain.TierBeginner, JoinedAt: joined},
		{AmbassadorID: "amb_1", Ref: "ABC123", Status: domain.AmbassadorStatusActive, SponsorID: "amb_2", Tier: domain.TierBeginner, JoinedAt: joined},
	}
	for _, row := range rows {
		if err := f.repos.Ambassadors.Create(context.Background(), row); err != nil {
			t.Fatalf("seed ambassador %s: %v", row.AmbassadorID, err)
		}
	}
}

func reconciler() application.Actor {
	return application.Actor{SubjectID: "recon-1", Role: "reconciliation"}
}

// flakyLedger fails a configurable number of appends before delegating,
// standing in for a transient storage outage.
type flakyLedger struct {
	inner    *memory.CashbackLedgerRepository
	failures int
}

func (l *flakyLedger) Append(ctx context.Context, entry domain.CashbackLedgerEntry) (domain.CashbackLedgerEntry, error) {
	if l.failures > 0 {
		l.failures--
		return domain.CashbackLedgerEntry{}, domain.ErrStorageUnavailable
	}
	return l.inner.Append(ctx, entry)
}

func (l *flakyLedger) Balance(ctx context.Context, buyerID string) (float64, error) {
	return l.inner.Balance(ctx, buyerID)
}

func (l *flakyLedger) ListByBuyerID(ctx context.Context, buyerID string) ([]domain.CashbackLedgerEntry, error) {
	return l.inner.ListByBuyerID(ctx, buyerID)
}

func (f *fixture) serviceWithLedger(ledger *flakyLedger) *application.Service {
	return application.NewService(application.Dependencies{
		Programs:     f.repos.Programs,
		Clicks:       f.repos.Clicks,
		Attribution:  f.store,
		Ambassadors:  f.repos.Ambassadors,
		Conversions:  f.repos.Conversions,
		Ledger:       ledger,
		EventDedup:   f.repos.EventDedup,
		Outbox:       f.repos.Outbox,
		DomainEvents: f.domainPub,
		Ops:          f.opsPub,
		DLQ:          eventadapter.NewMemoryDLQPublisher(),
	})
}

func TestRecordVisitLastClickWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.RecordVisit(ctx, application.RecordVisitInput{AmbassadorRef: "ABC123"})
	if err != nil {
		t.Fatalf("record first visit: %v", err)
	}
	if first.VisitorID == "" {
		t.Fatalf("expected generated visitor id")
	}
	_, err = f.svc.RecordVisit(ctx, application.RecordVisitInput{VisitorID: first.VisitorID, AmbassadorRef: "DEF456"})
	if err != nil {
		t.Fatalf("record second visit: %v", err)
	}
	ref, err := f.svc.GetAttribution(ctx, first.VisitorID)
	if err != nil {
		t.Fatalf("get attribution: %v", err)
	}
	if ref != "DEF456" {
		t.Fatalf("last click must win, got %s", ref)
	}
}

func TestAttributionExpiresAfterWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	out, err := f.svc.RecordVisit(ctx, application.RecordVisitInput{AmbassadorRef: "ABC123"})
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	*f.now = f.now.Add(domain.AttributionWindow - time.Hour)
	if _, err := f.svc.GetAttribution(ctx, out.VisitorID); err != nil {
		t.Fatalf("attribution should still be live: %v", err)
	}
	*f.now = f.now.Add(2 * time.Hour)
	if _, err := f.svc.GetAttribution(ctx, out.VisitorID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired attribution must be absent, got %v", err)
	}
}

func TestAttributionWindowRestartsOnNewClick(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	out, err := f.svc.RecordVisit(ctx, application.RecordVisitInput{AmbassadorRef: "ABC123"})
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	*f.now = f.now.Add(60 * 24 * time.Hour)
	if _, err := f.svc.RecordVisit(ctx, application.RecordVisitInput{VisitorID: out.VisitorID, AmbassadorRef: "DEF456"}); err != nil {
		t.Fatalf("record second visit: %v", err)
	}
	// 60 + 60 days is past the original window but inside the restarted one.
	*f.now = f.now.Add(60 * 24 * time.Hour)
	ref, err := f.svc.GetAttribution(ctx, out.VisitorID)
	if err != nil {
		t.Fatalf("attribution should have restarted: %v", err)
	}
	if ref != "DEF456" {
		t.Fatalf("unexpected ref %s", ref)
	}
}

func TestTrackClickUnknownOrInactiveProgram(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.TrackClick(ctx, application.TrackClickInput{ProgramID: "prog_missing", AmbassadorRef: "ABC123"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown program must report not found, got %v", err)
	}

	program := f.seedProgram(t)
	program.Active = false
	if err := f.repos.Programs.Update(ctx, program); err != nil {
		t.Fatalf("deactivate program: %v", err)
	}
	_, err = f.svc.TrackClick(ctx, application.TrackClickInput{ProgramID: program.ProgramID, AmbassadorRef: "ABC123"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("inactive program must report not found, got %v", err)
	}
}

func TestTrackClickResolvesTemplateAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	out, err := f.svc.TrackClick(ctx, application.TrackClickInput{ProgramID: "prog_amz", AmbassadorRef: "ABC123"})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}
	if out.RedirectURL != "https://www.amazon.fr?tag=buyla-tag-20&subid=buyla_ABC123" {
		t.Fatalf("unexpected redirect url: %s", out.RedirectURL)
	}
	if out.SubIDSent != "buyla_ABC123" {
		t.Fatalf("unexpected sub id: %s", out.SubIDSent)
	}
	clicks, err := f.repos.Clicks.ListByVisitorID(ctx, out.VisitorID)
	if err != nil || len(clicks) != 1 {
		t.Fatalf("expected 1 click recorded, got %d (%v)", len(clicks), err)
	}

	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("flush outbox: %v", err)
	}
	tracked := f.domainPub.ByType("affiliate.click.tracked")
	if len(tracked) != 1 {
		t.Fatalf("expected 1 click event, got %d", len(tracked))
	}
	if tracked[0].PartitionKeyPath != "data.program_id" || tracked[0].PartitionKey != "prog_amz" {
		t.Fatalf("partition key invariant not set: %s=%s", tracked[0].PartitionKeyPath, tracked[0].PartitionKey)
	}
}

func TestTrackClickFallsBackToStoredAttribution(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	visit, err := f.svc.RecordVisit(ctx, application.RecordVisitInput{AmbassadorRef: "ABC123"})
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	out, err := f.svc.TrackClick(ctx, application.TrackClickInput{ProgramID: "prog_amz", VisitorID: visit.VisitorID})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}
	if out.SubIDSent != "buyla_ABC123" {
		t.Fatalf("stored attribution must feed the sub id, got %q", out.SubIDSent)
	}
}

func TestTrackClickCleansAmazonProductURL(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	out, err := f.svc.TrackClick(ctx, application.TrackClickInput{
		ProgramID:     "prog_amz",
		AmbassadorRef: "ABC123",
		ProductURL:    "https://www.amazon.fr/Produit-Super/dp/B09ABC1234/ref=sr_1_1?keywords=test",
	})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}
	clicks, err := f.repos.Clicks.ListByVisitorID(ctx, out.VisitorID)
	if err != nil || len(clicks) != 1 {
		t.Fatalf("expected 1 click, got %d (%v)", len(clicks), err)
	}
	if clicks[0].ProductURL != "https://www.amazon.fr/dp/B09ABC1234" {
		t.Fatalf("product url not canonicalized: %s", clicks[0].ProductURL)
	}
}

func TestCreateConversionAuthz(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	in := application.CreateConversionInput{ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 100}

	if _, err := f.svc.CreateConversion(ctx, application.Actor{}, in); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing subject must be unauthorized, got %v", err)
	}
	if _, err := f.svc.CreateConversion(ctx, application.Actor{SubjectID: "user-1", Role: "buyer"}, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("buyer role must be forbidden, got %v", err)
	}
}

func TestCreateConversionDuplicateOrderRef(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)
	in := application.CreateConversionInput{ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 100, AmbassadorRef: "ABC123"}

	first, err := f.svc.CreateConversion(ctx, reconciler(), in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.svc.CreateConversion(ctx, reconciler(), in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.ConversionID != second.ConversionID {
		t.Fatalf("duplicate order ref must return existing conversion: %s vs %s", first.ConversionID, second.ConversionID)
	}
}

func TestCreateConversionUnknownRefStaysUnattributed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 100, AmbassadorRef: "ZZZ999", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.AmbassadorID != "" {
		t.Fatalf("unknown ref must not attach an ambassador")
	}
	if conv.AmbassadorShare != 0 || conv.PlatformShare != conv.CommissionTotal {
		t.Fatalf("platform must absorb commission on unattributed sale")
	}
	if conv.BuyerShare != 2 {
		t.Fatalf("buyer cashback still applies, got %v", conv.BuyerShare)
	}
}

func TestConfirmIdempotentSingleLedgerWrite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 200, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if first.Status != domain.ConversionStatusConfirmed || first.ConfirmedAt == nil {
		t.Fatalf("unexpected confirmed state: %+v", first)
	}
	if first.BuyerShare != 4 {
		t.Fatalf("buyer share = %v, want 4", first.BuyerShare)
	}
	if first.SponsorL1Share == 0 || first.SponsorL2Share == 0 {
		t.Fatalf("sponsor chain inside windows must earn bonuses: %+v", first)
	}

	second, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID)
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if second.AmbassadorShare != first.AmbassadorShare || second.CommissionTotal != first.CommissionTotal {
		t.Fatalf("repeat confirm must return frozen shares")
	}

	entries, err := f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cashback must be credited exactly once, got %d entries", len(entries))
	}
	balance, err := f.repos.Ledger.Balance(ctx, "buyer_1")
	if err != nil || balance != 4 {
		t.Fatalf("balance = %v (%v), want 4", balance, err)
	}
}

func TestConfirmRetryRepairsLostCashback(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)
	ledger := &flakyLedger{inner: f.repos.Ledger, failures: 1}
	svc := f.serviceWithLedger(ledger)

	conv, err := svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 200, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("first confirm should surface the ledger outage, got %v", err)
	}
	stored, err := f.repos.Conversions.GetByID(ctx, conv.ConversionID)
	if err != nil || stored.Status != domain.ConversionStatusConfirmed {
		t.Fatalf("status after failed ledger write: %s (%v)", stored.Status, err)
	}

	retried, err := svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID)
	if err != nil {
		t.Fatalf("retry confirm: %v", err)
	}
	if retried.Status != domain.ConversionStatusConfirmed {
		t.Fatalf("retry must report the confirmed record")
	}
	entries, err := f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("retry must repair the missing entry exactly once, got %d (%v)", len(entries), err)
	}
	balance, err := f.repos.Ledger.Balance(ctx, "buyer_1")
	if err != nil || balance != 4 {
		t.Fatalf("balance = %v (%v), want 4", balance, err)
	}

	if _, err := svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); err != nil {
		t.Fatalf("third confirm: %v", err)
	}
	entries, _ = f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if len(entries) != 1 {
		t.Fatalf("repeated confirm must not double-credit, got %d entries", len(entries))
	}
}

func TestCancelRetryRepairsLostClawback(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)
	ledger := &flakyLedger{inner: f.repos.Ledger}
	svc := f.serviceWithLedger(ledger)

	conv, err := svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 250, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	ledger.failures = 1
	if _, err := svc.CancelConversion(ctx, reconciler(), conv.ConversionID, "merchant refund"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("first cancel should surface the ledger outage, got %v", err)
	}
	stored, err := f.repos.Conversions.GetByID(ctx, conv.ConversionID)
	if err != nil || stored.Status != domain.ConversionStatusCancelled {
		t.Fatalf("status after failed clawback write: %s (%v)", stored.Status, err)
	}

	retried, err := svc.CancelConversion(ctx, reconciler(), conv.ConversionID, "merchant refund")
	if err != nil {
		t.Fatalf("retry cancel: %v", err)
	}
	if retried.Status != domain.ConversionStatusCancelled {
		t.Fatalf("retry must report the cancelled record")
	}
	entries, err := f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if err != nil || len(entries) != 2 {
		t.Fatalf("retry must repair the clawback exactly once, got %d (%v)", len(entries), err)
	}
	balance, err := f.repos.Ledger.Balance(ctx, "buyer_1")
	if err != nil || balance != 0 {
		t.Fatalf("balance after repaired clawback = %v (%v), want 0", balance, err)
	}

	if _, err := svc.CancelConversion(ctx, reconciler(), conv.ConversionID, "merchant refund"); err != nil {
		t.Fatalf("third cancel: %v", err)
	}
	entries, _ = f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if len(entries) != 2 {
		t.Fatalf("repeated cancel must not double-claw, got %d entries", len(entries))
	}
}

func TestCancelAfterConfirmReversesCashback(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 250, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	cancelled, err := f.svc.CancelConversion(ctx, reconciler(), conv.ConversionID, "merchant refund")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.ConversionStatusCancelled || cancelled.CancelReason != "merchant refund" {
		t.Fatalf("unexpected cancelled state: %+v", cancelled)
	}

	entries, err := f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected earned + clawback entries, got %d (%v)", len(entries), err)
	}
	if entries[0].Amount+entries[1].Amount != 0 {
		t.Fatalf("entries must sum to zero: %v and %v", entries[0].Amount, entries[1].Amount)
	}
	balance, err := f.repos.Ledger.Balance(ctx, "buyer_1")
	if err != nil || balance != 0 {
		t.Fatalf("balance after clawback = %v (%v), want 0", balance, err)
	}

	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("flush outbox: %v", err)
	}
	if len(f.domainPub.ByType("cashback.clawback")) != 1 {
		t.Fatalf("expected one clawback event")
	}
}

func TestNoTransitionsFromTerminalStates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.CancelConversion(ctx, reconciler(), conv.ConversionID, "fraud"); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if _, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); !errors.Is(err, domain.ErrTransitionNotAllowed) {
		t.Fatalf("confirm after cancel must be rejected, got %v", err)
	}
	if _, err := f.svc.MarkConversionPaid(ctx, reconciler(), conv.ConversionID); !errors.Is(err, domain.ErrTransitionNotAllowed) {
		t.Fatalf("pay after cancel must be rejected, got %v", err)
	}

	paid, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-2", Amount: 100,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := f.svc.ConfirmConversion(ctx, reconciler(), paid.ConversionID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.MarkConversionPaid(ctx, reconciler(), paid.ConversionID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := f.svc.CancelConversion(ctx, reconciler(), paid.ConversionID, "too late"); !errors.Is(err, domain.ErrTransitionNotAllowed) {
		t.Fatalf("cancel after paid must be rejected, got %v", err)
	}
	current, err := f.svc.GetConversion(ctx, reconciler(), paid.ConversionID)
	if err != nil || current.Status != domain.ConversionStatusPaid {
		t.Fatalf("terminal record must be untouched: %+v (%v)", current, err)
	}
}

func TestMarkPaidRequiresConfirmedState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.MarkConversionPaid(ctx, reconciler(), conv.ConversionID); !errors.Is(err, domain.ErrTransitionNotAllowed) {
		t.Fatalf("pay from pending must be rejected, got %v", err)
	}
}

func TestRecomputeTiersFromValidatedSales(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)

	for i := 0; i < 10; i++ {
		conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
			ProgramID: "prog_amz", OrderRef: "ord-" + string(rune('a'+i)), Amount: 50, AmbassadorRef: "ABC123",
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if _, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
	}

	updated, err := f.svc.RecomputeTiers(ctx)
	if err != nil {
		t.Fatalf("recompute tiers: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected exactly one ambassador updated, got %d", updated)
	}
	tier, err := f.svc.AmbassadorTier(ctx, reconciler(), "amb_1")
	if err != nil {
		t.Fatalf("ambassador tier: %v", err)
	}
	if tier.Tier != domain.TierActive || tier.Rate != 0.26 || tier.ValidatedSales30d != 10 {
		t.Fatalf("unexpected tier: %+v", tier)
	}
}

func reconciliationEnvelope(t *testing.T, eventID, eventType string, payload contracts.ReconciliationOrderPayload) contracts.EventEnvelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return contracts.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "postback-relay",
		TraceID:       "trace-" + eventID,
		SchemaVersion: "1.0",
		Data:          raw,
	}
}

func TestHandleReconciliationEventLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)

	recorded := reconciliationEnvelope(t, "evt-1", "order.recorded", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 120, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err := f.svc.HandleReconciliationEvent(ctx, recorded); err != nil {
		t.Fatalf("order.recorded: %v", err)
	}
	// Redelivery of the same event id is a no-op.
	if err := f.svc.HandleReconciliationEvent(ctx, recorded); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	settled := reconciliationEnvelope(t, "evt-2", "order.settled", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1",
	})
	if err := f.svc.HandleReconciliationEvent(ctx, settled); err != nil {
		t.Fatalf("order.settled: %v", err)
	}

	conv, err := f.repos.Conversions.GetByOrderRef(ctx, "prog_amz", "ord-1")
	if err != nil {
		t.Fatalf("get conversion: %v", err)
	}
	if conv.Status != domain.ConversionStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", conv.Status)
	}

	entries, err := f.repos.Ledger.ListByBuyerID(ctx, "buyer_1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected single earned entry, got %d (%v)", len(entries), err)
	}

	payout := reconciliationEnvelope(t, "evt-3", "payout.completed", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1",
	})
	if err := f.svc.HandleReconciliationEvent(ctx, payout); err != nil {
		t.Fatalf("payout.completed: %v", err)
	}
	conv, _ = f.repos.Conversions.GetByOrderRef(ctx, "prog_amz", "ord-1")
	if conv.Status != domain.ConversionStatusPaid {
		t.Fatalf("expected paid, got %s", conv.Status)
	}
}

func TestReconciliationSettledBeforeRecordedRetries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	// The input topics carry no cross-topic ordering, so a settle can
	// land before its order. The failed delivery must stay unmarked so
	// the broker's redelivery gets a real retry.
	settled := reconciliationEnvelope(t, "evt-settle", "order.settled", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1",
	})
	if err := f.svc.HandleReconciliationEvent(ctx, settled); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("settle before record should fail not-found, got %v", err)
	}

	recorded := reconciliationEnvelope(t, "evt-rec", "order.recorded", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 80,
	})
	if err := f.svc.HandleReconciliationEvent(ctx, recorded); err != nil {
		t.Fatalf("order.recorded: %v", err)
	}

	if err := f.svc.HandleReconciliationEvent(ctx, settled); err != nil {
		t.Fatalf("redelivered settle must apply, got %v", err)
	}
	conv, err := f.repos.Conversions.GetByOrderRef(ctx, "prog_amz", "ord-1")
	if err != nil || conv.Status != domain.ConversionStatusConfirmed {
		t.Fatalf("expected confirmed after retried settle, got %s (%v)", conv.Status, err)
	}
}

func TestHandleReconciliationEventStrictSchema(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)

	envelope := reconciliationEnvelope(t, "evt-1", "order.recorded", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 50,
	})
	envelope.Data = json.RawMessage(`{"program_id":"prog_amz","order_ref":"ord-1","amount":50,"surprise":true}`)
	if err := f.svc.HandleReconciliationEvent(ctx, envelope); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown payload field must be rejected, got %v", err)
	}

	envelope = reconciliationEnvelope(t, "evt-2", "order.shipped", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1",
	})
	if err := f.svc.HandleReconciliationEvent(ctx, envelope); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("unknown event type must be rejected, got %v", err)
	}

	envelope = reconciliationEnvelope(t, "", "order.recorded", contracts.ReconciliationOrderPayload{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 50,
	})
	if err := f.svc.HandleReconciliationEvent(ctx, envelope); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing event id must be rejected, got %v", err)
	}
}

func TestFlushOutboxPublishesLifecycleEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedProgram(t)
	f.seedAmbassadors(t)

	conv, err := f.svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_amz", OrderRef: "ord-1", Amount: 200, AmbassadorRef: "ABC123", BuyerID: "buyer_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	for _, eventType := range []string{"conversion.created", "conversion.confirmed", "cashback.earned"} {
		if len(f.domainPub.ByType(eventType)) != 1 {
			t.Fatalf("expected exactly one %s event", eventType)
		}
	}
	earned := f.domainPub.ByType("cashback.earned")[0]
	if earned.PartitionKeyPath != "data.buyer_id" || earned.PartitionKey != "buyer_1" {
		t.Fatalf("cashback events must partition by buyer: %s=%s", earned.PartitionKeyPath, earned.PartitionKey)
	}

	// A second flush has nothing pending.
	if err := f.svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if len(f.domainPub.ByType("conversion.confirmed")) != 1 {
		t.Fatalf("outbox records must publish exactly once")
	}
}

func TestConfigAlertRoutesToOpsStream(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedAmbassadors(t)
	program := domain.AffiliateProgram{
		ProgramID:             "prog_hot",
		Name:                  "Misconfigured",
		Network:               domain.NetworkDirect,
		RedirectTemplate:      "{BASE_URL}",
		BaseURL:               "https://shop.example",
		NetworkCommissionRate: 0.10,
		Active:                true,
	}
	if err := f.repos.Programs.Create(ctx, program); err != nil {
		t.Fatalf("seed program: %v", err)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			SponsorL1Rate: 0.60,
			SponsorL2Rate: 0.30,
		},
		Programs:     f.repos.Programs,
		Clicks:       f.repos.Clicks,
		Attribution:  f.store,
		Ambassadors:  f.repos.Ambassadors,
		Conversions:  f.repos.Conversions,
		Ledger:       f.repos.Ledger,
		EventDedup:   f.repos.EventDedup,
		Outbox:       f.repos.Outbox,
		DomainEvents: f.domainPub,
		Ops:          f.opsPub,
	})

	conv, err := svc.CreateConversion(ctx, reconciler(), application.CreateConversionInput{
		ProgramID: "prog_hot", OrderRef: "ord-1", Amount: 100, AmbassadorRef: "ABC123",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	confirmed, err := svc.ConfirmConversion(ctx, reconciler(), conv.ConversionID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.PlatformShare != 0 || !confirmed.NeedsReview {
		t.Fatalf("clamped residual must flag review: %+v", confirmed)
	}
	if err := svc.FlushOutbox(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(f.opsPub.Events) == 0 {
		t.Fatalf("config alert must publish on the ops stream")
	}
}
