package application

import (
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type Config struct {
	ServiceName           string
	DefaultCurrency       string
	SponsorL1Rate         float64
	SponsorL2Rate         float64
	SponsorL1WindowMonths int
	SponsorL2WindowMonths int
	ValidatedSaleWindow   time.Duration
	EventDedupTTL         time.Duration
	OutboxFlushBatchSize  int
	ConsumerPollInterval  time.Duration
}

type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

type RecordVisitInput struct {
	VisitorID     string
	AmbassadorRef string
}

type RecordVisitResult struct {
	VisitorID string
}

type TrackClickInput struct {
	VisitorID     string
	AmbassadorRef string
	ProgramID     string
	ProductURL    string
}

type TrackClickResult struct {
	ClickID     string
	VisitorID   string
	RedirectURL string
	SubIDSent   string
}

type CreateConversionInput struct {
	ProgramID     string
	OrderRef      string
	Amount        float64
	Currency      string
	AmbassadorRef string
	BuyerID       string
}

type AmbassadorTierResult struct {
	AmbassadorID      string
	Tier              string
	Rate              float64
	ValidatedSales30d int
}

type CashbackBalanceResult struct {
	BuyerID string
	Balance float64
	Entries []domain.CashbackLedgerEntry
}

type Service struct {
	cfg Config

	programs    ports.ProgramRepository
	clicks      ports.ClickEventRepository
	attribution ports.AttributionStore
	ambassadors ports.AmbassadorRepository
	conversions ports.ConversionRepository
	ledger      ports.CashbackLedgerRepository
	eventDedup  ports.EventDedupRepository
	outbox      ports.OutboxRepository

	domainEvents ports.DomainPublisher
	ops          ports.OpsPublisher
	dlq          ports.DLQPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Programs    ports.ProgramRepository
	Clicks      ports.ClickEventRepository
	Attribution ports.AttributionStore
	Ambassadors ports.AmbassadorRepository
	Conversions ports.ConversionRepository
	Ledger      ports.CashbackLedgerRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository

	DomainEvents ports.DomainPublisher
	Ops          ports.OpsPublisher
	DLQ          ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "buyla-attribution-engine"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	policy := domain.DefaultCommissionPolicy()
	if cfg.SponsorL1Rate <= 0 {
		cfg.SponsorL1Rate = policy.SponsorL1Rate
	}
	if cfg.SponsorL2Rate <= 0 {
		cfg.SponsorL2Rate = policy.SponsorL2Rate
	}
	if cfg.SponsorL1WindowMonths <= 0 {
		cfg.SponsorL1WindowMonths = policy.SponsorL1WindowMonths
	}
	if cfg.SponsorL2WindowMonths <= 0 {
		cfg.SponsorL2WindowMonths = policy.SponsorL2WindowMonths
	}
	if cfg.ValidatedSaleWindow <= 0 {
		cfg.ValidatedSaleWindow = 30 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.ConsumerPollInterval <= 0 {
		cfg.ConsumerPollInterval = 2 * time.Second
	}
	return &Service{
		cfg:          cfg,
		programs:     deps.Programs,
		clicks:       deps.Clicks,
		attribution:  deps.Attribution,
		ambassadors:  deps.Ambassadors,
		conversions:  deps.Conversions,
		ledger:       deps.Ledger,
		eventDedup:   deps.EventDedup,
		outbox:       deps.Outbox,
		domainEvents: deps.DomainEvents,
		ops:          deps.Ops,
		dlq:          deps.DLQ,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) policy() domain.CommissionPolicy {
	return domain.CommissionPolicy{
		SponsorL1Rate:         s.cfg.SponsorL1Rate,
		SponsorL2Rate:         s.cfg.SponsorL2Rate,
		SponsorL1WindowMonths: s.cfg.SponsorL1WindowMonths,
		SponsorL2WindowMonths: s.cfg.SponsorL2WindowMonths,
	}
}
