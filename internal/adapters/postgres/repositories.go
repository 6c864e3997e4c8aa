package postgres

import (
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Programs    ports.ProgramRepository
	Clicks      ports.ClickEventRepository
	Ambassadors ports.AmbassadorRepository
	Conversions ports.ConversionRepository
	Ledger      ports.CashbackLedgerRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Programs:    &programRepository{db: db},
		Clicks:      &clickEventRepository{db: db},
		Ambassadors: &ambassadorRepository{db: db},
		Conversions: &conversionRepository{db: db},
		Ledger:      &cashbackLedgerRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
