package postgres

import "time"

type programModel struct {
	ProgramID             string    `gorm:"column:program_id;primaryKey"`
	Name                  string    `gorm:"column:name"`
	Network               string    `gorm:"column:network"`
	RedirectTemplate      string    `gorm:"column:redirect_template"`
	BaseURL               string    `gorm:"column:base_url"`
	SubIDParam            string    `gorm:"column:sub_id_param"`
	SubIDFormat           string    `gorm:"column:sub_id_format"`
	PublisherID           string    `gorm:"column:publisher_id"`
	MerchantID            string    `gorm:"column:merchant_id"`
	NetworkCommissionRate float64   `gorm:"column:network_commission_rate"`
	BuyerCashbackRate     float64   `gorm:"column:buyer_cashback_rate"`
	Active                bool      `gorm:"column:active"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (programModel) TableName() string { return "affiliate_programs" }

type clickEventModel struct {
	ClickID       string    `gorm:"column:click_id;primaryKey"`
	VisitorID     string    `gorm:"column:visitor_id"`
	AmbassadorRef string    `gorm:"column:ambassador_ref"`
	ProgramID     string    `gorm:"column:program_id"`
	ResolvedURL   string    `gorm:"column:resolved_url"`
	SubIDSent     string    `gorm:"column:sub_id_sent"`
	ProductURL    string    `gorm:"column:product_url"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (clickEventModel) TableName() string { return "click_events" }

type ambassadorModel struct {
	AmbassadorID      string    `gorm:"column:ambassador_id;primaryKey"`
	Ref               string    `gorm:"column:ref"`
	Status            string    `gorm:"column:status"`
	SponsorID         string    `gorm:"column:sponsor_id"`
	Tier              string    `gorm:"column:tier"`
	ValidatedSales30d int       `gorm:"column:validated_sales_30d"`
	JoinedAt          time.Time `gorm:"column:joined_at"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (ambassadorModel) TableName() string { return "ambassadors" }

type conversionModel struct {
	ConversionID    string     `gorm:"column:conversion_id;primaryKey"`
	ProgramID       string     `gorm:"column:program_id"`
	AmbassadorID    string     `gorm:"column:ambassador_id"`
	BuyerID         string     `gorm:"column:buyer_id"`
	OrderRef        string     `gorm:"column:order_ref"`
	Amount          float64    `gorm:"column:amount"`
	Currency        string     `gorm:"column:currency"`
	CommissionTotal float64    `gorm:"column:commission_total"`
	AmbassadorShare float64    `gorm:"column:ambassador_share"`
	SponsorL1Share  float64    `gorm:"column:sponsor_l1_share"`
	SponsorL2Share  float64    `gorm:"column:sponsor_l2_share"`
	BuyerShare      float64    `gorm:"column:buyer_share"`
	PlatformShare   float64    `gorm:"column:platform_share"`
	Tier            string     `gorm:"column:tier"`
	Status          string     `gorm:"column:status"`
	NeedsReview     bool       `gorm:"column:needs_review"`
	CancelReason    string     `gorm:"column:cancel_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	ConfirmedAt     *time.Time `gorm:"column:confirmed_at"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (conversionModel) TableName() string { return "conversions" }

type cashbackEntryModel struct {
	EntryID      string    `gorm:"column:entry_id;primaryKey"`
	BuyerID      string    `gorm:"column:buyer_id"`
	ConversionID string    `gorm:"column:conversion_id"`
	EntryType    string    `gorm:"column:entry_type"`
	Amount       float64   `gorm:"column:amount"`
	BalanceAfter float64   `gorm:"column:balance_after"`
	Reason       string    `gorm:"column:reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (cashbackEntryModel) TableName() string { return "cashback_ledger_entries" }

type cashbackBalanceModel struct {
	BuyerID   string    `gorm:"column:buyer_id;primaryKey"`
	Balance   float64   `gorm:"column:balance"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (cashbackBalanceModel) TableName() string { return "cashback_balances" }

type outboxModel struct {
	RecordID    string     `gorm:"column:record_id;primaryKey"`
	EventClass  string     `gorm:"column:event_class"`
	Envelope    string     `gorm:"column:envelope"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "outbox_events" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "event_dedup" }
