package contracts

type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type RecordVisitRequest struct {
	VisitorID     string `json:"visitor_id,omitempty"`
	AmbassadorRef string `json:"ambassador_ref"`
}

type RecordVisitResponse struct {
	VisitorID string `json:"visitor_id"`
}

type AttributionResponse struct {
	VisitorID     string `json:"visitor_id"`
	AmbassadorRef string `json:"ambassador_ref"`
}

type TrackClickRequest struct {
	VisitorID     string `json:"visitor_id"`
	AmbassadorRef string `json:"ambassador_ref,omitempty"`
	ProgramID     string `json:"program_id"`
	ProductURL    string `json:"product_url,omitempty"`
}

type TrackClickResponse struct {
	ClickID     string `json:"click_id"`
	RedirectURL string `json:"redirect_url"`
	SubIDSent   string `json:"sub_id_sent,omitempty"`
}

type CreateConversionRequest struct {
	ProgramID     string  `json:"program_id"`
	OrderRef      string  `json:"order_ref"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	AmbassadorRef string  `json:"ambassador_ref,omitempty"`
	BuyerID       string  `json:"buyer_id,omitempty"`
}

type CancelConversionRequest struct {
	Reason string `json:"reason"`
}

type ConversionResponse struct {
	ConversionID    string  `json:"conversion_id"`
	ProgramID       string  `json:"program_id"`
	AmbassadorID    string  `json:"ambassador_id,omitempty"`
	BuyerID         string  `json:"buyer_id,omitempty"`
	OrderRef        string  `json:"order_ref"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	CommissionTotal float64 `json:"commission_total"`
	AmbassadorShare float64 `json:"ambassador_share"`
	SponsorL1Share  float64 `json:"sponsor_l1_share"`
	SponsorL2Share  float64 `json:"sponsor_l2_share"`
	BuyerShare      float64 `json:"buyer_share"`
	PlatformShare   float64 `json:"platform_share"`
	Tier            string  `json:"tier,omitempty"`
	Status          string  `json:"status"`
	NeedsReview     bool    `json:"needs_review,omitempty"`
	CancelReason    string  `json:"cancel_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ConfirmedAt     string  `json:"confirmed_at,omitempty"`
	PaidAt          string  `json:"paid_at,omitempty"`
}

type AmbassadorTierResponse struct {
	AmbassadorID      string  `json:"ambassador_id"`
	Tier              string  `json:"tier"`
	Rate              float64 `json:"rate"`
	ValidatedSales30d int     `json:"validated_sales_30d"`
}

type CashbackEntry struct {
	EntryID      string  `json:"entry_id"`
	ConversionID string  `json:"conversion_id,omitempty"`
	EntryType    string  `json:"entry_type"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	CreatedAt    string  `json:"created_at"`
}

type CashbackBalanceResponse struct {
	BuyerID string          `json:"buyer_id"`
	Balance float64         `json:"balance"`
	Entries []CashbackEntry `json:"entries"`
}

type RecomputeTiersResponse struct {
	AmbassadorsUpdated int `json:"ambassadors_updated"`
}

type ProgramResponse struct {
	ProgramID         string  `json:"program_id"`
	Name              string  `json:"name"`
	Network           string  `json:"network"`
	BuyerCashbackRate float64 `json:"buyer_cashback_rate"`
	Active            bool    `json:"active"`
}
