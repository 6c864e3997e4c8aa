package domain

import "time"

const (
	NetworkAmazon = "amazon"
	NetworkDirect = "direct"
)

// AffiliateProgram is one merchant partner configuration. It is immutable
// for the duration of a redirect; only admin tooling mutates it.
type AffiliateProgram struct {
	ProgramID             string    `json:"program_id"`
	Name                  string    `json:"name"`
	Network               string    `json:"network"`
	RedirectTemplate      string    `json:"redirect_template"`
	BaseURL               string    `json:"base_url"`
	SubIDParam            string    `json:"sub_id_param"`
	SubIDFormat           string    `json:"sub_id_format"`
	PublisherID           string    `json:"publisher_id"`
	MerchantID            string    `json:"merchant_id"`
	NetworkCommissionRate float64   `json:"network_commission_rate"`
	BuyerCashbackRate     float64   `json:"buyer_cashback_rate"`
	Active                bool      `json:"active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ClickEvent is one outbound redirect instance. Append-only.
type ClickEvent struct {
	ClickID       string    `json:"click_id"`
	VisitorID     string    `json:"visitor_id"`
	AmbassadorRef string    `json:"ambassador_ref"`
	ProgramID     string    `json:"program_id"`
	ResolvedURL   string    `json:"resolved_url"`
	SubIDSent     string    `json:"sub_id_sent"`
	ProductURL    string    `json:"product_url"`
	CreatedAt     time.Time `json:"created_at"`
}
