package domain

import "time"

const (
	ConversionStatusPending   = "pending"
	ConversionStatusConfirmed = "confirmed"
	ConversionStatusPaid      = "paid"
	ConversionStatusCancelled = "cancelled"
)

// Conversion is one purchase event referred through the platform. It is
// owned exclusively by the conversion state machine after creation.
type Conversion struct {
	ConversionID    string     `json:"conversion_id"`
	ProgramID       string     `json:"program_id"`
	AmbassadorID    string     `json:"ambassador_id"`
	BuyerID         string     `json:"buyer_id"`
	OrderRef        string     `json:"order_ref"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	CommissionTotal float64    `json:"commission_total"`
	AmbassadorShare float64    `json:"ambassador_share"`
	SponsorL1Share  float64    `json:"sponsor_l1_share"`
	SponsorL2Share  float64    `json:"sponsor_l2_share"`
	BuyerShare      float64    `json:"buyer_share"`
	PlatformShare   float64    `json:"platform_share"`
	Tier            string     `json:"tier"`
	Status          string     `json:"status"`
	NeedsReview     bool       `json:"needs_review"`
	CancelReason    string     `json:"cancel_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at"`
	PaidAt          *time.Time `json:"paid_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (c Conversion) Terminal() bool {
	return c.Status == ConversionStatusPaid || c.Status == ConversionStatusCancelled
}

// CanTransition is the single source of truth for lifecycle legality.
// Terminal states permit no outgoing transition.
func CanTransition(from, to string) bool {
	switch from {
	case ConversionStatusPending:
		return to == ConversionStatusConfirmed || to == ConversionStatusCancelled
	case ConversionStatusConfirmed:
		return to == ConversionStatusPaid || to == ConversionStatusCancelled
	default:
		return false
	}
}
