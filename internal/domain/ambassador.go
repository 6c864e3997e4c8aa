package domain

import "time"

const (
	AmbassadorStatusActive    = "active"
	AmbassadorStatusSuspended = "suspended"
)

const (
	TierBeginner  = "beginner"
	TierActive    = "active"
	TierPerformer = "performer"
	TierExpert    = "expert"
	TierElite     = "elite"
)

type Ambassador struct {
	AmbassadorID      string    `json:"ambassador_id"`
	Ref               string    `json:"ref"`
	Status            string    `json:"status"`
	SponsorID         string    `json:"sponsor_id"`
	Tier              string    `json:"tier"`
	ValidatedSales30d int       `json:"validated_sales_30d"`
	JoinedAt          time.Time `json:"joined_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SponsorChain is the ambassador's sponsor lineage resolved once per
// computation, capped at two hops regardless of stored depth.
type SponsorChain struct {
	Level1ID string
	Level2ID string
}

type Tier struct {
	Name string
	Rate float64
}

var tierTable = []struct {
	minSales int
	tier     Tier
}{
	{150, Tier{Name: TierElite, Rate: 0.30}},
	{75, Tier{Name: TierExpert, Rate: 0.285}},
	{30, Tier{Name: TierPerformer, Rate: 0.27}},
	{10, Tier{Name: TierActive, Rate: 0.26}},
	{0, Tier{Name: TierBeginner, Rate: 0.25}},
}

// TierFor maps a trailing 30-day validated sale count to a commission
// tier. Boundaries are inclusive on the lower bound of each tier.
func TierFor(validatedSales30d int) Tier {
	for _, row := range tierTable {
		if validatedSales30d >= row.minSales {
			return row.tier
		}
	}
	return tierTable[len(tierTable)-1].tier
}
