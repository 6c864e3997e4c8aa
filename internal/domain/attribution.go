package domain

import "time"

const (
	// AttributionWindow is how long a last-click attribution stays valid,
	// measured from the most recent ref click.
	AttributionWindow = 90 * 24 * time.Hour
	// VisitorIDTTL is the lifetime of the anonymous visitor identifier.
	// It runs on its own clock, independent of attribution overwrites.
	VisitorIDTTL = 365 * 24 * time.Hour
)

// AttributionRecord is the current last-click attribution for a visitor.
// Overwritten on every new ref click; logically absent once expired.
type AttributionRecord struct {
	VisitorID     string    `json:"visitor_id"`
	AmbassadorRef string    `json:"ambassador_ref"`
	SetAt         time.Time `json:"set_at"`
}

func (r AttributionRecord) ExpiresAt() time.Time { return r.SetAt.Add(AttributionWindow) }

func (r AttributionRecord) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt()) }
