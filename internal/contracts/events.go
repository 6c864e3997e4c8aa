package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	DLQTopic      string        `json:"dlq_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}

type ClickTrackedPayload struct {
	ClickID       string `json:"click_id"`
	VisitorID     string `json:"visitor_id"`
	AmbassadorRef string `json:"ambassador_ref,omitempty"`
	ProgramID     string `json:"program_id"`
	SubIDSent     string `json:"sub_id_sent,omitempty"`
	TrackedAt     string `json:"tracked_at"`
}

type ConversionLifecyclePayload struct {
	ConversionID    string  `json:"conversion_id"`
	ProgramID       string  `json:"program_id"`
	AmbassadorID    string  `json:"ambassador_id,omitempty"`
	OrderRef        string  `json:"order_ref"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	CommissionTotal float64 `json:"commission_total"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason,omitempty"`
	OccurredAt      string  `json:"occurred_at"`
}

type CashbackEntryPayload struct {
	EntryID      string  `json:"entry_id"`
	BuyerID      string  `json:"buyer_id"`
	ConversionID string  `json:"conversion_id,omitempty"`
	EntryType    string  `json:"entry_type"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	PostedAt     string  `json:"posted_at"`
}

type CommissionAlertPayload struct {
	ConversionID    string  `json:"conversion_id"`
	ProgramID       string  `json:"program_id"`
	CommissionTotal float64 `json:"commission_total"`
	AmbassadorShare float64 `json:"ambassador_share"`
	SponsorL1Share  float64 `json:"sponsor_l1_share"`
	SponsorL2Share  float64 `json:"sponsor_l2_share"`
	Detail          string  `json:"detail"`
	RaisedAt        string  `json:"raised_at"`
}

// ReconciliationOrderPayload is the strict input schema for order events
// delivered by the reconciliation subsystem. Unknown or missing required
// fields reject the event; nothing defaults silently.
type ReconciliationOrderPayload struct {
	ProgramID     string  `json:"program_id"`
	OrderRef      string  `json:"order_ref"`
	ConversionID  string  `json:"conversion_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	AmbassadorRef string  `json:"ambassador_ref,omitempty"`
	BuyerID       string  `json:"buyer_id,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}
