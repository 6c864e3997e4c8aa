package domain

const (
	CanonicalEventClassDomain = "domain"
	CanonicalEventClassOps    = "ops"
)

// Emitted events.
const (
	EventClickTracked         = "affiliate.click.tracked"
	EventConversionCreated    = "conversion.created"
	EventConversionConfirmed  = "conversion.confirmed"
	EventConversionPaid       = "conversion.paid"
	EventConversionCancelled  = "conversion.cancelled"
	EventCashbackEarned       = "cashback.earned"
	EventCashbackClawback     = "cashback.clawback"
	EventCommissionConfigFlag = "commission.config_alert"
)

// Input events delivered by the reconciliation subsystem (postback relay,
// CSV importer, scheduled network poll). Each delivery is an independent
// idempotent transition request.
const (
	EventOrderRecorded   = "order.recorded"
	EventOrderSettled    = "order.settled"
	EventOrderRefunded   = "order.refunded"
	EventPayoutCompleted = "payout.completed"
)

func IsCanonicalInputEvent(eventType string) bool {
	switch eventType {
	case EventOrderRecorded, EventOrderSettled, EventOrderRefunded, EventPayoutCompleted:
		return true
	default:
		return false
	}
}

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventClickTracked, EventConversionCreated, EventConversionConfirmed,
		EventConversionPaid, EventConversionCancelled, EventCashbackEarned,
		EventCashbackClawback, EventCommissionConfigFlag:
		return true
	default:
		return false
	}
}

func CanonicalEventClass(eventType string) string {
	if eventType == EventCommissionConfigFlag {
		return CanonicalEventClassOps
	}
	if IsCanonicalEmittedEvent(eventType) {
		return CanonicalEventClassDomain
	}
	return ""
}

func CanonicalPartitionKeyPath(eventType string) string {
	switch eventType {
	case EventClickTracked:
		return "data.program_id"
	case EventCashbackEarned, EventCashbackClawback:
		return "data.buyer_id"
	default:
		if IsCanonicalEmittedEvent(eventType) {
			return "data.conversion_id"
		}
		return ""
	}
}
