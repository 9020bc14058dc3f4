package billing

import "time"

// Card-rail event kinds. Adapters translate provider payloads into
// these events so the reconciler never sees a provider SDK type.
const (
	CardEventSubscriptionUpserted = "subscription_upserted"
	CardEventSubscriptionCanceled = "subscription_canceled"
)

// CardEvent is a verified card-rail provider event. For canceled events
// only Kind, SubscriptionID and UserID are meaningful.
type CardEvent struct {
	Kind              string
	SubscriptionID    string
	UserID            uint
	Status            string // internal subscription status vocabulary
	Plan              string
	StripePriceID     string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
}

// CryptoEvent is a verified crypto-rail IPN event, already translated
// into the internal status vocabulary.
type CryptoEvent struct {
	PaymentID    string
	InvoiceID    string
	Status       string
	PayCurrency  string
	ActuallyPaid string // decimal string, empty when not yet known
}
