package billing

import "time"

// Subscription status constants. inactive covers incomplete/unpaid card
// subscriptions that never entitle.
const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusTrialing = "trialing"
	StatusInactive = "inactive"
)

// Payment rail constants.
const (
	MethodStripe = "stripe"
	MethodCrypto = "crypto"
)

// Subscription is the unified entitlement record for both rails. The id
// is the Stripe subscription id on the card rail, or a synthetic
// "crypto_<payment_id>" on the crypto rail. Rows are never hard-deleted;
// the row with the latest period end is authoritative for a user.
type Subscription struct {
	ID            string `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID        uint   `gorm:"not null;index" json:"user_id"`
	Status        string `gorm:"type:varchar(20);not null" json:"status"`
	Plan          string `gorm:"type:varchar(20);not null" json:"plan"`
	PaymentMethod string `gorm:"type:varchar(20);not null;default:'stripe'" json:"payment_method"`

	// Card rail only.
	StripePriceID *string `gorm:"type:varchar(191)" json:"stripe_price_id,omitempty"`
	// Crypto rail only.
	PayCurrency *string `gorm:"type:varchar(10)" json:"pay_currency,omitempty"`

	CurrentPeriodStart time.Time `gorm:"not null" json:"current_period_start"`
	// CurrentPeriodEnd is the authoritative entitlement-expiry instant.
	// Crypto subscriptions have no renewal webhook, so callers must
	// compare this against now at read time; a stored status of active
	// does not by itself mean the access is still live.
	CurrentPeriodEnd  time.Time `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd bool      `gorm:"default:false" json:"cancel_at_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entitles reports whether the subscription grants access at instant now.
func (s *Subscription) Entitles(now time.Time) bool {
	switch s.Status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return now.Before(s.CurrentPeriodEnd)
	default:
		return false
	}
}
