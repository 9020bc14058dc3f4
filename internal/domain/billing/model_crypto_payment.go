package billing

import "time"

// CryptoPayment status constants. confirmed and finished are both
// "payment successful" signals; the provider may send either or both.
const (
	CryptoStatusPending    = "pending"
	CryptoStatusWaiting    = "waiting"
	CryptoStatusConfirming = "confirming"
	CryptoStatusConfirmed  = "confirmed"
	CryptoStatusFinished   = "finished"
	CryptoStatusFailed     = "failed"
	CryptoStatusExpired    = "expired"
	CryptoStatusRefunded   = "refunded"
)

// CryptoPayment is a one-time NOWPayments invoice/payment. Rows are
// created with status pending when the invoice is requested and mutated
// only by verified IPN webhooks; they are never deleted. A row stuck at
// pending (abandoned invoice) is acceptable; it never grants access.
type CryptoPayment struct {
	ID     string `gorm:"primaryKey;type:varchar(191)" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`

	InvoiceID string `gorm:"type:varchar(191);uniqueIndex:idx_crypto_payments_invoice" json:"invoice_id"`
	// PaymentID is assigned by the provider once a payment attempt
	// exists, which may be later than invoice creation.
	PaymentID *string `gorm:"type:varchar(191)" json:"payment_id,omitempty"`

	Plan          string `gorm:"type:varchar(20);not null" json:"plan"`
	BillingPeriod string `gorm:"type:varchar(20);not null" json:"billing_period"`
	Currency      string `gorm:"type:varchar(10);not null" json:"currency"`
	// PriceUSD is fixed in integer cents at invoice-creation time.
	PriceUSD int64 `gorm:"not null" json:"price_usd"`
	// CryptoAmount is the actually-paid amount, filled in once known.
	CryptoAmount *string `gorm:"type:varchar(50)" json:"crypto_amount,omitempty"`

	Status string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	PeriodStart time.Time  `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time  `gorm:"not null" json:"period_end"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Succeeded reports whether status is a payment-successful signal.
func CryptoStatusSucceeded(status string) bool {
	return status == CryptoStatusConfirmed || status == CryptoStatusFinished
}

// SubscriptionID derives the synthetic Subscription id for a confirmed
// payment. It is stable per payment id so duplicate confirmations hit
// the same row.
func SubscriptionID(paymentID string) string {
	return "crypto_" + paymentID
}
