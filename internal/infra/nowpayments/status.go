package nowpayments

import (
	domain "cryptoscope-api/internal/domain/billing"
)

// MapStatus translates the provider's payment status vocabulary into
// the internal enum. The provider uses transitional synonyms: "sending"
// means the same as confirming here, and "partially_paid" is treated as
// still waiting. Unknown strings default to pending; a new provider
// status must never fail event processing or grant entitlement.
func MapStatus(providerStatus string) string {
	switch providerStatus {
	case "waiting":
		return domain.CryptoStatusWaiting
	case "confirming", "sending":
		return domain.CryptoStatusConfirming
	case "confirmed":
		return domain.CryptoStatusConfirmed
	case "partially_paid":
		return domain.CryptoStatusWaiting
	case "finished":
		return domain.CryptoStatusFinished
	case "failed":
		return domain.CryptoStatusFailed
	case "refunded":
		return domain.CryptoStatusRefunded
	case "expired":
		return domain.CryptoStatusExpired
	default:
		return domain.CryptoStatusPending
	}
}
