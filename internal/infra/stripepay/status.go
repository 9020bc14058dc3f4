package stripepay

import (
	domain "cryptoscope-api/internal/domain/billing"
)

// NormalizeStatus maps Stripe's subscription status vocabulary onto the
// internal five-state enum. incomplete/unpaid card subscriptions never
// entitle, so everything unrecognized lands on inactive.
func NormalizeStatus(s string) string {
	switch s {
	case "active":
		return domain.StatusActive
	case "trialing":
		return domain.StatusTrialing
	case "past_due", "unpaid":
		return domain.StatusPastDue
	case "canceled":
		return domain.StatusCanceled
	case "incomplete", "incomplete_expired", "paused":
		return domain.StatusInactive
	default:
		return domain.StatusInactive
	}
}
