package stripepay

import "cryptoscope-api/internal/domain/plans"

// PriceIDFor resolves the configured Stripe price reference for a
// (plan, billing period) pair. Empty when not configured.
func (a *Adapter) PriceIDFor(plan, period string) string {
	p := a.cfg.StripePrices
	switch {
	case plan == plans.TierPro && period == plans.PeriodMonthly:
		return p.ProMonthly
	case plan == plans.TierPro && period == plans.PeriodAnnual:
		return p.ProAnnual
	case plan == plans.TierAgency && period == plans.PeriodMonthly:
		return p.AgencyMonthly
	case plan == plans.TierAgency && period == plans.PeriodAnnual:
		return p.AgencyAnnual
	}
	return ""
}

// PlanFromPriceID is the reverse lookup used on webhooks. Unrecognized
// price ids resolve to the free tier rather than erroring, so a renamed
// or future price never fatal-fails event processing.
func (a *Adapter) PlanFromPriceID(priceID string) string {
	p := a.cfg.StripePrices
	switch priceID {
	case "":
		return plans.TierFree
	case p.ProMonthly, p.ProAnnual:
		return plans.TierPro
	case p.AgencyMonthly, p.AgencyAnnual:
		return plans.TierAgency
	default:
		return plans.TierFree
	}
}
