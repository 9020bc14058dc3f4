package plans

import "fmt"

// Plan tier constants (single source of truth)
const (
	TierFree   = "free"
	TierPro    = "pro"
	TierAgency = "agency"
)

// Billing period constants
const (
	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"
)

// PeriodDays returns the purchased access window for the crypto rail,
// which has no native recurrence.
func PeriodDays(period string) int {
	if period == PeriodAnnual {
		return 365
	}
	return 30
}

// Limits are the feature quotas attached to a tier.
type Limits struct {
	Accounts      int `json:"accounts"`
	HistoryDays   int `json:"history_days"`
	Competitors   int `json:"competitors"`
	MentionAlerts int `json:"mention_alerts"`
}

// PlanConfig describes a paid tier: display name, USD pricing in integer
// cents (annual is a discounted multiple of monthly, not x12) and limits.
type PlanConfig struct {
	Name            string
	PriceUSDMonthly int64
	PriceUSDAnnual  int64
	Limits          Limits
}

// FreeLimits apply to users without an entitling subscription.
var FreeLimits = Limits{
	Accounts:      1,
	HistoryDays:   7,
	Competitors:   0,
	MentionAlerts: 5,
}

var catalog = map[string]PlanConfig{
	TierPro: {
		Name:            "Pro",
		PriceUSDMonthly: 2900,  // $29
		PriceUSDAnnual:  27840, // $278.40/yr, 20% off 12x monthly
		Limits: Limits{
			Accounts:      3,
			HistoryDays:   90,
			Competitors:   5,
			MentionAlerts: 50,
		},
	},
	TierAgency: {
		Name:            "Agency",
		PriceUSDMonthly: 9900,  // $99
		PriceUSDAnnual:  95040, // $950.40/yr, 20% off 12x monthly
		Limits: Limits{
			Accounts:      10,
			HistoryDays:   365,
			Competitors:   20,
			MentionAlerts: 200,
		},
	},
}

// IsPaidTier reports whether tier is a purchasable plan.
func IsPaidTier(tier string) bool {
	_, ok := catalog[tier]
	return ok
}

// Get returns the configuration for a paid tier. Passing the free tier
// or an unknown string is a programming error, not a runtime condition.
func Get(tier string) PlanConfig {
	cfg, ok := catalog[tier]
	if !ok {
		panic(fmt.Sprintf("plans: unknown paid tier %q", tier))
	}
	return cfg
}

// PriceUSD returns the USD price in cents for (tier, period).
func PriceUSD(tier, period string) int64 {
	cfg := Get(tier)
	if period == PeriodAnnual {
		return cfg.PriceUSDAnnual
	}
	return cfg.PriceUSDMonthly
}

// LimitsFor returns the quotas for any tier, including free.
func LimitsFor(tier string) Limits {
	if cfg, ok := catalog[tier]; ok {
		return cfg.Limits
	}
	return FreeLimits
}

// Paid lists the purchasable tiers in ascending price order.
func Paid() []string {
	return []string{TierPro, TierAgency}
}
