package plans

import "testing"

func TestPriceUSD(t *testing.T) {
	tests := []struct {
		tier   string
		period string
		want   int64
	}{
		{TierPro, PeriodMonthly, 2900},
		{TierPro, PeriodAnnual, 27840},
		{TierAgency, PeriodMonthly, 9900},
		{TierAgency, PeriodAnnual, 95040},
	}

	for _, tt := range tests {
		if got := PriceUSD(tt.tier, tt.period); got != tt.want {
			t.Fatalf("PriceUSD(%q, %q) = %d, want %d", tt.tier, tt.period, got, tt.want)
		}
	}
}

func TestAnnualIsDiscounted(t *testing.T) {
	for _, tier := range Paid() {
		cfg := Get(tier)
		if cfg.PriceUSDAnnual >= cfg.PriceUSDMonthly*12 {
			t.Fatalf("expected %s annual price to be below 12x monthly", tier)
		}
	}
}

func TestGetPanicsOnUnknownTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown tier")
		}
	}()
	Get("enterprise")
}

func TestGetPanicsOnFreeTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for free tier lookup")
		}
	}()
	Get(TierFree)
}

func TestLimitsFor(t *testing.T) {
	if got := LimitsFor(TierPro).Competitors; got != 5 {
		t.Fatalf("pro competitors = %d, want 5", got)
	}
	if got := LimitsFor(TierFree); got != FreeLimits {
		t.Fatalf("free limits = %+v, want %+v", got, FreeLimits)
	}
	if got := LimitsFor("whatever"); got != FreeLimits {
		t.Fatalf("unknown tier limits = %+v, want free limits", got)
	}
}

func TestPeriodDays(t *testing.T) {
	if got := PeriodDays(PeriodMonthly); got != 30 {
		t.Fatalf("monthly = %d days, want 30", got)
	}
	if got := PeriodDays(PeriodAnnual); got != 365 {
		t.Fatalf("annual = %d days, want 365", got)
	}
	if got := PeriodDays(""); got != 30 {
		t.Fatalf("default = %d days, want 30", got)
	}
}

func TestIsPaidTier(t *testing.T) {
	if !IsPaidTier(TierPro) || !IsPaidTier(TierAgency) {
		t.Fatalf("expected pro and agency to be paid tiers")
	}
	if IsPaidTier(TierFree) || IsPaidTier("vip") {
		t.Fatalf("expected free/unknown tiers to not be paid")
	}
}
