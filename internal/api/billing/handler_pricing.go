package billing

import (
	"net/http"

	"cryptoscope-api/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type planPricing struct {
	Name          string       `json:"name"`
	USDMonthly    float64      `json:"usd_monthly"`
	USDAnnual     float64      `json:"usd_annual"`
	Limits        plans.Limits `json:"limits"`
	CryptoMonthly interface{}  `json:"crypto_monthly,omitempty"`
	CryptoAnnual  interface{}  `json:"crypto_annual,omitempty"`
}

// GetPricing returns the plan catalog, optionally with live crypto
// estimates when ?currency=BTC|SOL is given. Estimate failures degrade
// to USD-only pricing rather than failing the request.
func (h *Handler) GetPricing(c *gin.Context) {
	currency := c.Query("currency")
	if currency != "" && currency != "BTC" && currency != "SOL" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported currency (use BTC or SOL)"})
		return
	}

	pricing := map[string]planPricing{}
	for _, tier := range plans.Paid() {
		cfg := plans.Get(tier)
		entry := planPricing{
			Name:       cfg.Name,
			USDMonthly: float64(cfg.PriceUSDMonthly) / 100.0,
			USDAnnual:  float64(cfg.PriceUSDAnnual) / 100.0,
			Limits:     cfg.Limits,
		}

		if currency != "" {
			if est, err := h.crypto.EstimatePrice(c.Request.Context(), entry.USDMonthly, currency); err == nil {
				entry.CryptoMonthly = est
			}
			if est, err := h.crypto.EstimatePrice(c.Request.Context(), entry.USDAnnual, currency); err == nil {
				entry.CryptoAnnual = est
			}
		}

		pricing[tier] = entry
	}

	c.JSON(http.StatusOK, gin.H{
		"plans":       pricing,
		"free_limits": plans.FreeLimits,
	})
}
