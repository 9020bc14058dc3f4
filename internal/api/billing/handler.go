package billing

import (
	"net/http"

	"cryptoscope-api/config"
	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/infra/nowpayments"
	"cryptoscope-api/internal/infra/stripepay"

	"github.com/gin-gonic/gin"
)

// Handler fronts the reconciler and both gateway adapters for
// authenticated callers. Every operation takes the caller identity from
// the verified JWT claims set by the auth middleware, never from
// ambient state.
type Handler struct {
	cfg    *config.Config
	svc    *svc.Service
	stripe *stripepay.Adapter
	crypto *nowpayments.Client
}

func NewHandler(cfg *config.Config, service *svc.Service, stripe *stripepay.Adapter, crypto *nowpayments.Client) *Handler {
	return &Handler{cfg: cfg, svc: service, stripe: stripe, crypto: crypto}
}

// GetSubscription returns the subscription row with the latest period
// end for the caller, or null. Pure read; expiry is the caller's
// concern (a crypto subscription can be active in storage yet already
// expired in effect).
func (h *Handler) GetSubscription(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	sub, err := h.svc.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// GetPaymentHistory returns the caller's crypto payments newest first.
// This is an audit trail surfaced to the user, not an entitlement source.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	payments, err := h.svc.GetPaymentHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}
