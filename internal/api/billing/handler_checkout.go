package billing

import (
	"net/http"

	"cryptoscope-api/database"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Plan          string `json:"plan" binding:"required"`
	BillingPeriod string `json:"billing_period"`
	ReturnURL     string `json:"return_url"`
}

// CreateCheckoutSession starts a card-rail purchase: resolves or
// creates the Stripe customer for the user, then requests a hosted
// checkout session in subscription mode. No subscription state is
// written here; the webhook establishes it.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan"})
		return
	}
	if !plans.IsPaidTier(body.Plan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}
	period := normalizePeriod(body.BillingPeriod)
	returnURL := body.ReturnURL
	if returnURL == "" {
		returnURL = h.cfg.AppURL + "/dashboard/billing"
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	customerID, created, err := h.stripe.EnsureCustomer(user.ID, user.Email, user.StripeCustomerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
		return
	}
	if created {
		if err := database.DB.Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", customerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
			return
		}
	}

	url, err := h.stripe.CreateCheckout(user.ID, customerID, body.Plan, period, returnURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreateBillingPortal returns a hosted portal for managing the card
// subscription.
func (h *Handler) CreateBillingPortal(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var user users.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	url, err := h.stripe.CreateBillingPortal(*user.StripeCustomerID, h.cfg.AppURL+"/dashboard/billing")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func normalizePeriod(period string) string {
	if period == plans.PeriodAnnual {
		return plans.PeriodAnnual
	}
	return plans.PeriodMonthly
}
