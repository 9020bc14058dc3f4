package billing

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/infra/nowpayments"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cryptoInvoiceRequest struct {
	Plan          string `json:"plan" binding:"required"`
	BillingPeriod string `json:"billing_period"`
	Currency      string `json:"currency" binding:"required"`
	ReturnURL     string `json:"return_url"`
	CancelURL     string `json:"cancel_url"`
}

// CreateCryptoInvoice starts a crypto-rail purchase: a fixed-rate
// hosted invoice for a 30 or 365 day access window, paid in BTC or SOL.
// The pending CryptoPayment row is inserted before this handler returns
// so an IPN arriving immediately still finds a row to update.
func (h *Handler) CreateCryptoInvoice(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var body cryptoInvoiceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid request body"})
		return
	}
	if !plans.IsPaidTier(body.Plan) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}
	ticker := nowpayments.Ticker(body.Currency)
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported currency (use bitcoin or solana)"})
		return
	}
	period := normalizePeriod(body.BillingPeriod)

	// Overlapping access would be paid twice; reject while an unexpired
	// entitling subscription exists.
	if err := h.svc.CheckNoActiveSubscription(c.Request.Context(), userID); err != nil {
		var active *svc.ActiveSubscriptionError
		if errors.As(err, &active) {
			c.JSON(http.StatusConflict, gin.H{
				"error":      "You already have an active subscription",
				"plan":       active.Plan,
				"expires_at": active.ExpiresAt,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription"})
		return
	}

	priceUSD := plans.PriceUSD(body.Plan, period)
	returnURL := body.ReturnURL
	if returnURL == "" {
		returnURL = h.cfg.AppURL + "/dashboard/billing?success=true&method=crypto"
	}
	cancelURL := body.CancelURL
	if cancelURL == "" {
		cancelURL = h.cfg.AppURL + "/dashboard/billing?canceled=true"
	}

	// The order id encodes enough to reconstruct intent if the local
	// row were ever lost.
	orderID := fmt.Sprintf("%d_%s_%s_%d", userID, body.Plan, period, time.Now().Unix())

	invoice, err := h.crypto.CreateInvoice(c.Request.Context(), nowpayments.InvoiceRequest{
		OrderID:     orderID,
		Description: fmt.Sprintf("CryptoScope %s (%s)", plans.Get(body.Plan).Name, periodLabel(period)),
		PriceUSD:    priceUSD,
		PayCurrency: ticker,
		SuccessURL:  returnURL,
		CancelURL:   cancelURL,
		IPNURL:      h.cfg.AppURL + "/webhook/nowpayments",
	})
	if err != nil {
		// No partial local state: the pending row is only written after
		// the provider confirms invoice creation.
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create crypto invoice", "details": err.Error()})
		return
	}

	paymentRowID := invoice.InvoiceID
	if paymentRowID == "" {
		paymentRowID = uuid.NewString()
	}

	now := time.Now()
	pending := &billing.CryptoPayment{
		ID:            paymentRowID,
		UserID:        userID,
		InvoiceID:     invoice.InvoiceID,
		Plan:          body.Plan,
		BillingPeriod: period,
		Currency:      ticker,
		PriceUSD:      priceUSD,
		Status:        billing.CryptoStatusPending,
		PeriodStart:   now,
		PeriodEnd:     now.AddDate(0, 0, plans.PeriodDays(period)),
	}
	if err := h.svc.RecordPendingPayment(c.Request.Context(), pending); err != nil {
		log.Printf("billing: failed to record pending crypto payment invoice=%s: %v", invoice.InvoiceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record pending payment"})
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// GetCryptoPaymentStatus polls a pending payment by invoice id, scoped
// to the owning user.
func (h *Handler) GetCryptoPaymentStatus(c *gin.Context) {
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

	invoiceID := c.Param("invoiceID")
	for i := range payments {
		p := &payments[i]
		if p.InvoiceID == invoiceID {
			c.JSON(http.StatusOK, gin.H{
				"status":        p.Status,
				"plan":          p.Plan,
				"currency":      p.Currency,
				"crypto_amount": p.CryptoAmount,
				"period_end":    p.PeriodEnd,
				"confirmed_at":  p.ConfirmedAt,
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
}

func periodLabel(period string) string {
	if period == plans.PeriodAnnual {
		return "Annual"
	}
	return "Monthly"
}
