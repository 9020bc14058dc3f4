package nowpaymentswebhook

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/infra/nowpayments"

	"github.com/gin-gonic/gin"
)

const maxPayloadBytes = 65536

// Handler receives NOWPayments IPN callbacks. Nothing in the payload is
// acted on before the HMAC signature over the raw body verifies.
type Handler struct {
	crypto *nowpayments.Client
	svc    *svc.Service
}

func NewHandler(crypto *nowpayments.Client, service *svc.Service) *Handler {
	return &Handler{crypto: crypto, svc: service}
}

type ipnPayload struct {
	PaymentID     json.Number `json:"payment_id"`
	InvoiceID     json.Number `json:"invoice_id"`
	OrderID       string      `json:"order_id"`
	PaymentStatus string      `json:"payment_status"`
	PayCurrency   string      `json:"pay_currency"`
	ActuallyPaid  json.Number `json:"actually_paid"`
}

func (h *Handler) HandleIPN(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	signature := c.GetHeader("x-nowpayments-sig")
	if signature == "" {
		log.Println("nowpayments ipn: missing signature header")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
		return
	}
	if !h.crypto.VerifyIPN(payload, signature) {
		log.Println("nowpayments ipn: invalid signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var ipn ipnPayload
	if err := json.Unmarshal(payload, &ipn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payload"})
		return
	}

	invoiceID := ipn.InvoiceID.String()
	if invoiceID == "" {
		// Payments created directly (not via hosted invoice) carry no
		// invoice id; the payment id is the only handle we have.
		invoiceID = ipn.PaymentID.String()
	}

	event := svc.CryptoEvent{
		PaymentID:    ipn.PaymentID.String(),
		InvoiceID:    invoiceID,
		Status:       nowpayments.MapStatus(ipn.PaymentStatus),
		PayCurrency:  ipn.PayCurrency,
		ActuallyPaid: paidAmount(ipn.ActuallyPaid),
	}

	log.Printf("nowpayments ipn: payment=%s invoice=%s status=%s", event.PaymentID, event.InvoiceID, ipn.PaymentStatus)

	if err := h.svc.ApplyCryptoEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, svc.ErrPaymentNotFound) {
			// A local data mismatch that retries cannot fix: log, drop,
			// and acknowledge. A webhook alone never creates a payment.
			log.Printf("nowpayments ipn: unknown invoice %s, dropping", event.InvoiceID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.Printf("nowpayments ipn: failed to apply event for invoice %s: %v", event.InvoiceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func paidAmount(n json.Number) string {
	s := n.String()
	if s == "" || s == "0" {
		return ""
	}
	return s
}
