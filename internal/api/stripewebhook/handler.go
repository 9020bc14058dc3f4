package stripewebhook

import (
	"errors"
	"io"
	"log"
	"net/http"

	svc "cryptoscope-api/internal/billing"
	"cryptoscope-api/internal/infra/stripepay"

	"github.com/gin-gonic/gin"
)

const maxPayloadBytes = 65536

// Handler receives Stripe's signed events. The raw body must survive
// untouched up to signature verification: the signature covers the
// literal payload, so any parse/re-serialize cycle breaks it.
type Handler struct {
	stripe *stripepay.Adapter
	svc    *svc.Service
}

func NewHandler(stripe *stripepay.Adapter, service *svc.Service) *Handler {
	return &Handler{stripe: stripe, svc: service}
}

func (h *Handler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := h.stripe.VerifyAndParse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripepay.ErrInvalidSignature) {
			log.Println("stripe webhook: signature verification failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Signature verification failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
		return
	}
	if event == nil {
		// Unhandled event kind; acknowledge to avoid retries.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.svc.ApplyCardEvent(c.Request.Context(), *event); err != nil {
		// Non-2xx makes Stripe retry, which is what we want for
		// transient store failures.
		log.Printf("stripe webhook: failed to apply %s for %s: %v", event.Kind, event.SubscriptionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
