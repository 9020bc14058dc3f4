package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrPaymentNotFound means an IPN referenced an invoice this system
// never created. Webhook handlers log and acknowledge; a new payment
// row is never fabricated from a webhook alone.
var ErrPaymentNotFound = errors.New("crypto payment not found")

// ActiveSubscriptionError rejects a new crypto purchase while the user
// still holds unexpired access. Carries what the caller needs to render
// "you already have access until X".
type ActiveSubscriptionError struct {
	Plan      string
	ExpiresAt time.Time
}

func (e *ActiveSubscriptionError) Error() string {
	return fmt.Sprintf("active %s subscription until %s", e.Plan, e.ExpiresAt.Format("2006-01-02"))
}
