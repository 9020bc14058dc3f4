package stripepay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cryptoscope-api/internal/billing"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// ErrInvalidSignature rejects a webhook whose signature does not match
// the raw payload bytes.
var ErrInvalidSignature = errors.New("stripe webhook signature verification failed")

// VerifyAndParse verifies the provider signature over the exact raw
// request bytes (any re-serialization before this call invalidates the
// signature) and maps the relevant event kinds to internal domain
// events. A nil event with a nil error means the kind is not one we
// consume; callers acknowledge it to stop provider retries.
func (a *Adapter) VerifyAndParse(payload []byte, signatureHeader string) (*billing.CardEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		a.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		sub, err := parseSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		return a.subscriptionUpserted(sub)

	case "customer.subscription.deleted":
		sub, err := parseSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		return &billing.CardEvent{
			Kind:           billing.CardEventSubscriptionCanceled,
			SubscriptionID: sub.ID,
			UserID:         userIDFromMetadata(sub.Metadata),
		}, nil

	default:
		// Forward compatibility: accept and ignore event kinds the
		// system does not yet handle.
		return nil, nil
	}
}

func (a *Adapter) subscriptionUpserted(sub *stripe.Subscription) (*billing.CardEvent, error) {
	if sub.ID == "" {
		return nil, fmt.Errorf("subscription event missing id")
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	return &billing.CardEvent{
		Kind:              billing.CardEventSubscriptionUpserted,
		SubscriptionID:    sub.ID,
		UserID:            userIDFromMetadata(sub.Metadata),
		Status:            NormalizeStatus(string(sub.Status)),
		Plan:              a.PlanFromPriceID(priceID),
		StripePriceID:     priceID,
		PeriodStart:       time.Unix(sub.CurrentPeriodStart, 0),
		PeriodEnd:         time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

func parseSubscription(raw json.RawMessage) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription payload: %w", err)
	}
	return &sub, nil
}

func userIDFromMetadata(md map[string]string) uint {
	if md == nil {
		return 0
	}
	s := md["user_id"]
	if s == "" {
		return 0
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(uid)
}
