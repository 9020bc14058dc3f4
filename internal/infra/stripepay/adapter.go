package stripepay

import (
	"fmt"

	"cryptoscope-api/config"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Adapter wraps the Stripe API for the card rail. All credentials come
// from the injected config; nothing here reads the environment.
type Adapter struct {
	cfg *config.Config
	sc  *client.API
}

func New(cfg *config.Config) *Adapter {
	sc := &client.API{}
	sc.Init(cfg.StripeSecretKey, nil)
	return &Adapter{cfg: cfg, sc: sc}
}

// EnsureCustomer returns the Stripe customer id for a user, creating
// one when no stored reference exists. The returned bool reports
// whether a new customer was created and must be persisted.
func (a *Adapter) EnsureCustomer(userID uint, email string, existingID *string) (string, bool, error) {
	if existingID != nil && *existingID != "" {
		return *existingID, false, nil
	}

	cus, err := a.sc.Customers.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": fmt.Sprint(userID),
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to create Stripe customer: %w", err)
	}
	return cus.ID, true, nil
}

// CreateCheckout requests a hosted checkout session in subscription
// mode and returns its redirect URL. No local subscription state is
// written here; entitlement is only ever established by the webhook,
// so a forged success redirect grants nothing.
func (a *Adapter) CreateCheckout(userID uint, customerID, plan, billingPeriod, returnURL string) (string, error) {
	priceID := a.PriceIDFor(plan, billingPeriod)
	if priceID == "" {
		return "", fmt.Errorf("no Stripe price configured for plan=%s period=%s", plan, billingPeriod)
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(returnURL + "?success=true&method=stripe"),
		CancelURL:  stripe.String(returnURL + "?canceled=true"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID:   stripe.String(fmt.Sprint(userID)),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": fmt.Sprint(userID),
				"plan":    plan,
			},
		},
	}

	s, err := a.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return s.URL, nil
}

// CreateBillingPortal returns a hosted portal URL where the user can
// manage or cancel the card subscription.
func (a *Adapter) CreateBillingPortal(customerID, returnURL string) (string, error) {
	portal, err := a.sc.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return portal.URL, nil
}
