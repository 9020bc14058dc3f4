package billing

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/plans"

	"gorm.io/gorm"
)

// Service is the subscription reconciler. It is the only component that
// mutates Subscription, CryptoPayment and the denormalized User.plan.
// Both rails feed it verified domain events; it is correct under
// arbitrary reordering and duplication of webhook deliveries.
type Service struct {
	repo Repository
}

// NewService creates a reconciler from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a reconciler from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ApplyCardEvent reconciles a verified card-rail event into the unified
// subscription state.
//
// Upserts are keyed by the provider subscription id and safe against
// repeated delivery of the same event. For two different events on the
// same id, last-write-wins on the period end relies on Stripe keeping
// current_period_end monotonic per subscription; the period only ever
// advances.
func (s *Service) ApplyCardEvent(ctx context.Context, ev CardEvent) error {
	_ = ctx

	switch ev.Kind {
	case CardEventSubscriptionCanceled:
		return s.applyCardCancellation(ev)
	case CardEventSubscriptionUpserted:
		return s.applyCardUpsert(ev)
	default:
		// Unknown kinds are a safe no-op; providers grow their event
		// vocabulary independently of our releases.
		log.Printf("billing: ignoring unknown card event kind %q", ev.Kind)
		return nil
	}
}

func (s *Service) applyCardUpsert(ev CardEvent) error {
	if ev.SubscriptionID == "" || ev.UserID == 0 {
		return fmt.Errorf("card event missing subscription id or user id")
	}

	sub := &domain.Subscription{
		ID:                 ev.SubscriptionID,
		UserID:             ev.UserID,
		Status:             ev.Status,
		Plan:               ev.Plan,
		PaymentMethod:      domain.MethodStripe,
		CurrentPeriodStart: ev.PeriodStart,
		CurrentPeriodEnd:   ev.PeriodEnd,
		CancelAtPeriodEnd:  ev.CancelAtPeriodEnd,
	}
	if ev.StripePriceID != "" {
		priceID := ev.StripePriceID
		sub.StripePriceID = &priceID
	}

	if err := s.repo.UpsertCardSubscription(sub); err != nil {
		return fmt.Errorf("failed to upsert card subscription: %w", err)
	}

	// Derive the cached plan from the row as stored, not from the event:
	// if a cancellation already landed for this id the upsert was
	// suppressed and the user stays on free.
	return s.repo.SetUserPlan(ev.UserID, entitledPlan(sub))
}

func (s *Service) applyCardCancellation(ev CardEvent) error {
	if ev.SubscriptionID == "" {
		return fmt.Errorf("cancellation event missing subscription id")
	}

	sub, err := s.repo.CancelSubscription(ev.SubscriptionID, ev.UserID)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription %s: %w", ev.SubscriptionID, err)
	}

	userID := ev.UserID
	if userID == 0 {
		userID = sub.UserID
	}
	if userID == 0 {
		log.Printf("billing: cancellation for %s has no resolvable user, dropping downgrade", ev.SubscriptionID)
		return nil
	}
	return s.repo.SetUserPlan(userID, plans.TierFree)
}

// ApplyCryptoEvent reconciles a verified IPN event. The payment row is
// located by invoice id, since the provider payment id may not have
// existed at invoice-creation time. An unknown invoice id returns
// ErrPaymentNotFound; a webhook alone never creates entitlement.
//
// Confirmed and finished are equivalent success signals and the
// provider may send either, or both, for one payment. The subscription
// insert no-ops on conflict, so a retried confirmation cannot extend
// the access window established by the first one.
func (s *Service) ApplyCryptoEvent(ctx context.Context, ev CryptoEvent) error {
	_ = ctx

	payment, err := s.repo.GetCryptoPaymentByInvoiceID(ev.InvoiceID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status": ev.Status,
	}
	if ev.PaymentID != "" {
		updates["payment_id"] = ev.PaymentID
	}
	if ev.ActuallyPaid != "" {
		updates["crypto_amount"] = ev.ActuallyPaid
	}

	if !domain.CryptoStatusSucceeded(ev.Status) {
		return s.repo.UpdateCryptoPayment(ev.InvoiceID, updates)
	}

	paymentID := ev.PaymentID
	if paymentID == "" {
		paymentID = payment.InvoiceID
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 0, plans.PeriodDays(payment.BillingPeriod))
	payCurrency := payment.Currency

	sub := &domain.Subscription{
		ID:            domain.SubscriptionID(paymentID),
		UserID:        payment.UserID,
		Status:        domain.StatusActive,
		Plan:          payment.Plan,
		PaymentMethod: domain.MethodCrypto,
		PayCurrency:   &payCurrency,
		// Crypto never auto-renews; "cancel at period end" really means
		// this access has a hard expiry.
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
		CancelAtPeriodEnd:  true,
	}

	created, stored, err := s.repo.InsertSubscriptionIfAbsent(sub)
	if err != nil {
		return fmt.Errorf("failed to activate crypto subscription: %w", err)
	}

	if created {
		updates["period_start"] = stored.CurrentPeriodStart
		updates["period_end"] = stored.CurrentPeriodEnd
		updates["confirmed_at"] = now
	}
	if err := s.repo.UpdateCryptoPayment(ev.InvoiceID, updates); err != nil {
		return fmt.Errorf("failed to update crypto payment: %w", err)
	}

	return s.repo.SetUserPlan(payment.UserID, payment.Plan)
}

// RecordPendingPayment persists the local record for a freshly created
// provider invoice. Callers must invoke this before returning the
// invoice to the client so an early IPN always finds a row to update.
func (s *Service) RecordPendingPayment(ctx context.Context, p *domain.CryptoPayment) error {
	_ = ctx
	if p.ID == "" || p.InvoiceID == "" || p.UserID == 0 {
		return fmt.Errorf("pending payment requires id, invoice id and user id")
	}
	if p.Status == "" {
		p.Status = domain.CryptoStatusPending
	}
	return s.repo.CreateCryptoPayment(p)
}

// GetSubscription returns the authoritative subscription for a user:
// the row with the latest period end, or nil. Callers deciding
// entitlement must still compare the period end against now, since
// crypto subscriptions expire in effect without any status transition.
func (s *Service) GetSubscription(ctx context.Context, userID uint) (*domain.Subscription, error) {
	_ = ctx
	return s.repo.LatestSubscriptionByUser(userID)
}

// GetPaymentHistory returns the user's crypto payments newest first.
// This is an audit trail, never an entitlement source.
func (s *Service) GetPaymentHistory(ctx context.Context, userID uint) ([]domain.CryptoPayment, error) {
	_ = ctx
	return s.repo.ListCryptoPaymentsByUser(userID)
}

// CheckNoActiveSubscription guards a new crypto purchase against
// overlapping access. Returns an *ActiveSubscriptionError when the user
// holds an unexpired entitling subscription.
func (s *Service) CheckNoActiveSubscription(ctx context.Context, userID uint) error {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if sub != nil && sub.Entitles(time.Now()) {
		return &ActiveSubscriptionError{Plan: sub.Plan, ExpiresAt: sub.CurrentPeriodEnd}
	}
	return nil
}

func entitledPlan(sub *domain.Subscription) string {
	switch sub.Status {
	case domain.StatusActive, domain.StatusTrialing, domain.StatusPastDue:
		return sub.Plan
	default:
		return plans.TierFree
	}
}
