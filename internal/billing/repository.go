package billing

import (
	"errors"
	"time"

	domain "cryptoscope-api/internal/domain/billing"
	"cryptoscope-api/internal/domain/plans"
	"cryptoscope-api/internal/domain/users"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the reconciler. Every
// write racing a concurrent webhook delivery is a single atomic
// statement with conflict resolution on the primary key; there is no
// read-then-write upsert anywhere.
type Repository interface {
	UpsertCardSubscription(sub *domain.Subscription) error
	CancelSubscription(id string, userID uint) (*domain.Subscription, error)
	InsertSubscriptionIfAbsent(sub *domain.Subscription) (bool, *domain.Subscription, error)
	LatestSubscriptionByUser(userID uint) (*domain.Subscription, error)

	CreateCryptoPayment(p *domain.CryptoPayment) error
	GetCryptoPaymentByInvoiceID(invoiceID string) (*domain.CryptoPayment, error)
	UpdateCryptoPayment(invoiceID string, updates map[string]interface{}) error
	ListCryptoPaymentsByUser(userID uint) ([]domain.CryptoPayment, error)

	SetUserPlan(userID uint, plan string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconciler repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

var cardMutableColumns = []string{
	"user_id",
	"status",
	"plan",
	"stripe_price_id",
	"current_period_start",
	"current_period_end",
	"cancel_at_period_end",
	"updated_at",
}

// UpsertCardSubscription inserts or overwrites the row keyed by the
// provider subscription id. A row already marked canceled is never
// resurrected: cancellation is authoritative regardless of webhook
// delivery order, so the conflict update carries a status guard.
func (r *gormRepository) UpsertCardSubscription(sub *domain.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cardMutableColumns),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "subscriptions", Name: "status"}, Value: domain.StatusCanceled},
		}},
	}).Create(sub).Error; err != nil {
		return err
	}

	// Read back so callers see the row as stored, which may differ from
	// the event when the cancellation guard suppressed the update.
	return r.db.Where("id = ?", sub.ID).First(sub).Error
}

// CancelSubscription force-marks a subscription canceled. If no row
// exists yet (cancellation delivered before the create/update event), a
// canceled tombstone is inserted so a late upsert cannot revive it.
func (r *gormRepository) CancelSubscription(id string, userID uint) (*domain.Subscription, error) {
	sub := &domain.Subscription{
		ID:                id,
		UserID:            userID,
		Status:            domain.StatusCanceled,
		Plan:              plans.TierFree,
		PaymentMethod:     domain.MethodStripe,
		CancelAtPeriodEnd: true,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return nil, err
	}

	if err := r.db.Where("id = ?", id).First(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// InsertSubscriptionIfAbsent inserts and reports whether the row was
// created. On conflict it is a no-op, which is what keeps a duplicate
// crypto confirmation from moving the period bounds.
func (r *gormRepository) InsertSubscriptionIfAbsent(sub *domain.Subscription) (bool, *domain.Subscription, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored domain.Subscription
	if err := r.db.Where("id = ?", sub.ID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) LatestSubscriptionByUser(userID uint) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.
		Where("user_id = ?", userID).
		Order("current_period_end DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateCryptoPayment(p *domain.CryptoPayment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) GetCryptoPaymentByInvoiceID(invoiceID string) (*domain.CryptoPayment, error) {
	var p domain.CryptoPayment
	err := r.db.Where("invoice_id = ?", invoiceID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) UpdateCryptoPayment(invoiceID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&domain.CryptoPayment{}).
		Where("invoice_id = ?", invoiceID).
		Updates(updates).Error
}

func (r *gormRepository) ListCryptoPaymentsByUser(userID uint) ([]domain.CryptoPayment, error) {
	var payments []domain.CryptoPayment
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *gormRepository) SetUserPlan(userID uint, plan string) error {
	return r.db.Model(&users.User{}).
		Where("id = ?", userID).
		Update("plan", plan).Error
}
