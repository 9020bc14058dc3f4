package users

import (
	"time"

	"cryptoscope-api/internal/domain/plans"
)

type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Email    string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Name     string  `json:"name"`
	Password *string `gorm:"" json:"-"`
	Role     string  `json:"role"`

	// Plan is a denormalized cache of the user's entitlement. It is
	// mutated only by the billing reconciler, never by request handlers.
	Plan string `gorm:"type:varchar(20);not null;default:'free'" json:"plan"`

	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectivePlan is the tier limits attach to, defaulting to free for
// anything unrecognized.
func (u *User) EffectivePlan() string {
	if plans.IsPaidTier(u.Plan) {
		return u.Plan
	}
	return plans.TierFree
}
