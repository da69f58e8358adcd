package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription records the current tier for a user, one row per user.
// Tier is only ever mutated by provisioning and the billing event worker,
// never by the user directly.
type Subscription struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Tier             string    `gorm:"not null" json:"tier"`
	StripeCustomerID *string   `gorm:"index" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UsageLog is an immutable fact: one row per successful metered feature
// invocation. Quota consumption is exactly the count of matching rows.
type UsageLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_usage_user_feature" json:"user_id"`
	FeatureName string    `gorm:"not null;index:idx_usage_user_feature" json:"feature_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *UsageLog) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
