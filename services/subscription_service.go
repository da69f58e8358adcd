package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"finflow/models"
	"finflow/utils"
)

// SubscriptionService is the single authority for quota decisions and tier
// state. Nothing else reads the tier catalog or writes usage rows.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// ProvisionDefaultSubscription creates a free-tier subscription for the user,
// or returns the existing one unchanged. Safe to call repeatedly.
func (s *SubscriptionService) ProvisionDefaultSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	existing, err := s.GetSubscriptionForUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	subscription := &models.Subscription{
		UserID: userID,
		Tier:   models.TierFree,
	}
	if err := s.db.WithContext(ctx).Create(subscription).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	utils.SubscriptionsActiveTotal.WithLabelValues(subscription.Tier).Inc()

	return subscription, nil
}

func (s *SubscriptionService) GetSubscriptionForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// CheckUsageLimit reports whether the user is still under quota for a
// feature. Read-only: callers record consumption with LogUsage separately,
// and the two are not atomic.
func (s *SubscriptionService) CheckUsageLimit(ctx context.Context, userID uuid.UUID, featureName string) (bool, error) {
	subscription, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return false, err
	}

	limits, ok := models.TierCatalog[subscription.Tier]
	if !ok {
		return false, fmt.Errorf("no catalog entry for tier %q", subscription.Tier)
	}
	limit, ok := limits.LimitFor(featureName)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownFeature, featureName)
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.UsageLog{}).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count < int64(limit), nil
}

// LogUsage unconditionally appends a usage row. It does not check quota;
// callers are responsible for check-then-log ordering.
func (s *SubscriptionService) LogUsage(ctx context.Context, userID uuid.UUID, featureName string) error {
	usage := &models.UsageLog{
		UserID:      userID,
		FeatureName: featureName,
	}
	return s.db.WithContext(ctx).Create(usage).Error
}

// ListUsage returns every usage row for the user, newest first.
func (s *SubscriptionService) ListUsage(ctx context.Context, userID uuid.UUID) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// ApplyTierChange moves the subscription identified by a Stripe customer id
// to the given tier, stamping UpdatedAt with the provider's event time.
// Re-applying the same transition is a no-op in effect, which is the only
// idempotency guard billing replay gets.
func (s *SubscriptionService) ApplyTierChange(ctx context.Context, stripeCustomerID, tier string, eventTime time.Time) error {
	if _, ok := models.TierCatalog[tier]; !ok {
		return fmt.Errorf("no catalog entry for tier %q", tier)
	}

	var subscription models.Subscription
	err := s.db.WithContext(ctx).Where("stripe_customer_id = ?", stripeCustomerID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubscriptionNotFound
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"tier": tier}
	if !eventTime.IsZero() {
		updates["updated_at"] = eventTime
	}
	if err := s.db.WithContext(ctx).Model(&subscription).Updates(updates).Error; err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": subscription.UserID,
		"tier":    tier,
	}).Info("Subscription tier changed")

	return nil
}

// LinkStripeCustomer stores the billing-provider customer id on the user's
// subscription so webhook events can find it.
func (s *SubscriptionService) LinkStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error {
	subscription, err := s.GetSubscriptionForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(subscription).
		Update("stripe_customer_id", stripeCustomerID).Error
}
