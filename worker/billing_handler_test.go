package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"finflow/models"
	"finflow/queue"
	"finflow/services"
)

func setupBillingTest(t *testing.T) (*gorm.DB, *services.SubscriptionService, *models.User) {
	t.Helper()

	db := newTestDB(t)
	svc := services.NewSubscriptionService(db)

	user := &models.User{Email: "alice@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	ctx := context.Background()
	_, err := svc.ProvisionDefaultSubscription(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.LinkStripeCustomer(ctx, user.ID, "cus_test123"))

	return db, svc, user
}

func billingTask(t *testing.T, eventType, customer string, timestamps map[string]int64) *queue.Task {
	t.Helper()

	object := map[string]interface{}{"customer": customer}
	for k, v := range timestamps {
		object[k] = v
	}
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_test1",
		"type": eventType,
		"data": map[string]interface{}{"object": object},
	})
	require.NoError(t, err)

	return &queue.Task{ID: "task1", Kind: TaskKindStripeEvent, Payload: payload}
}

func TestBillingHandlerUpgradesOnPayment(t *testing.T) {
	_, svc, user := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())
	ctx := context.Background()

	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	task := billingTask(t, "invoice.payment_succeeded", "cus_test123", map[string]int64{
		"created": created.Unix(),
	})
	require.NoError(t, h.Handle(ctx, task))

	sub, err := svc.GetSubscriptionForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, sub.Tier)
	assert.WithinDuration(t, created, sub.UpdatedAt, time.Second)
}

func TestBillingHandlerDowngradesOnCancellation(t *testing.T) {
	_, svc, user := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())
	ctx := context.Background()

	upgrade := billingTask(t, "invoice.payment_succeeded", "cus_test123", nil)
	require.NoError(t, h.Handle(ctx, upgrade))

	cancelled := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	downgrade := billingTask(t, "customer.subscription.deleted", "cus_test123", map[string]int64{
		"canceled_at": cancelled.Unix(),
	})
	require.NoError(t, h.Handle(ctx, downgrade))

	sub, err := svc.GetSubscriptionForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, sub.Tier)
	assert.WithinDuration(t, cancelled, sub.UpdatedAt, time.Second)
}

func TestBillingHandlerIgnoresUnknownEventType(t *testing.T) {
	_, svc, user := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())
	ctx := context.Background()

	task := billingTask(t, "charge.refunded", "cus_test123", nil)
	require.NoError(t, h.Handle(ctx, task))

	sub, err := svc.GetSubscriptionForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, sub.Tier)
}

func TestBillingHandlerMissingCustomerID(t *testing.T) {
	_, svc, _ := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())

	// No customer to act on: the event is logged and dropped, not retried.
	task := billingTask(t, "invoice.payment_succeeded", "", nil)
	assert.NoError(t, h.Handle(context.Background(), task))
}

func TestBillingHandlerUnknownCustomerDropsEvent(t *testing.T) {
	_, svc, user := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())
	ctx := context.Background()

	// A customer we never linked cannot appear by retrying; drop the event.
	task := billingTask(t, "invoice.payment_succeeded", "cus_stranger", nil)
	assert.NoError(t, h.Handle(ctx, task))

	sub, err := svc.GetSubscriptionForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, sub.Tier)
}

func TestBillingHandlerReplayIsIdempotent(t *testing.T) {
	_, svc, user := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())
	ctx := context.Background()

	task := billingTask(t, "invoice.payment_succeeded", "cus_test123", nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Handle(ctx, task), fmt.Sprintf("replay %d", i))
	}

	sub, err := svc.GetSubscriptionForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, sub.Tier)
}

func TestBillingHandlerMalformedPayload(t *testing.T) {
	_, svc, _ := setupBillingTest(t)
	h := NewBillingHandler(svc, quietLogger())

	task := &queue.Task{ID: "task1", Kind: TaskKindStripeEvent, Payload: []byte("{not json")}
	assert.Error(t, h.Handle(context.Background(), task))
}
