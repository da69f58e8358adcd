package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"finflow/models"
	"finflow/queue"
	"finflow/services"
)

// TaskKindStripeEvent tags billing webhook events on the queue.
const TaskKindStripeEvent = "stripe_event"

// stripeEvent is the slice of the provider payload the state machine needs.
// The queue carries the verified webhook body verbatim.
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Customer   string `json:"customer"`
			Created    int64  `json:"created"`
			CanceledAt int64  `json:"canceled_at"`
		} `json:"object"`
	} `json:"data"`
}

// BillingHandler applies payment-provider events to subscription tiers:
// a paid invoice upgrades to premium, a cancelled subscription reverts to
// free, everything else is ignored. There is no processed-event ledger; both
// transitions are idempotent by construction, so replays are harmless.
type BillingHandler struct {
	subscriptions *services.SubscriptionService
	logger        *logrus.Logger
}

func NewBillingHandler(subscriptions *services.SubscriptionService, logger *logrus.Logger) *BillingHandler {
	return &BillingHandler{subscriptions: subscriptions, logger: logger}
}

func (h *BillingHandler) Handle(ctx context.Context, task *queue.Task) error {
	var event stripeEvent
	if err := json.Unmarshal(task.Payload, &event); err != nil {
		return err
	}

	log := h.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})
	log.Info("Processing billing event")

	var tier string
	var eventTime time.Time
	switch event.Type {
	case "invoice.payment_succeeded":
		tier = models.TierPremium
		if event.Data.Object.Created > 0 {
			eventTime = time.Unix(event.Data.Object.Created, 0).UTC()
		}
	case "customer.subscription.deleted":
		tier = models.TierFree
		if event.Data.Object.CanceledAt > 0 {
			eventTime = time.Unix(event.Data.Object.CanceledAt, 0).UTC()
		}
	default:
		log.Info("Ignoring billing event type")
		return nil
	}

	customerID := event.Data.Object.Customer
	if customerID == "" {
		log.Warn("No customer ID in billing event")
		return nil
	}

	err := h.subscriptions.ApplyTierChange(ctx, customerID, tier, eventTime)
	if errors.Is(err, services.ErrSubscriptionNotFound) {
		// The record will never appear by retrying; drop the event.
		log.WithField("customer_id", customerID).Warn("No subscription found for customer")
		return nil
	}
	return err
}
