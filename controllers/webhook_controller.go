package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"finflow/queue"
	"finflow/utils"
	"finflow/worker"
)

type WebhookController struct {
	queue         *queue.Queue
	webhookSecret string
}

func NewWebhookController(q *queue.Queue, webhookSecret string) *WebhookController {
	return &WebhookController{queue: q, webhookSecret: webhookSecret}
}

// HandleStripeWebhook verifies the event signature at the boundary and hands
// the payload to the background worker. The request cycle never touches the
// tier state machine.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c, wc.webhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// The verified body goes on the queue verbatim; the worker re-parses
	// the fields it needs.
	_, err = wc.queue.Enqueue(c.Context(), worker.TaskKindStripeEvent, json.RawMessage(c.Body()))
	if err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("Failed to enqueue billing event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept webhook",
		})
	}

	return c.JSON(fiber.Map{
		"status": "accepted",
	})
}
