package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"finflow/models"
	"finflow/services"
)

type SubscriptionController struct {
	subscriptions *services.SubscriptionService
}

func NewSubscriptionController(subscriptions *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptions: subscriptions}
}

func (sc *SubscriptionController) GetSubscription(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	subscription, err := sc.subscriptions.GetSubscriptionForUser(c.Context(), user.ID)
	if errors.Is(err, services.ErrSubscriptionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load subscription",
		})
	}

	return c.JSON(subscription)
}

func (sc *SubscriptionController) GetUsage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	logs, err := sc.subscriptions.ListUsage(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load usage logs",
		})
	}

	return c.JSON(logs)
}
