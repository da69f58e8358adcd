package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"finflow/models"
	"finflow/services"
	"finflow/utils"
)

type PortfolioRequest struct {
	Assets []services.Asset `json:"assets" validate:"required,min=1,dive"`
}

type PortfolioController struct {
	analyzer *services.PortfolioAnalyzer
}

func NewPortfolioController(analyzer *services.PortfolioAnalyzer) *PortfolioController {
	return &PortfolioController{analyzer: analyzer}
}

func (pc *PortfolioController) Analyze(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req PortfolioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	analysis, err := pc.analyzer.Analyze(c.Context(), user.ID, req.Assets)
	if err != nil {
		return mapFeatureError(c, err)
	}

	return c.JSON(fiber.Map{
		"analysis": analysis,
	})
}

// mapFeatureError converts gateway errors into client-facing responses.
func mapFeatureError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUsageLimitExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Usage limit exceeded",
		})
	case errors.Is(err, services.ErrUnknownFeature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown feature",
		})
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Feature execution failed",
		})
	}
}
