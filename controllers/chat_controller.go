package controller

import (
	"github.com/gofiber/fiber/v2"

	"finflow/models"
	"finflow/services"
	"finflow/utils"
)

type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type ChatController struct {
	llm *services.LLMService
}

func NewChatController(llm *services.LLMService) *ChatController {
	return &ChatController{llm: llm}
}

func (cc *ChatController) Chat(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req ChatRequest
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

	response, err := cc.llm.Chat(c.Context(), user.ID, req.Message)
	if err != nil {
		return mapFeatureError(c, err)
	}

	return c.JSON(fiber.Map{
		"response": response,
	})
}
