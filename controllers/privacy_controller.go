package controller

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finflow/models"
	"finflow/queue"
	"finflow/services"
	"finflow/storage"
	"finflow/utils"
	"finflow/worker"
)

type ConsentRequest struct {
	ConsentType string `json:"consent_type" validate:"required"`
	Granted     *bool  `json:"granted" validate:"required"`
}

type PrivacyController struct {
	gdpr  *services.GDPRService
	queue *queue.Queue
	store storage.ExportStore
}

func NewPrivacyController(gdpr *services.GDPRService, q *queue.Queue, store storage.ExportStore) *PrivacyController {
	return &PrivacyController{gdpr: gdpr, queue: q, store: store}
}

func (pc *PrivacyController) RecordConsent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req ConsentRequest
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

	if err := pc.gdpr.RecordConsent(c.Context(), user.ID, req.ConsentType, *req.Granted); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record consent",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Consent recorded successfully",
	})
}

// RequestExport enqueues the export task and returns immediately; the
// artifact is generated out-of-band.
func (pc *PrivacyController) RequestExport(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	exportID := uuid.New().String()

	taskID, err := pc.queue.Enqueue(c.Context(), worker.TaskKindDataExport, worker.ExportTaskPayload{
		UserID:   user.ID,
		ExportID: exportID,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to enqueue export task")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to request export",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":   "Data export requested",
		"export_id": exportID,
		"task_id":   taskID,
		"status":    "processing",
	})
}

// GetExport serves the finished artifact, or 404 while it is still being
// generated. Export ids are not capabilities: the artifact's owner is checked
// against the authenticated user before anything is sent.
func (pc *PrivacyController) GetExport(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	exportID := c.Params("id")
	if _, err := uuid.Parse(exportID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid export id",
		})
	}

	data, err := pc.store.Get(c.Context(), exportID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Export not found or still processing",
			"status": "processing",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load export",
		})
	}

	var artifact struct {
		Metadata struct {
			UserID uuid.UUID `json:"user_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		logrus.WithError(err).WithField("export_id", exportID).Error("Malformed export artifact")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load export",
		})
	}
	if artifact.Metadata.UserID != user.ID && !user.IsSuperuser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Cannot act on another user's resource",
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(data)
}

func (pc *PrivacyController) Anonymize(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := pc.gdpr.AnonymizeUserData(c.Context(), user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to anonymize user data",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User data anonymized successfully",
	})
}
