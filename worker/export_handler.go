package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"finflow/models"
	"finflow/queue"
	"finflow/services"
	"finflow/storage"
	"finflow/utils"
)

// TaskKindDataExport tags GDPR export generation tasks on the queue.
const TaskKindDataExport = "data_export"

type ExportTaskPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	ExportID string    `json:"export_id"`
}

type exportMetadata struct {
	UserID      uuid.UUID `json:"user_id"`
	ExportID    string    `json:"export_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
}

type exportArtifact struct {
	Metadata exportMetadata           `json:"metadata"`
	Data     *services.UserDataExport `json:"data"`
}

// ExportHandler generates GDPR data-export artifacts. Idempotent: an export
// id that already has an artifact in storage is skipped, so redelivery and
// retries never produce duplicates.
type ExportHandler struct {
	db     *gorm.DB
	gdpr   *services.GDPRService
	store  storage.ExportStore
	mailer *utils.Mailer
	logger *logrus.Logger
}

func NewExportHandler(db *gorm.DB, gdpr *services.GDPRService, store storage.ExportStore, mailer *utils.Mailer, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{db: db, gdpr: gdpr, store: store, mailer: mailer, logger: logger}
}

func (h *ExportHandler) Handle(ctx context.Context, task *queue.Task) error {
	var payload ExportTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return err
	}

	log := h.logger.WithFields(logrus.Fields{
		"user_id":   payload.UserID,
		"export_id": payload.ExportID,
	})
	log.Info("Generating data export")

	exists, err := h.store.Exists(ctx, payload.ExportID)
	if err != nil {
		return err
	}
	if exists {
		log.Info("Export already exists, skipping")
		return nil
	}

	data, err := h.gdpr.ExportUserData(ctx, payload.UserID)
	if err != nil {
		return err
	}

	artifact := exportArtifact{
		Metadata: exportMetadata{
			UserID:      payload.UserID,
			ExportID:    payload.ExportID,
			GeneratedAt: time.Now().UTC(),
			Version:     "1.0",
		},
		Data: data,
	}
	encoded, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}

	if err := h.store.Put(ctx, payload.ExportID, encoded); err != nil {
		return err
	}
	log.Info("Export artifact written")

	h.notifyUser(ctx, payload, log)
	return nil
}

// notifyUser sends the export-ready mail on a best-effort basis; the
// artifact is already durable, so mail failures must not fail the task.
func (h *ExportHandler) notifyUser(ctx context.Context, payload ExportTaskPayload, log *logrus.Entry) {
	if !h.mailer.Enabled() {
		return
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", payload.UserID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithError(err).Warn("Could not load user for export notification")
		}
		return
	}

	if err := h.mailer.SendExportReady(user.Email, payload.ExportID); err != nil {
		log.WithError(err).Warn("Failed to send export notification")
	}
}
