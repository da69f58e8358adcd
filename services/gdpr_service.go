package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"finflow/models"
	"finflow/utils"
)

// GDPRService owns consent bookkeeping, data export and the right-to-erasure
// subset. Audit details are encrypted at rest through the process encryptor.
type GDPRService struct {
	db        *gorm.DB
	encryptor *utils.Encryptor
}

func NewGDPRService(db *gorm.DB, encryptor *utils.Encryptor) *GDPRService {
	return &GDPRService{db: db, encryptor: encryptor}
}

type ConsentDetails struct {
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
}

type ConsentExport struct {
	ID          uuid.UUID `json:"id"`
	ConsentType string    `json:"consent_type"`
	Granted     bool      `json:"granted"`
	Timestamp   time.Time `json:"timestamp"`
}

type AuditLogExport struct {
	ID        uuid.UUID       `json:"id"`
	Action    string          `json:"action"`
	Details   *ConsentDetails `json:"details"`
	Timestamp time.Time       `json:"timestamp"`
}

type UserDataExport struct {
	UserID    uuid.UUID        `json:"user_id"`
	Consents  []ConsentExport  `json:"consents"`
	AuditLogs []AuditLogExport `json:"audit_logs"`
}

// RecordConsent inserts a consent row and a matching encrypted audit row.
// The two inserts commit separately; a crash in between leaves a consent
// without its audit entry.
func (s *GDPRService) RecordConsent(ctx context.Context, userID uuid.UUID, consentType string, granted bool) error {
	consent := &models.UserConsent{
		UserID:      userID,
		ConsentType: consentType,
		Granted:     granted,
	}
	if err := s.db.WithContext(ctx).Create(consent).Error; err != nil {
		return err
	}

	encrypted, err := s.encryptor.EncryptJSON(ConsentDetails{
		ConsentType: consentType,
		Granted:     granted,
	})
	if err != nil {
		return err
	}

	audit := &models.AuditLog{
		UserID:  userID,
		Action:  "consent_recorded",
		Details: &encrypted,
	}
	if err := s.db.WithContext(ctx).Create(audit).Error; err != nil {
		return err
	}

	utils.GDPRActionsTotal.WithLabelValues("record_consent").Inc()
	return nil
}

// ExportUserData assembles the user's full consent and audit footprint with
// audit details decrypted. Read-only and safe to call repeatedly.
func (s *GDPRService) ExportUserData(ctx context.Context, userID uuid.UUID) (*UserDataExport, error) {
	var consents []models.UserConsent
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&consents).Error; err != nil {
		return nil, err
	}

	var audits []models.AuditLog
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&audits).Error; err != nil {
		return nil, err
	}

	export := &UserDataExport{
		UserID:    userID,
		Consents:  make([]ConsentExport, 0, len(consents)),
		AuditLogs: make([]AuditLogExport, 0, len(audits)),
	}

	for _, c := range consents {
		export.Consents = append(export.Consents, ConsentExport{
			ID:          c.ID,
			ConsentType: c.ConsentType,
			Granted:     c.Granted,
			Timestamp:   c.CreatedAt,
		})
	}

	for _, a := range audits {
		entry := AuditLogExport{
			ID:        a.ID,
			Action:    a.Action,
			Timestamp: a.CreatedAt,
		}
		if a.Details != nil {
			var details ConsentDetails
			if err := s.encryptor.DecryptJSON(*a.Details, &details); err != nil {
				return nil, err
			}
			entry.Details = &details
		}
		export.AuditLogs = append(export.AuditLogs, entry)
	}

	utils.GDPRActionsTotal.WithLabelValues("export_data").Inc()
	return export, nil
}

// AnonymizeUserData deletes the user's consent and audit rows in one
// transaction. Usage logs, the subscription and the user row itself stay;
// widening the erasure scope is a pending compliance decision.
func (s *GDPRService) AnonymizeUserData(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserConsent{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.AuditLog{}).Error
	})
	if err != nil {
		return err
	}

	utils.GDPRActionsTotal.WithLabelValues("anonymize_data").Inc()
	return nil
}
