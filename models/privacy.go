package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserConsent records one consent submission. Repeated submissions for the
// same consent type create additional rows; latest-wins collapsing is a
// product decision that has not been made.
type UserConsent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ConsentType string    `gorm:"not null" json:"consent_type"`
	Granted     bool      `gorm:"not null" json:"granted"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *UserConsent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AuditLog records GDPR-relevant actions. Details holds an encrypted JSON
// blob; it is only readable through the process encryptor.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Action    string    `gorm:"not null" json:"action"`
	Details   *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
