package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationLog persists one chat exchange (user message and assistant
// reply). The live conversation context lives in redis, not here.
type ConversationLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Message   string    `gorm:"not null" json:"message"`
	Response  string    `gorm:"not null" json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *ConversationLog) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
