package models

import "gorm.io/gorm"

// Migrate runs the schema migration for every entity this service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Subscription{},
		&UsageLog{},
		&UserConsent{},
		&AuditLog{},
		&ConversationLog{},
	)
}
