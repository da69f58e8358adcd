package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow/models"
	"finflow/utils"
)

func newTestEncryptor(t *testing.T) *utils.Encryptor {
	t.Helper()

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	enc, err := utils.NewEncryptor(key)
	require.NoError(t, err)
	return enc
}

func TestRecordConsentWritesAuditTrail(t *testing.T) {
	db := newTestDB(t)
	svc := NewGDPRService(db, newTestEncryptor(t))
	user := createTestUser(t, db, "alice@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RecordConsent(ctx, user.ID, "marketing", true))

	var consents []models.UserConsent
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&consents).Error)
	require.Len(t, consents, 1)
	assert.Equal(t, "marketing", consents[0].ConsentType)
	assert.True(t, consents[0].Granted)

	var audits []models.AuditLog
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, "consent_recorded", audits[0].Action)
	require.NotNil(t, audits[0].Details)

	// The stored details must not be readable without the encryptor.
	assert.NotContains(t, *audits[0].Details, "marketing")
}

func TestRecordConsentAlwaysInserts(t *testing.T) {
	db := newTestDB(t)
	svc := NewGDPRService(db, newTestEncryptor(t))
	user := createTestUser(t, db, "alice@example.com")
	ctx := context.Background()

	// Revoking after granting appends a second row; history is preserved.
	require.NoError(t, svc.RecordConsent(ctx, user.ID, "marketing", true))
	require.NoError(t, svc.RecordConsent(ctx, user.ID, "marketing", false))

	var count int64
	require.NoError(t, db.Model(&models.UserConsent{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestExportUserDataRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewGDPRService(db, newTestEncryptor(t))
	user := createTestUser(t, db, "alice@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RecordConsent(ctx, user.ID, "marketing", true))
	require.NoError(t, svc.RecordConsent(ctx, user.ID, "analytics", false))

	export, err := svc.ExportUserData(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, export.UserID)
	require.Len(t, export.Consents, 2)
	require.Len(t, export.AuditLogs, 2)

	byType := map[string]bool{}
	for _, c := range export.Consents {
		byType[c.ConsentType] = c.Granted
	}
	assert.Equal(t, map[string]bool{"marketing": true, "analytics": false}, byType)

	// Audit details come back decrypted and matching their consent.
	for _, a := range export.AuditLogs {
		assert.Equal(t, "consent_recorded", a.Action)
		require.NotNil(t, a.Details)
		assert.Equal(t, byType[a.Details.ConsentType], a.Details.Granted)
	}
}

func TestExportUserDataEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewGDPRService(db, newTestEncryptor(t))
	user := createTestUser(t, db, "alice@example.com")

	export, err := svc.ExportUserData(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, export.UserID)
	assert.Empty(t, export.Consents)
	assert.Empty(t, export.AuditLogs)
}

func TestAnonymizeUserData(t *testing.T) {
	db := newTestDB(t)
	svc := NewGDPRService(db, newTestEncryptor(t))
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	require.NoError(t, svc.RecordConsent(ctx, alice.ID, "marketing", true))
	require.NoError(t, svc.RecordConsent(ctx, bob.ID, "marketing", true))

	require.NoError(t, svc.AnonymizeUserData(ctx, alice.ID))

	export, err := svc.ExportUserData(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, export.Consents)
	assert.Empty(t, export.AuditLogs)

	// Bob's rows survive Alice's erasure.
	export, err = svc.ExportUserData(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, export.Consents, 1)

	// Erasing again is a no-op.
	require.NoError(t, svc.AnonymizeUserData(ctx, alice.ID))
}
