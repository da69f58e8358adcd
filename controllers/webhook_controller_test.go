package controller

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow/queue"
	"finflow/worker"
)

const testWebhookSecret = "whsec_test"

// stripeSignature builds a Stripe-Signature header the same way the provider
// does: v1 = HMAC-SHA256(secret, "<timestamp>.<payload>").
func stripeSignature(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func setupWebhookTest(t *testing.T) (*fiber.App, *queue.Queue) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	q := queue.New(client, "test")

	app := fiber.New()
	wc := NewWebhookController(q, testWebhookSecret)
	app.Post("/webhooks/stripe", wc.HandleStripeWebhook)

	return app, q
}

func TestHandleStripeWebhookEnqueuesVerifiedEvent(t *testing.T) {
	app, q := setupWebhookTest(t)

	payload := []byte(`{"id":"evt_test1","type":"invoice.payment_succeeded","data":{"object":{"customer":"cus_test123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", stripeSignature(testWebhookSecret, payload, time.Now()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	task, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, worker.TaskKindStripeEvent, task.Kind)
	assert.JSONEq(t, string(payload), string(task.Payload))
}

func TestHandleStripeWebhookRejectsBadSignature(t *testing.T) {
	app, q := setupWebhookTest(t)

	payload := []byte(`{"id":"evt_test1","type":"invoice.payment_succeeded"}`)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature("whsec_wrong", payload, time.Now()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, err = q.Dequeue(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestHandleStripeWebhookRejectsStaleTimestamp(t *testing.T) {
	app, q := setupWebhookTest(t)

	payload := []byte(`{"id":"evt_test1","type":"invoice.payment_succeeded"}`)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature(testWebhookSecret, payload, time.Now().Add(-time.Hour)))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, err = q.Dequeue(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestHandleStripeWebhookRejectsMissingSignature(t *testing.T) {
	app, _ := setupWebhookTest(t)

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
