package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/billing"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
)

const webhookTestSecret = "whsec_handler_test"

type reconcileCall struct {
	SessionID string
	Plan      entitlements.Plan
	UserID    uint
}

type fakeReconciler struct {
	mu     sync.Mutex
	calls  []reconcileCall
	result billing.Result
	err    error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, sessionID string, plan entitlements.Plan, userID uint) (billing.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reconcileCall{SessionID: sessionID, Plan: plan, UserID: userID})
	return f.result, f.err
}

func (f *fakeReconciler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeWebhookEventRepo emulates the (provider, provider_event_id) unique key
// of the webhook event table.
type fakeWebhookEventRepo struct {
	mu        sync.Mutex
	events    map[string]*models.WebhookEvent
	processed map[uint]string
	nextID    uint
	createErr error
}

func newFakeWebhookEventRepo() *fakeWebhookEventRepo {
	return &fakeWebhookEventRepo{
		events:    make(map[string]*models.WebhookEvent),
		processed: make(map[uint]string),
	}
}

func (r *fakeWebhookEventRepo) CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return false, nil, r.createErr
	}
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	r.nextID++
	copied := *event
	copied.ID = r.nextID
	// Mirror the real repository: gorm's Create sets the ID on the
	// caller's struct.
	event.ID = copied.ID
	r.events[key] = &copied
	stored := copied
	return true, &stored, nil
}

func (r *fakeWebhookEventRepo) MarkProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[id] = processingError
	return nil
}

func (r *fakeWebhookEventRepo) storedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *fakeWebhookEventRepo) processedError(id uint) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.processed[id]
	return msg, ok
}

func signWebhookPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookEventPayload(t *testing.T, eventID, eventType, sessionID, userID, plan string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":      eventID,
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"object":         "checkout.session",
				"payment_status": "paid",
				"amount_total":   9900,
				"currency":       "inr",
				"metadata": map[string]string{
					"user_id": userID,
					"plan":    plan,
				},
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func newWebhookTestApp(handler *StripeWebhookHandler) *fiber.App {
	app := fiber.New()
	app.Post("/api/webhooks/stripe", handler.Handle)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, signature string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp, body
}

func TestStripeWebhookValidDelivery(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{result: billing.Result{Applied: true, Reason: billing.ReasonVerified}}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])

	require.Equal(t, 1, reconciler.callCount())
	assert.Equal(t, reconcileCall{SessionID: "cs_1", Plan: entitlements.PlanPro, UserID: 42}, reconciler.calls[0])

	assert.Equal(t, 1, repo.storedCount())
	stored := repo.events[models.BillingProviderStripe+":evt_1"]
	require.NotNil(t, stored)
	assert.True(t, stored.SignatureValid)
	assert.Equal(t, billing.EventTypeCheckoutCompleted, stored.EventType)
	msg, ok := repo.processedError(stored.ID)
	assert.True(t, ok)
	assert.Equal(t, "", msg)
}

func TestStripeWebhookRedeliveryOfProcessedEventIsAcked(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	now := time.Now()
	repo.events[models.BillingProviderStripe+":evt_1"] = &models.WebhookEvent{
		ID:              7,
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       billing.EventTypeCheckoutCompleted,
		ProcessedAt:     &now,
	}
	reconciler := &fakeReconciler{result: billing.Result{Applied: true, Reason: billing.ReasonVerified}}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, true, body["duplicate"])

	// The redelivery is acknowledged without reprocessing.
	assert.Equal(t, 0, reconciler.callCount())
	assert.Equal(t, 1, repo.storedCount())
}

func TestStripeWebhookRedeliveryOfUnprocessedEventIsRetried(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	// Stored by a previous delivery that died before reconciling.
	repo.events[models.BillingProviderStripe+":evt_1"] = &models.WebhookEvent{
		ID:              7,
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       billing.EventTypeCheckoutCompleted,
	}
	reconciler := &fakeReconciler{result: billing.Result{Applied: true, Reason: billing.ReasonVerified}}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	assert.Nil(t, body["duplicate"])

	require.Equal(t, 1, reconciler.callCount())
	msg, ok := repo.processedError(7)
	assert.True(t, ok)
	assert.Equal(t, "", msg)
}

func TestStripeWebhookInvalidSignatureTouchesNothing(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")

	// Signed with the wrong secret.
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, "whsec_wrong", time.Now()))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])

	// Missing header.
	resp, _ = postWebhook(t, app, payload, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, repo.storedCount())
	assert.Equal(t, 0, reconciler.callCount())
}

func TestStripeWebhookUnknownEventTypeIsAckedAndIgnored(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", "invoice.payment_succeeded", "cs_1", "42", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, 0, reconciler.callCount())

	// The event is stored and marked handled so a redelivery short-circuits.
	assert.Equal(t, 1, repo.storedCount())
	stored := repo.events[models.BillingProviderStripe+":evt_1"]
	msg, ok := repo.processedError(stored.ID)
	assert.True(t, ok)
	assert.Equal(t, "", msg)
}

func TestStripeWebhookMalformedMetadataIsAckedWithError(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	// Retrying would not fix the payload, so it is acknowledged.
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, 0, reconciler.callCount())

	stored := repo.events[models.BillingProviderStripe+":evt_1"]
	require.NotNil(t, stored)
	msg, ok := repo.processedError(stored.ID)
	assert.True(t, ok)
	assert.NotEmpty(t, msg)
}

func TestStripeWebhookPermanentReconcileFailureIsAcked(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{err: billing.ErrUserNotFound}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")
	resp, body := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])

	stored := repo.events[models.BillingProviderStripe+":evt_1"]
	msg, ok := repo.processedError(stored.ID)
	assert.True(t, ok)
	assert.NotEmpty(t, msg)
}

func TestStripeWebhookTransientReconcileFailureRequestsRedelivery(t *testing.T) {
	repo := newFakeWebhookEventRepo()
	reconciler := &fakeReconciler{err: errors.New("db timeout")}
	app := newWebhookTestApp(NewStripeWebhookHandler(repo, reconciler, webhookTestSecret))

	payload := webhookEventPayload(t, "evt_1", billing.EventTypeCheckoutCompleted, "cs_1", "42", "pro")
	resp, _ := postWebhook(t, app, payload, signWebhookPayload(payload, webhookTestSecret, time.Now()))

	// Non-2xx makes the provider redeliver; the stored event stays
	// unprocessed so the retry actually runs.
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	stored := repo.events[models.BillingProviderStripe+":evt_1"]
	require.NotNil(t, stored)
	_, ok := repo.processedError(stored.ID)
	assert.False(t, ok)
}
