package controllers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/app/repository"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/billing"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/database"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/env"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/metrics"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/session"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id"`
	Plan      string `json:"plan"`
}

// HandleCreateCheckoutSession starts a hosted checkout for a paid plan and
// returns the redirect URL.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	plan := entitlements.Normalize(req.Plan)
	if !entitlements.IsPaid(plan) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_plan", "Choose the pro or enterprise plan")
	}

	url, err := billing.CreateCheckoutSession(c.Context(), user.ID, plan, user.Email)
	if err != nil {
		log.Printf("Error creating checkout session for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "upstream_error", "Failed to start checkout")
	}

	return c.JSON(fiber.Map{"url": url})
}

// HandleVerifyPayment is the client-redirect verification trigger. The
// browser lands on the success page and posts the checkout session id here;
// the reconciliation service decides whether anything still needs to happen.
func HandleVerifyPayment(c *fiber.Ctx) error {
	user, err := loadCurrentUser(c)
	if user == nil {
		return err
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "session_id is required")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	result, err := svc.Reconcile(c.Context(), req.SessionID, entitlements.Plan(req.Plan), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPaymentNotCompleted):
			return jsonError(c, fiber.StatusPaymentRequired, "payment_not_completed", billing.ReasonNotCompleted)
		case errors.Is(err, billing.ErrInvalidPlan):
			return jsonError(c, fiber.StatusBadRequest, "invalid_plan", "Choose the pro or enterprise plan")
		case errors.Is(err, billing.ErrUserNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		log.Printf("Error verifying payment for session %s: %v", req.SessionID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Payment verification failed")
	}

	// Session plan may be stale after an upgrade; refresh it so the user
	// context reflects the new entitlements immediately.
	if fresh, err := repository.GetGlobalFactory().GetUserRepository().GetByID(user.ID); err == nil {
		if err := session.SetSessionValue(c, USER_PLAN, fresh.Plan); err != nil {
			log.Printf("Error refreshing session plan for user %d: %v", user.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": result.Applied,
		"message": result.Reason,
	})
}

// stripeReconciler is the slice of the billing service the webhook needs.
type stripeReconciler interface {
	Reconcile(ctx context.Context, sessionID string, plan entitlements.Plan, userID uint) (billing.Result, error)
}

// StripeWebhookHandler is the provider-push verification trigger. Deliveries
// are at-least-once so everything here must be idempotent: the raw event is
// stored with a provider-scoped unique key, and reconciliation itself is safe
// to repeat. Collaborators are injected so the disposition logic is testable
// without the global factory.
type StripeWebhookHandler struct {
	events     repository.WebhookEventRepository
	reconciler stripeReconciler
	secret     string
}

// NewStripeWebhookHandler creates a webhook handler from its collaborators.
func NewStripeWebhookHandler(events repository.WebhookEventRepository, reconciler stripeReconciler, secret string) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		events:     events,
		reconciler: reconciler,
		secret:     secret,
	}
}

// HandleStripeWebhook wires the production collaborators for the webhook route.
func HandleStripeWebhook(c *fiber.Ctx) error {
	handler := NewStripeWebhookHandler(
		repository.GetGlobalFactory().GetWebhookEventRepository(),
		billing.NewServiceFromDB(database.GetDB()),
		env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	)
	return handler.Handle(c)
}

// Handle verifies, stores, and reconciles one webhook delivery.
func (h *StripeWebhookHandler) Handle(c *fiber.Ctx) error {
	if h.secret == "" {
		log.Printf("STRIPE_WEBHOOK_SECRET is not configured, rejecting webhook")
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Webhook is not configured")
	}

	payload := c.Body()
	event, err := billing.VerifyWebhookEvent(payload, c.Get("Stripe-Signature"), h.secret)
	if err != nil {
		// An unverified payload must not touch storage at all.
		metrics.WebhookDisposition("invalid_signature")
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	}

	record := &models.WebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	}
	created, existing, err := h.events.CreateIfNotExists(record)
	if err != nil {
		log.Printf("Error storing webhook event %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store webhook event")
	}
	if !created {
		record = existing
		if record.ProcessedAt != nil {
			// Redelivery of an event this service already handled.
			metrics.WebhookDisposition("duplicate")
			return c.JSON(fiber.Map{"received": true, "duplicate": true})
		}
	}

	if string(event.Type) != billing.EventTypeCheckoutCompleted {
		// Unknown event types are acknowledged so the provider stops
		// retrying them.
		metrics.WebhookDisposition("ignored")
		if err := h.events.MarkProcessed(record.ID, ""); err != nil {
			log.Printf("Error marking webhook event %d processed: %v", record.ID, err)
		}
		return c.JSON(fiber.Map{"received": true})
	}

	completed, err := billing.ParseCheckoutCompleted(event)
	if err != nil {
		// Malformed metadata will not improve on retry; record and ack.
		log.Printf("Error parsing checkout.session.completed %s: %v", event.ID, err)
		metrics.WebhookDisposition("invalid_payload")
		if markErr := h.events.MarkProcessed(record.ID, err.Error()); markErr != nil {
			log.Printf("Error marking webhook event %d processed: %v", record.ID, markErr)
		}
		return c.JSON(fiber.Map{"received": true})
	}

	result, err := h.reconciler.Reconcile(c.Context(), completed.SessionID, completed.Plan, completed.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrPaymentNotCompleted) || errors.Is(err, billing.ErrUserNotFound) || errors.Is(err, billing.ErrInvalidPlan) {
			// Permanent failures: acknowledge with the error recorded so the
			// provider does not retry forever.
			metrics.WebhookDisposition("rejected")
			if markErr := h.events.MarkProcessed(record.ID, err.Error()); markErr != nil {
				log.Printf("Error marking webhook event %d processed: %v", record.ID, markErr)
			}
			return c.JSON(fiber.Map{"received": true})
		}
		// Transient failure: leave the event unprocessed and let the
		// provider redeliver.
		log.Printf("Error reconciling webhook event %s: %v", event.ID, err)
		metrics.WebhookDisposition("retryable_error")
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Reconciliation failed")
	}

	metrics.WebhookDisposition("processed")
	if err := h.events.MarkProcessed(record.ID, ""); err != nil {
		log.Printf("Error marking webhook event %d processed: %v", record.ID, err)
	}
	log.Printf("[PAYMENT-VERIFY] webhook %s handled: %s", event.ID, result.Reason)

	return c.JSON(fiber.Map{"received": true})
}
