package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/env"
)

// SetupStripe configures the global Stripe API key from the environment.
func SetupStripe() {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
}

// StripeProvider implements CheckoutProvider against the Stripe API.
type StripeProvider struct{}

// NewStripeProvider creates the Stripe-backed checkout provider.
func NewStripeProvider() *StripeProvider {
	return &StripeProvider{}
}

// RetrieveSession fetches the authoritative session state from Stripe.
func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	customerID := ""
	if s.Customer != nil {
		customerID = s.Customer.ID
	}
	return &CheckoutSession{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		CustomerID:    customerID,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}, nil
}

// CreateCheckoutSession creates a subscription-mode checkout for a paid plan
// and returns the hosted checkout URL.
func CreateCheckoutSession(ctx context.Context, userID uint, plan entitlements.Plan, email string) (string, error) {
	plan = entitlements.Normalize(string(plan))
	if !entitlements.IsPaid(plan) {
		return "", ErrInvalidPlan
	}

	productID := env.GetEnv("STRIPE_PRO_PRODUCT_ID", "")
	if plan == entitlements.PlanEnterprise {
		productID = env.GetEnv("STRIPE_ENTERPRISE_PRODUCT_ID", "")
	}
	baseURL := strings.TrimRight(env.GetEnv("PUBLIC_BASE_URL", "http://localhost:4000"), "/")

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("inr"),
					Product:    stripe.String(productID),
					UnitAmount: stripe.Int64(AmountForPlan(plan)),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}&plan=" + string(plan)),
		CancelURL:           stripe.String(baseURL + "/?canceled=true"),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx
	if strings.TrimSpace(email) != "" {
		params.CustomerEmail = stripe.String(strings.TrimSpace(email))
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))
	params.AddMetadata("plan", string(plan))

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// CheckoutCompletedEvent is the validated, typed view of a
// checkout.session.completed webhook delivery.
type CheckoutCompletedEvent struct {
	SessionID string
	UserID    uint
	Plan      entitlements.Plan
}

// EventTypeCheckoutCompleted is the only event type that triggers reconciliation.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// VerifyWebhookEvent checks the Stripe signature header (constant-time HMAC
// comparison) and returns the parsed event. No field of the payload may be
// trusted before this succeeds. API version mismatches are tolerated because
// the Stripe CLI and older webhook endpoints deliver events pinned to a
// different version than the SDK.
func VerifyWebhookEvent(payload []byte, signatureHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// ParseCheckoutCompleted extracts the reconciliation input from a
// checkout.session.completed event. Payloads missing the expected metadata
// are rejected rather than guessed at.
func ParseCheckoutCompleted(event stripe.Event) (*CheckoutCompletedEvent, error) {
	if string(event.Type) != EventTypeCheckoutCompleted {
		return nil, fmt.Errorf("unexpected event type: %s", event.Type)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session payload: %w", err)
	}
	if strings.TrimSpace(s.ID) == "" {
		return nil, errors.New("checkout session payload missing id")
	}

	rawUserID := strings.TrimSpace(s.Metadata["user_id"])
	if rawUserID == "" {
		return nil, errors.New("checkout session metadata missing user_id")
	}
	userID, err := strconv.ParseUint(rawUserID, 10, 32)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid user_id metadata: %q", rawUserID)
	}

	plan := entitlements.Normalize(s.Metadata["plan"])
	if !entitlements.IsPaid(plan) {
		return nil, fmt.Errorf("invalid plan metadata: %q", s.Metadata["plan"])
	}

	return &CheckoutCompletedEvent{
		SessionID: s.ID,
		UserID:    uint(userID),
		Plan:      plan,
	}, nil
}
