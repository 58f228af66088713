package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe does: the
// signed payload is "<timestamp>.<body>" and v1 is its HMAC-SHA256.
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(t *testing.T, sessionID, userID, plan string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":      "evt_test_1",
		"object":  "event",
		"type":    "checkout.session.completed",
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

func TestVerifyWebhookEventAcceptsValidSignature(t *testing.T) {
	payload := checkoutCompletedPayload(t, "cs_1", "42", "pro")
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := VerifyWebhookEvent(payload, header, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, EventTypeCheckoutCompleted, string(event.Type))
}

func TestVerifyWebhookEventRejectsBadSignature(t *testing.T) {
	payload := checkoutCompletedPayload(t, "cs_1", "42", "pro")

	// Signed with the wrong secret.
	header := signPayload(payload, "whsec_wrong", time.Now())
	_, err := VerifyWebhookEvent(payload, header, testWebhookSecret)
	assert.Error(t, err)

	// Payload altered after signing.
	header = signPayload(payload, testWebhookSecret, time.Now())
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'X'
	_, err = VerifyWebhookEvent(tampered, header, testWebhookSecret)
	assert.Error(t, err)

	// Missing header.
	_, err = VerifyWebhookEvent(payload, "", testWebhookSecret)
	assert.Error(t, err)
}

func TestVerifyWebhookEventRejectsStaleTimestamp(t *testing.T) {
	payload := checkoutCompletedPayload(t, "cs_1", "42", "pro")
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, err := VerifyWebhookEvent(payload, header, testWebhookSecret)
	assert.Error(t, err)
}

func TestParseCheckoutCompleted(t *testing.T) {
	payload := checkoutCompletedPayload(t, "cs_1", "42", "pro")
	header := signPayload(payload, testWebhookSecret, time.Now())
	event, err := VerifyWebhookEvent(payload, header, testWebhookSecret)
	require.NoError(t, err)

	completed, err := ParseCheckoutCompleted(event)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", completed.SessionID)
	assert.Equal(t, uint(42), completed.UserID)
	assert.Equal(t, entitlements.PlanPro, completed.Plan)
}

func TestParseCheckoutCompletedRejectsBadMetadata(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		plan   string
	}{
		{name: "missing user id", userID: "", plan: "pro"},
		{name: "non numeric user id", userID: "abc", plan: "pro"},
		{name: "zero user id", userID: "0", plan: "pro"},
		{name: "missing plan", userID: "42", plan: ""},
		{name: "free plan is not purchasable", userID: "42", plan: "free"},
		{name: "unknown plan", userID: "42", plan: "platinum"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := checkoutCompletedPayload(t, "cs_1", tc.userID, tc.plan)
			header := signPayload(payload, testWebhookSecret, time.Now())
			event, err := VerifyWebhookEvent(payload, header, testWebhookSecret)
			require.NoError(t, err)

			_, err = ParseCheckoutCompleted(event)
			assert.Error(t, err)
		})
	}
}
