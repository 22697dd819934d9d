package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"merritt/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts.Unix())))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	g := &StripeGateway{webhookSecret: testSecret, logger: zap.NewNop()}
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_intent": "pi_123",
			"payment_status": "paid",
			"amount_total": 5000,
			"customer_details": {"email": "a@x.com", "name": "A"},
			"metadata": {"booking_type": "meeting_room", "booking_id": "b1"}
		}}
	}`)

	evt, err := g.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, models.EventCheckoutCompleted, evt.Type)
	assert.Equal(t, "cs_test_1", evt.SessionID)
	assert.Equal(t, "pi_123", evt.PaymentIntentID)
	assert.Equal(t, int64(5000), evt.AmountTotal)
	assert.Equal(t, "a@x.com", evt.CustomerEmail)
	assert.Equal(t, models.BookingTypeMeetingRoom, evt.BookingType())
	assert.Equal(t, "b1", evt.Metadata["booking_id"])
}

func TestParseWebhook_PaymentFailed(t *testing.T) {
	g := &StripeGateway{webhookSecret: testSecret, logger: zap.NewNop()}
	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_999",
			"object": "payment_intent",
			"amount": 2500,
			"status": "requires_payment_method",
			"last_payment_error": {"message": "Your card was declined."},
			"metadata": {"booking_type": "meeting_room", "booking_id": "b9"}
		}}
	}`)

	evt, err := g.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, models.EventPaymentFailed, evt.Type)
	assert.Equal(t, "pi_999", evt.PaymentIntentID)
	assert.Equal(t, "Your card was declined.", evt.FailureMessage)
	assert.Equal(t, "b9", evt.Metadata["booking_id"])
}

func TestParseWebhook_RejectsBadSignature(t *testing.T) {
	g := &StripeGateway{webhookSecret: testSecret, logger: zap.NewNop()}
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := g.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = g.ParseWebhook(payload, "")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestParseWebhook_RejectsStaleTimestamp(t *testing.T) {
	g := &StripeGateway{webhookSecret: testSecret, logger: zap.NewNop()}
	payload := []byte(`{"id":"evt_4","object":"event","type":"checkout.session.expired","data":{"object":{}}}`)

	_, err := g.ParseWebhook(payload, sign(payload, testSecret, time.Now().Add(-time.Hour)))
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}
