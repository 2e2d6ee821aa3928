package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.Equal(t, "checkout-order-1", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "order-1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("customer_email"))

		// recurring subscription line
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "143040", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "Full Coaching", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "year", r.PostForm.Get("line_items[0][price_data][recurring][interval]"))

		// one-time line has no recurring block
		assert.Equal(t, "9900", r.PostForm.Get("line_items[1][price_data][unit_amount]"))
		assert.Empty(t, r.PostForm.Get("line_items[1][price_data][recurring][interval]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_abc","url":"https://checkout.stripe.com/c/pay/cs_test_abc","expires_at":1893456000}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		SecretKey:  "sk_test_123",
		BaseURL:    srv.URL,
		SuccessURL: "https://stridefit.example/checkout/success",
		CancelURL:  "https://stridefit.example/checkout/cancel",
		Currency:   "usd",
	})

	session, err := client.CreateCheckoutSession(context.Background(), SessionRequest{
		OrderID:       "order-1",
		Mode:          "subscription",
		CustomerEmail: "buyer@example.com",
		LineItems: []LineItem{
			{Name: "Full Coaching", AmountCents: 143040, Interval: "year"},
			{Name: "6-Week Shred Challenge", AmountCents: 9900},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", session.URL)
	assert.Equal(t, int64(1893456000), session.ExpiresAt.Unix())
}

func TestCreateCheckoutSessionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test_123", BaseURL: srv.URL, Currency: "xxx"})

	_, err := client.CreateCheckoutSession(context.Background(), SessionRequest{
		OrderID: "order-2",
		Mode:    "payment",
		LineItems: []LineItem{
			{Name: "Challenge", AmountCents: 9900},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	header := SignPayload(payload, now, secret)
	assert.NoError(t, VerifySignature(payload, header, secret, DefaultSignatureTolerance))

	// wrong secret
	assert.Error(t, VerifySignature(payload, header, "whsec_other", DefaultSignatureTolerance))

	// tampered payload
	assert.Error(t, VerifySignature([]byte(`{"id":"evt_2"}`), header, secret, DefaultSignatureTolerance))

	// stale timestamp
	stale := SignPayload(payload, now.Add(-time.Hour), secret)
	assert.Error(t, VerifySignature(payload, stale, secret, DefaultSignatureTolerance))

	// missing / malformed headers
	assert.Error(t, VerifySignature(payload, "", secret, DefaultSignatureTolerance))
	assert.Error(t, VerifySignature(payload, "v1=deadbeef", secret, DefaultSignatureTolerance))
}
