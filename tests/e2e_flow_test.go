package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridelab/stridefit/internal/config"
	"github.com/stridelab/stridefit/internal/infrastructure/stripe"
	"github.com/stridelab/stridefit/internal/server"
)

const testWebhookSecret = "whsec_test_secret"

func TestStorefrontGoldenPath(t *testing.T) {
	// 1. Setup Infrastructure
	db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	provider := NewRecordingCheckoutProvider()

	cfg := &config.Config{}
	cfg.Server.MaxUploadSizeMB = 10
	cfg.Server.CORSOrigins = "http://localhost:3000"
	cfg.JWT.Secret = "test-secret-key-123"
	cfg.Stripe.WebhookSecret = testWebhookSecret

	// 2. Initialize App
	app := server.NewApp(server.AppDependencies{
		Config:           cfg,
		MongoDB:          db,
		RedisClient:      redisClient,
		CheckoutProvider: provider,
	})

	// Helper for requests; every call carries the same cart cookie so
	// the whole test behaves like one browser session
	const cartCookie = "cart_session=01TESTSESSION0000000000000"
	request := func(method, path, token string, body interface{}) *http.Response {
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, _ := http.NewRequest(method, path, bodyReader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Cookie", cartCookie)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	decode := func(resp *http.Response) map[string]interface{} {
		var envelope map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		return envelope
	}

	adminToken := MintAdminToken(t, cfg.JWT.Secret)

	// ==========================================
	// STEP 1: Admin seeds the catalog
	// ==========================================
	resp := request("POST", "/api/admin/catalog", adminToken, map[string]interface{}{
		"id":          "training-plan",
		"name":        "Training Plan",
		"description": "Adaptive running plan",
		"kind":        "subscription",
		"price_cents": 1999,
	})
	assert.Equal(t, 201, resp.StatusCode)

	resp = request("POST", "/api/admin/catalog", adminToken, map[string]interface{}{
		"id":          "race-day-kit",
		"name":        "Race Day Kit",
		"description": "Digital race-prep bundle",
		"kind":        "one_time",
		"price_cents": 9900,
	})
	assert.Equal(t, 201, resp.StatusCode)

	// Admin routes reject anonymous callers
	resp = request("POST", "/api/admin/catalog", "", map[string]interface{}{"id": "x"})
	assert.Equal(t, 401, resp.StatusCode)

	fmt.Println("✓ Catalog Seeded")

	// ==========================================
	// STEP 2: Public catalog shows derived yearly pricing
	// ==========================================
	resp = request("GET", "/api/catalog", "", nil)
	assert.Equal(t, 200, resp.StatusCode)

	catalog := decode(resp)
	products := catalog["data"].([]interface{})
	require.Len(t, products, 2)
	for _, raw := range products {
		p := raw.(map[string]interface{})
		if p["id"] == "training-plan" {
			// 1999 * 12 * 0.8 = 19190.4 -> 19190
			assert.EqualValues(t, 19190, p["yearly_price_cents"])
		}
	}

	fmt.Println("✓ Catalog Listed")

	// ==========================================
	// STEP 3: Build the cart
	// ==========================================
	// Subscriptions default to yearly billing
	resp = request("POST", "/api/cart/items", "", map[string]interface{}{
		"product_id": "training-plan",
	})
	assert.Equal(t, 201, resp.StatusCode)

	cart := decode(resp)["data"].(map[string]interface{})
	items := cart["items"].([]interface{})
	require.Len(t, items, 1)
	planItem := items[0].(map[string]interface{})
	planItemID := planItem["id"].(string)
	assert.Equal(t, "year", planItem["interval"])
	assert.Equal(t, true, planItem["yearly_discount_applied"])
	assert.EqualValues(t, 19190, cart["total_cents"])

	// Switching to monthly recovers the exact catalog price
	resp = request("PATCH", "/api/cart/items/"+planItemID+"/interval", "", map[string]interface{}{
		"interval": "month",
	})
	assert.Equal(t, 200, resp.StatusCode)
	cart = decode(resp)["data"].(map[string]interface{})
	assert.EqualValues(t, 1999, cart["total_cents"])

	// And back to yearly with no drift
	resp = request("PATCH", "/api/cart/items/"+planItemID+"/interval", "", map[string]interface{}{
		"interval": "year",
	})
	assert.Equal(t, 200, resp.StatusCode)
	cart = decode(resp)["data"].(map[string]interface{})
	assert.EqualValues(t, 19190, cart["total_cents"])

	// One-time item joins the cart unchanged
	resp = request("POST", "/api/cart/items", "", map[string]interface{}{
		"product_id": "race-day-kit",
	})
	assert.Equal(t, 201, resp.StatusCode)
	cart = decode(resp)["data"].(map[string]interface{})
	assert.EqualValues(t, 19190+9900, cart["total_cents"])

	// Mark the subscription as a gift
	resp = request("PATCH", "/api/cart/items/"+planItemID+"/gift", "", map[string]interface{}{
		"recipient": map[string]string{
			"name":    "Jamie",
			"email":   "jamie@example.com",
			"message": "Happy marathon training!",
		},
	})
	assert.Equal(t, 200, resp.StatusCode)

	fmt.Println("✓ Cart Built")

	// ==========================================
	// STEP 4: Checkout creates a pending order
	// ==========================================
	resp = request("POST", "/api/checkout/", "", map[string]interface{}{
		"email": "buyer@example.com",
	})
	assert.Equal(t, 201, resp.StatusCode)

	checkoutData := decode(resp)["data"].(map[string]interface{})
	orderID := checkoutData["order_id"].(string)
	sessionID := checkoutData["session_id"].(string)
	require.NotEmpty(t, orderID)
	assert.Equal(t, "cs_test_"+orderID, sessionID)
	assert.EqualValues(t, 19190+9900, checkoutData["amount_cents"])
	assert.Equal(t, "subscription", checkoutData["mode"])

	// The provider saw catalog-derived amounts, not client input
	last := provider.LastRequest()
	require.NotNil(t, last)
	assert.Equal(t, "buyer@example.com", last.CustomerEmail)
	require.Len(t, last.LineItems, 2)

	resp = request("GET", "/api/checkout/orders/"+orderID, "", nil)
	assert.Equal(t, 200, resp.StatusCode)
	orderData := decode(resp)["data"].(map[string]interface{})
	assert.Equal(t, "pending", orderData["status"])

	fmt.Println("✓ Checkout Session Created:", sessionID)

	// ==========================================
	// STEP 5: Signed webhook completes the order
	// ==========================================
	event := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  sessionID,
				"client_reference_id": orderID,
				"customer_email":      "buyer@example.com",
				"payment_status":      "paid",
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	sendWebhook := func(signature string) *http.Response {
		req, _ := http.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", signature)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	// Wrong secret is rejected
	resp = sendWebhook(stripe.SignPayload(payload, time.Now(), "whsec_wrong"))
	assert.Equal(t, 401, resp.StatusCode)

	// Properly signed event fulfills the order
	resp = sendWebhook(stripe.SignPayload(payload, time.Now(), testWebhookSecret))
	assert.Equal(t, 200, resp.StatusCode)

	resp = request("GET", "/api/checkout/orders/"+orderID, "", nil)
	orderData = decode(resp)["data"].(map[string]interface{})
	assert.Equal(t, "paid", orderData["status"])

	// A retried webhook is a no-op, not a double grant
	resp = sendWebhook(stripe.SignPayload(payload, time.Now(), testWebhookSecret))
	assert.Equal(t, 200, resp.StatusCode)

	fmt.Println("✓ Order Paid via Webhook")

	// ==========================================
	// STEP 6: Fulfillment side effects
	// ==========================================
	// The buyer got access for the one-time purchase only; the gifted
	// subscription became a redeemable gift instead
	var giftDoc map[string]interface{}
	err = db.Collection("gift_subscriptions").FindOne(context.Background(), map[string]interface{}{
		"order_id": orderID,
	}).Decode(&giftDoc)
	require.NoError(t, err)
	redeemCode := giftDoc["redeem_code"].(string)
	require.NotEmpty(t, redeemCode)
	assert.Equal(t, "pending", giftDoc["status"])
	assert.EqualValues(t, 12, giftDoc["months_granted"])

	// Cart was cleared exactly once checkout succeeded
	resp = request("GET", "/api/cart/", "", nil)
	cart = decode(resp)["data"].(map[string]interface{})
	assert.EqualValues(t, 0, cart["total_cents"])
	assert.Empty(t, cart["items"])

	fmt.Println("✓ Gift Created, Cart Cleared")

	// ==========================================
	// STEP 7: Recipient redeems the gift
	// ==========================================
	resp = request("GET", "/api/gifts/"+redeemCode, "", nil)
	assert.Equal(t, 200, resp.StatusCode)
	giftData := decode(resp)["data"].(map[string]interface{})
	assert.Equal(t, "Jamie", giftData["recipient_name"])

	resp = request("POST", "/api/gifts/"+redeemCode+"/redeem", "", map[string]interface{}{
		"email": "jamie@example.com",
		"name":  "Jamie",
	})
	assert.Equal(t, 200, resp.StatusCode)

	var userDoc map[string]interface{}
	err = db.Collection("users").FindOne(context.Background(), map[string]interface{}{
		"email": "jamie@example.com",
	}).Decode(&userDoc)
	require.NoError(t, err)
	require.NotNil(t, userDoc["subscription_end_date"], "redeemed gift must grant subscription time")

	// The code only works once
	resp = request("POST", "/api/gifts/"+redeemCode+"/redeem", "", map[string]interface{}{
		"email": "other@example.com",
	})
	assert.Equal(t, 409, resp.StatusCode)

	fmt.Println("✓ Gift Redeemed")
}

func TestCheckoutExpiryKeepsCart(t *testing.T) {
	db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	provider := NewRecordingCheckoutProvider()

	cfg := &config.Config{}
	cfg.Server.MaxUploadSizeMB = 10
	cfg.Server.CORSOrigins = "http://localhost:3000"
	cfg.JWT.Secret = "test-secret-key-123"
	cfg.Stripe.WebhookSecret = testWebhookSecret

	app := server.NewApp(server.AppDependencies{
		Config:           cfg,
		MongoDB:          db,
		RedisClient:      redisClient,
		CheckoutProvider: provider,
	})

	const cartCookie = "cart_session=01TESTSESSION0000000000001"
	request := func(method, path string, body interface{}) *http.Response {
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, _ := http.NewRequest(method, path, bodyReader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Cookie", cartCookie)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	decode := func(resp *http.Response) map[string]interface{} {
		var envelope map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		return envelope
	}

	adminToken := MintAdminToken(t, cfg.JWT.Secret)
	req, _ := http.NewRequest("POST", "/api/admin/catalog", bytes.NewReader([]byte(
		`{"id":"full-coaching","name":"Full Coaching","kind":"subscription","price_cents":14900}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	resp = request("POST", "/api/cart/items", map[string]interface{}{
		"product_id": "full-coaching",
		"interval":   "month",
	})
	require.Equal(t, 201, resp.StatusCode)

	resp = request("POST", "/api/checkout/", map[string]interface{}{
		"email": "runner@example.com",
	})
	require.Equal(t, 201, resp.StatusCode)
	checkoutData := decode(resp)["data"].(map[string]interface{})
	orderID := checkoutData["order_id"].(string)
	sessionID := checkoutData["session_id"].(string)

	event := map[string]interface{}{
		"id":   "evt_test_2",
		"type": "checkout.session.expired",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  sessionID,
				"client_reference_id": orderID,
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	whReq, _ := http.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(payload))
	whReq.Header.Set("Content-Type", "application/json")
	whReq.Header.Set("Stripe-Signature", stripe.SignPayload(payload, time.Now(), testWebhookSecret))
	resp, err = app.Test(whReq, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// The order expired but the cart survived for a retry
	resp = request("GET", "/api/checkout/orders/"+orderID, nil)
	orderData := decode(resp)["data"].(map[string]interface{})
	assert.Equal(t, "expired", orderData["status"])

	resp = request("GET", "/api/cart/", nil)
	cart := decode(resp)["data"].(map[string]interface{})
	items := cart["items"].([]interface{})
	assert.Len(t, items, 1, "expired checkout must not drop the cart")
	assert.EqualValues(t, 14900, cart["total_cents"])
}
