package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jarvisomega.app/cloud/handlers"
	"jarvisomega.app/cloud/internal/config"
	"jarvisomega.app/cloud/internal/payments"
	"jarvisomega.app/cloud/internal/testutil"
	"jarvisomega.app/cloud/storage"
)

// End-to-end: real router, real Stripe adapter pointed at a fake Stripe API.

func newFakeStripe(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("line_items[0][price]") == "price_broken" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "No such price: 'price_broken'"}}`))
			return
		}
		w.Write([]byte(`{"id": "cs_test_integration", "object": "checkout.session"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newIntegrationServer(t *testing.T, stripeURL string) *handlers.Server {
	t.Helper()

	cfg := testutil.TestConfig()
	cfg.Prices["PRICE_BROKEN_MONTHLY"] = "price_broken"
	checkout := payments.NewStripeCheckout(cfg.StripeSecretKey, payments.StripeOptions{URL: stripeURL})

	return handlers.NewHttpServer(cfg, storage.NewDemoStorage(), checkout, "1.0.0", handlers.WithClock(testutil.FixedClock))
}

func TestFullWorkflow_StatusCheckoutValidate(t *testing.T) {
	var calls int32
	stripeAPI := newFakeStripe(t, &calls)
	server := newIntegrationServer(t, stripeAPI.URL)

	// Step 1: client checks the service is up.
	w := testutil.Do(t, server, http.MethodGet, handlers.StatusPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", testutil.DecodeBody(t, w)["status"])

	// Step 2: pricing page starts a checkout.
	w = testutil.Do(t, server, http.MethodPost, handlers.CheckoutPath, map[string]string{"plan": "pro", "billing": "monthly"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cs_test_integration", testutil.DecodeBody(t, w)["sessionId"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Step 3: desktop app validates its key.
	w = testutil.Do(t, server, http.MethodPost, handlers.ValidatePath, map[string]string{
		"license_key": "DEMO-PRO-2026",
		"device_id":   "device-abc",
		"app_version": "1.0.0",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.DecodeBody(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "pro", body["tier"])
	assert.Equal(t, "device-abc", body["device_id"])
	assert.Equal(t, "1.0.0", body["app_version"])
}

func TestCheckout_MissingPriceNeverReachesStripe(t *testing.T) {
	var calls int32
	stripeAPI := newFakeStripe(t, &calls)
	server := newIntegrationServer(t, stripeAPI.URL)

	w := testutil.Do(t, server, http.MethodPost, handlers.CheckoutPath, map[string]string{"plan": "gold", "billing": "daily"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Price not found: PRICE_GOLD_DAILY", testutil.DecodeBody(t, w)["error"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCheckout_StripeErrorSurfaced(t *testing.T) {
	var calls int32
	stripeAPI := newFakeStripe(t, &calls)
	server := newIntegrationServer(t, stripeAPI.URL)

	w := testutil.Do(t, server, http.MethodPost, handlers.CheckoutPath, map[string]string{"plan": "broken", "billing": "monthly"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	testutil.AssertCORSHeaders(t, w, "POST, OPTIONS")
	assert.Equal(t, map[string]interface{}{
		"error": "No such price: 'price_broken'",
		"type":  "invalid_request_error",
	}, testutil.DecodeBody(t, w))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLicenseFileReplacesDemoTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "licenses.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"license_key": "CUSTOMER-001", "email": "c@example.com", "tier": "business", "expires": "2030-06-30", "status": "active", "max_devices": 3}
	]`), 0o600))

	repo, err := storage.New(path)
	require.NoError(t, err)

	server := handlers.NewHttpServer(testutil.TestConfig(), repo, &testutil.MockCheckout{}, "1.0.0", handlers.WithClock(testutil.FixedClock))

	w := testutil.Do(t, server, http.MethodPost, handlers.ValidatePath, map[string]string{"license_key": "CUSTOMER-001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "business", testutil.DecodeBody(t, w)["tier"])

	w = testutil.Do(t, server, http.MethodPost, handlers.ValidatePath, map[string]string{"license_key": "DEMO-PRO-2026"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfigDrivenPrices(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("PRICE_TEAM_QUARTERLY", "price_team_q")
	t.Setenv("DOMAIN", "https://shop.example.com")
	t.Setenv("PORT", "")

	_, err := config.New(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err, "an explicit env file must exist")

	cfg, err := config.New()
	require.NoError(t, err)

	checkout := &testutil.MockCheckout{}
	checkout.On("CreateSubscriptionCheckout", mock.Anything, payments.CheckoutRequest{
		PriceID:    "price_team_q",
		Plan:       "team",
		Billing:    "quarterly",
		SuccessURL: "https://shop.example.com/success.html?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example.com/pricing.html",
	}).Return("cs_team", nil).Once()

	server := handlers.NewHttpServer(cfg, storage.NewDemoStorage(), checkout, "1.0.0")

	w := testutil.Do(t, server, http.MethodPost, handlers.CheckoutPath, map[string]string{"plan": "team", "billing": "quarterly"})
	require.Equal(t, http.StatusOK, w.Code)
	checkout.AssertExpectations(t)
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("VERSION", []byte("2.3.4\n"), 0o600))
	t.Setenv("VERSION_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("DOMAIN", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "omega-cloud 2.3.4", strings.TrimSpace(out.String()))
}

func TestResponsesAreJSON(t *testing.T) {
	server := newIntegrationServer(t, "http://127.0.0.1:0")

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, handlers.StatusPath},
		{http.MethodPost, handlers.ValidatePath},
		{http.MethodGet, handlers.ValidatePath},
		{http.MethodGet, handlers.CheckoutPath},
	}

	for _, p := range paths {
		w := testutil.Do(t, server, p.method, p.path, nil)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "%s %s", p.method, p.path)
		assert.True(t, json.Valid(w.Body.Bytes()), "%s %s", p.method, p.path)
	}
}
