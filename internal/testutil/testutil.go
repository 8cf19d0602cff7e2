package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jarvisomega.app/cloud/internal/config"
	"jarvisomega.app/cloud/internal/payments"
	"jarvisomega.app/cloud/models"
	"jarvisomega.app/cloud/storage"
)

// Now is the fixed clock used by handler tests.
var Now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func FixedClock() time.Time {
	return Now
}

// MockCheckout records every call that would reach the payment processor.
type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) CreateSubscriptionCheckout(ctx context.Context, req payments.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var _ payments.CheckoutCreator = (*MockCheckout)(nil)

// TestConfig returns a configuration with a Stripe key and two prices.
func TestConfig() *config.Config {
	return &config.Config{
		Port:            config.DefaultPort,
		StripeSecretKey: "sk_test_123",
		Prices: map[string]string{
			"PRICE_PRO_MONTHLY":      "price_pro_monthly",
			"PRICE_BUSINESS_YEARLY":  "price_business_yearly",
			"PRICE_BUSINESS_MONTHLY": "price_business_monthly",
		},
		Domain:      "https://test.jarvisomega.app",
		ServiceName: config.DefaultServiceName,
	}
}

// TestLicenses extends the demo table with records covering every
// validation outcome.
func TestLicenses() storage.LicenseList {
	return append(storage.DemoLicenses(),
		models.License{
			Key:        "TEST-SUSPENDED",
			Email:      "suspended@example.com",
			Tier:       models.TierPro,
			Expires:    "2030-01-01",
			Status:     models.StatusSuspended,
			MaxDevices: 1,
		},
		models.License{
			Key:        "TEST-REVOKED-EXPIRED",
			Email:      "revoked@example.com",
			Tier:       models.TierBusiness,
			Expires:    "2020-01-01",
			Status:     models.StatusRevoked,
			MaxDevices: 1,
		},
		models.License{
			Key:        "TEST-EXPIRED",
			Email:      "expired@example.com",
			Tier:       models.TierPro,
			Expires:    "2026-10-14",
			Status:     models.StatusActive,
			MaxDevices: 2,
		},
		models.License{
			Key:        "TEST-UNKNOWN-TIER",
			Email:      "unknown@example.com",
			Tier:       "enterprise",
			Expires:    "2030-01-01",
			Status:     models.StatusActive,
			MaxDevices: 10,
		},
		models.License{
			Key:        "TEST-FREE",
			Email:      "free@example.com",
			Tier:       models.TierFree,
			Expires:    "2026-10-16",
			Status:     models.StatusActive,
			MaxDevices: 1,
		},
	)
}

func TestStorage(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	s, err := storage.NewMemoryStorage(TestLicenses())
	require.NoError(t, err)
	return s
}

// Do sends a request through h. A string body is sent verbatim, any other
// non-nil body is JSON-encoded.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeBody decodes a JSON object response.
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// AssertCORSHeaders checks the permissive CORS headers for methods, e.g.
// "POST, OPTIONS".
func AssertCORSHeaders(t *testing.T, w *httptest.ResponseRecorder, methods string) {
	t.Helper()

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, methods, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}
