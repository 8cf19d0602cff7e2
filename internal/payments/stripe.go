package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"jarvisomega.app/cloud/internal/logger"
)

type StripeOptions struct {
	// URL overrides the API base URL. Used by tests.
	URL        string
	HTTPClient *http.Client
}

// StripeCheckout creates checkout sessions through the Stripe API.
type StripeCheckout struct {
	secretKey string
	api       *client.API
}

func NewStripeCheckout(secretKey string, opts StripeOptions) *StripeCheckout {
	backendConfig := &stripe.BackendConfig{
		LeveledLogger:     stripeLogger{},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if opts.URL != "" {
		backendConfig.URL = stripe.String(opts.URL)
	}
	if opts.HTTPClient != nil {
		backendConfig.HTTPClient = opts.HTTPClient
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	return &StripeCheckout{
		secretKey: secretKey,
		api:       client.New(secretKey, &stripe.Backends{API: backend}),
	}
}

func (s *StripeCheckout) CreateSubscriptionCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if s.secretKey == "" {
		return "", ErrMissingCredential
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(TrialPeriodDays),
			Metadata: map[string]string{
				"plan":    req.Plan,
				"billing": req.Billing,
			},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", toProviderError(err)
	}
	if session == nil || session.ID == "" {
		return "", &ProviderError{Message: "empty checkout session returned"}
	}

	return session.ID, nil
}

func toProviderError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		message := stripeErr.Msg
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", stripeErr.HTTPStatusCode)
		}
		return &ProviderError{
			Message: message,
			Type:    string(stripeErr.Type),
			Err:     err,
		}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}

// stripeLogger routes SDK diagnostics into the service's JSON log.
type stripeLogger struct{}

func (stripeLogger) Debugf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), map[string]interface{}{"component": "stripe"})
}

func (stripeLogger) Infof(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), map[string]interface{}{"component": "stripe"})
}

func (stripeLogger) Warnf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...), map[string]interface{}{"component": "stripe"})
}

func (stripeLogger) Errorf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...), map[string]interface{}{"component": "stripe"})
}
