// Package payments puts the payment processor behind a small interface so
// handlers can be exercised without network access.
package payments

import (
	"context"
	"errors"
)

// TrialPeriodDays is the free trial attached to every subscription checkout.
const TrialPeriodDays = 14

var ErrMissingCredential = errors.New("payment processor credential not configured")

type CheckoutRequest struct {
	PriceID    string
	Plan       string
	Billing    string
	SuccessURL string
	CancelURL  string
}

// CheckoutCreator creates a subscription-mode checkout session and returns
// its identifier. Implementations make exactly one remote call and never
// retry.
type CheckoutCreator interface {
	CreateSubscriptionCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// ProviderError is a failure reported by the processor. Type carries the
// processor's error category when it supplied one.
type ProviderError struct {
	Message string
	Type    string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Type == "" {
		return "payment provider: " + e.Message
	}
	return "payment provider (" + e.Type + "): " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
