package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"jarvisomega.app/cloud/internal/logger"
	"jarvisomega.app/cloud/internal/payments"
)

const (
	defaultPlan    = "pro"
	defaultBilling = "monthly"
)

type CheckoutRequest struct {
	Plan    string `json:"plan"`
	Billing string `json:"billing"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

type CheckoutErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func (s *Server) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if s.Config == nil || s.Config.StripeSecretKey == "" {
		s.checkoutMisconfigured(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Plan == "" {
		req.Plan = defaultPlan
	}
	if req.Billing == "" {
		req.Billing = defaultBilling
	}

	priceKey, priceID, ok := s.Config.PriceID(req.Plan, req.Billing)
	if !ok {
		logger.Warn("Price not configured", map[string]interface{}{
			"price_config": priceKey,
			"plan":         req.Plan,
			"billing":      req.Billing,
		})
		writeErrorResponse(w, http.StatusBadRequest, "Price not found: "+priceKey)
		return
	}

	logger.Info("Creating checkout session", map[string]interface{}{
		"plan":     req.Plan,
		"billing":  req.Billing,
		"price_id": priceID,
	})

	sessionID, err := s.Checkout.CreateSubscriptionCheckout(r.Context(), payments.CheckoutRequest{
		PriceID:    priceID,
		Plan:       req.Plan,
		Billing:    req.Billing,
		SuccessURL: s.Config.Domain + "/success.html?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.Config.Domain + "/pricing.html",
	})
	if err != nil {
		s.checkoutFailed(w, r, err)
		return
	}

	logger.Info("Checkout session created", map[string]interface{}{
		"session_id": sessionID,
		"plan":       req.Plan,
		"billing":    req.Billing,
	})

	writeJSON(w, http.StatusOK, CheckoutResponse{SessionID: sessionID})
}

func (s *Server) checkoutMisconfigured(w http.ResponseWriter, r *http.Request) {
	logger.Error("STRIPE_SECRET_KEY environment variable not set")
	reportError(r, payments.ErrMissingCredential)
	writeErrorResponse(w, http.StatusInternalServerError, "STRIPE_SECRET_KEY not found in environment variables")
}

func (s *Server) checkoutFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, payments.ErrMissingCredential) {
		s.checkoutMisconfigured(w, r)
		return
	}

	logger.Error("Failed to create checkout session", map[string]interface{}{
		"error": err.Error(),
	})
	reportError(r, err)

	var providerErr *payments.ProviderError
	if errors.As(err, &providerErr) {
		writeJSON(w, http.StatusInternalServerError, CheckoutErrorResponse{
			Error: providerErr.Message,
			Type:  providerErr.Type,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, CheckoutErrorResponse{Error: err.Error()})
}
