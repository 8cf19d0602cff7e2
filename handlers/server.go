package handlers

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jarvisomega.app/cloud/internal/config"
	"jarvisomega.app/cloud/internal/payments"
	"jarvisomega.app/cloud/storage"
)

const (
	CheckoutPath       = "/api/create-checkout-session"
	StatusPath         = "/api/status"
	ValidatePath       = "/api/validate"
	LegacyStatusPath   = "/api/license/status"
	LegacyValidatePath = "/api/license/validate"
)

type Server struct {
	Mux      *chi.Mux
	Storage  storage.Repository
	Checkout payments.CheckoutCreator
	Config   *config.Config
	Version  string

	now func() time.Time
}

type Option func(*Server)

// WithClock replaces the time source used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func NewHttpServer(cfg *config.Config, db storage.Repository, checkout payments.CheckoutCreator, version string, opts ...Option) *Server {
	s := &Server{
		Mux:      chi.NewRouter(),
		Storage:  db,
		Checkout: checkout,
		Config:   cfg,
		Version:  version,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Mux.Use(middleware.Recoverer)
	s.Mux.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	s.Mux.Use(middleware.RealIP)
	s.Mux.Use(requestLogger)

	s.Mux.Mount("/", endpoint(http.MethodGet, s.Index, methodNotAllowed))

	checkoutEndpoint := endpoint(http.MethodPost, s.CreateCheckoutSession, methodNotAllowed)
	s.Mux.Mount(CheckoutPath, checkoutEndpoint)

	statusEndpoint := endpoint(http.MethodGet, s.Status, methodNotAllowed)
	s.Mux.Mount(StatusPath, statusEndpoint)
	s.Mux.Mount(LegacyStatusPath, statusEndpoint)

	validateEndpoint := endpoint(http.MethodPost, s.ValidateLicense, s.validateMethodNotAllowed)
	s.Mux.Mount(ValidatePath, validateEndpoint)
	s.Mux.Mount(LegacyValidatePath, validateEndpoint)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

// endpoint builds a router serving one method plus OPTIONS pre-flight, with
// CORS headers on every response it writes.
func endpoint(method string, handler, notAllowed http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(corsHeaders(method))
	r.MethodNotAllowed(notAllowed)
	r.Method(method, "/", handler)
	r.Options("/", preflight)
	return r
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}
