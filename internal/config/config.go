package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort        = "8080"
	DefaultDomain      = "https://jarvisomega.vercel.app"
	DefaultServiceName = "JARVIS Omega License Validation"

	pricePrefix = "PRICE_"
)

type Config struct {
	Port string

	// StripeSecretKey may be empty; checkout reports that per request.
	StripeSecretKey string
	// Prices maps PRICE_<PLAN>_<BILLING> to a Stripe price identifier.
	Prices map[string]string
	Domain string

	LicenseFile string
	ServiceName string
	VersionFile string

	LogLevel  string
	SentryDSN string
}

// New loads .env files (the default ./.env when none are given) without
// overriding the process environment, then reads the configuration.
func New(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", port)
	}

	domain := strings.TrimRight(os.Getenv("DOMAIN"), "/")
	if domain == "" {
		domain = DefaultDomain
	}
	if u, err := url.Parse(domain); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid DOMAIN %q: must be an absolute URL", domain)
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	versionFile := os.Getenv("VERSION_FILE")
	if versionFile == "" {
		versionFile = "VERSION"
	}

	return &Config{
		Port:            port,
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Prices:          pricesFromEnviron(os.Environ()),
		Domain:          domain,
		LicenseFile:     os.Getenv("LICENSE_FILE"),
		ServiceName:     serviceName,
		VersionFile:     versionFile,
		LogLevel:        os.Getenv("LOG_LEVEL"),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
	}, nil
}

func loadDotEnv(files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func pricesFromEnviron(environ []string) map[string]string {
	prices := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, pricePrefix) || value == "" {
			continue
		}
		prices[name] = value
	}
	return prices
}

// PriceKey builds the configuration key for a plan and billing interval,
// e.g. ("pro", "monthly") -> PRICE_PRO_MONTHLY.
func PriceKey(plan, billing string) string {
	return pricePrefix + strings.ToUpper(plan) + "_" + strings.ToUpper(billing)
}

// PriceID resolves the price identifier for a plan and billing interval.
// The returned key is the configuration name that was looked up.
func (c *Config) PriceID(plan, billing string) (key, priceID string, ok bool) {
	key = PriceKey(plan, billing)
	priceID, ok = c.Prices[key]
	return key, priceID, ok
}
