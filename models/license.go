package models

import (
	"fmt"
	"time"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusRevoked   = "revoked"
	StatusExpired   = "expired"
)

const (
	TierFree     = "free"
	TierPro      = "pro"
	TierBusiness = "business"
)

// ExpiryLayout is the calendar-date format used for license expiration.
const ExpiryLayout = "2006-01-02"

type License struct {
	Key        string `json:"license_key"`
	Email      string `json:"email"`
	Tier       string `json:"tier"`
	Expires    string `json:"expires"`
	Status     string `json:"status"`
	MaxDevices int    `json:"max_devices"`
}

// ExpiresAt returns the expiration date as midnight UTC.
func (l License) ExpiresAt() (time.Time, error) {
	t, err := time.Parse(ExpiryLayout, l.Expires)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration date %q: %w", l.Expires, err)
	}
	return t, nil
}

func (l License) IsActive() bool {
	return l.Status == StatusActive
}

// IsExpired reports whether the expiration date lies strictly before now.
func (l License) IsExpired(now time.Time) (bool, error) {
	expiresAt, err := l.ExpiresAt()
	if err != nil {
		return false, err
	}
	return expiresAt.Before(now), nil
}
