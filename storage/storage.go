package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"jarvisomega.app/cloud/internal/logger"
	"jarvisomega.app/cloud/models"
)

var ErrNotFound = errors.New("license not found")

// Repository looks up license records by key. Implementations are read-only.
type Repository interface {
	FindLicenseByKey(ctx context.Context, key string) (*models.License, error)
}

type LicenseList []models.License

// MemoryStorage holds a fixed license table. It is never mutated after
// construction, so concurrent lookups need no locking.
type MemoryStorage struct {
	licenses map[string]models.License
}

func NewMemoryStorage(licenses LicenseList) (*MemoryStorage, error) {
	table := make(map[string]models.License, len(licenses))
	for _, license := range licenses {
		if license.Key == "" {
			return nil, errors.New("license with empty key")
		}
		if _, exists := table[license.Key]; exists {
			return nil, fmt.Errorf("duplicate license key %s", license.Key)
		}
		if _, err := license.ExpiresAt(); err != nil {
			return nil, fmt.Errorf("license %s: %w", license.Key, err)
		}
		table[license.Key] = license
	}
	return &MemoryStorage{licenses: table}, nil
}

func (m *MemoryStorage) FindLicenseByKey(ctx context.Context, key string) (*models.License, error) {
	license, exists := m.licenses[key]
	if !exists {
		return nil, ErrNotFound
	}
	return &license, nil
}

func (m *MemoryStorage) Len() int {
	return len(m.licenses)
}

// DemoLicenses is the built-in table used when no license file is configured.
func DemoLicenses() LicenseList {
	return LicenseList{
		{
			Key:        "DEMO-PRO-2026",
			Email:      "demo@jarvisomega.com",
			Tier:       models.TierPro,
			Expires:    "2027-12-31",
			Status:     models.StatusActive,
			MaxDevices: 2,
		},
		{
			Key:        "DEMO-BUSINESS-2026",
			Email:      "business@jarvisomega.com",
			Tier:       models.TierBusiness,
			Expires:    "2027-12-31",
			Status:     models.StatusActive,
			MaxDevices: 5,
		},
	}
}

func NewDemoStorage() *MemoryStorage {
	s, err := NewMemoryStorage(DemoLicenses())
	if err != nil {
		panic(fmt.Sprintf("demo license table: %v", err))
	}
	return s
}

// LoadFile reads a JSON array of licenses once and serves it from memory.
func LoadFile(path string) (*MemoryStorage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open license file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close license file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}()

	var licenses LicenseList
	if err := json.NewDecoder(file).Decode(&licenses); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	s, err := NewMemoryStorage(licenses)
	if err != nil {
		return nil, fmt.Errorf("invalid license file %s: %w", path, err)
	}

	logger.Info("License table loaded", map[string]interface{}{
		"path":     path,
		"licenses": s.Len(),
	})
	return s, nil
}

// New returns the file-backed table when path is set and the demo table
// otherwise.
func New(path string) (Repository, error) {
	if path == "" {
		return NewDemoStorage(), nil
	}
	return LoadFile(path)
}
