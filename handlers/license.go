package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"jarvisomega.app/cloud/internal/logger"
	"jarvisomega.app/cloud/models"
	"jarvisomega.app/cloud/storage"
)

const (
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNoLicenseKey     = "NO_LICENSE_KEY"
	CodeInvalidKey       = "INVALID_KEY"
	CodeLicenseInactive  = "LICENSE_INACTIVE"
	CodeLicenseExpired   = "LICENSE_EXPIRED"
	CodeServerError      = "SERVER_ERROR"
)

// LicenseRequest carries the key to validate. DeviceID and AppVersion are
// echoed back untouched; nil means the caller omitted them.
type LicenseRequest struct {
	LicenseKey string  `json:"license_key"`
	DeviceID   *string `json:"device_id,omitempty"`
	AppVersion *string `json:"app_version,omitempty"`
}

type ValidateResponse struct {
	Valid      bool              `json:"valid"`
	LicenseKey string            `json:"license_key"`
	Tier       string            `json:"tier"`
	Expires    string            `json:"expires"`
	Email      string            `json:"email"`
	MaxDevices int               `json:"max_devices"`
	Features   models.FeatureSet `json:"features"`
	Timestamp  string            `json:"timestamp"`
	DeviceID   *string           `json:"device_id,omitempty"`
	AppVersion *string           `json:"app_version,omitempty"`
}

type ValidateErrorResponse struct {
	Valid       bool   `json:"valid"`
	Error       string `json:"error"`
	Code        string `json:"code"`
	ExpiredDate string `json:"expired_date,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// ValidateLicense checks a key against the license table. Each failed step
// ends the request. max_devices is reported but not enforced.
func (s *Server) ValidateLicense(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req LicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ValidateErrorResponse{
			Error: "Invalid request body",
			Code:  CodeInvalidRequest,
		})
		return
	}

	if req.LicenseKey == "" {
		writeJSON(w, http.StatusBadRequest, ValidateErrorResponse{
			Error: "License key is required",
			Code:  CodeNoLicenseKey,
		})
		return
	}

	license, err := s.Storage.FindLicenseByKey(r.Context(), req.LicenseKey)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("License validation failed", map[string]interface{}{
			"license_key": req.LicenseKey,
			"code":        CodeInvalidKey,
		})
		s.rejectLicense(w, ValidateErrorResponse{
			Error: "Invalid license key",
			Code:  CodeInvalidKey,
		})
		return
	} else if err != nil {
		s.validateFailed(w, r, fmt.Errorf("license lookup: %w", err))
		return
	}

	if !license.IsActive() {
		logger.Info("License validation failed", map[string]interface{}{
			"license_key": req.LicenseKey,
			"code":        CodeLicenseInactive,
			"status":      license.Status,
		})
		s.rejectLicense(w, ValidateErrorResponse{
			Error: "License is " + license.Status,
			Code:  CodeLicenseInactive,
		})
		return
	}

	now := s.now()
	expired, err := license.IsExpired(now)
	if err != nil {
		s.validateFailed(w, r, err)
		return
	}
	if expired {
		logger.Info("License validation failed", map[string]interface{}{
			"license_key": req.LicenseKey,
			"code":        CodeLicenseExpired,
			"expires":     license.Expires,
		})
		s.rejectLicense(w, ValidateErrorResponse{
			Error:       "License expired",
			Code:        CodeLicenseExpired,
			ExpiredDate: license.Expires,
		})
		return
	}

	logger.Info("License validated", map[string]interface{}{
		"license_key": req.LicenseKey,
		"tier":        license.Tier,
	})

	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:      true,
		LicenseKey: license.Key,
		Tier:       license.Tier,
		Expires:    license.Expires,
		Email:      license.Email,
		MaxDevices: license.MaxDevices,
		Features:   models.FeaturesForTier(license.Tier),
		Timestamp:  now.UTC().Format(timestampLayout),
		DeviceID:   req.DeviceID,
		AppVersion: req.AppVersion,
	})
}

func (s *Server) rejectLicense(w http.ResponseWriter, resp ValidateErrorResponse) {
	resp.Timestamp = s.timestamp()
	writeJSON(w, http.StatusForbidden, resp)
}

func (s *Server) validateFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("Validation error", map[string]interface{}{
		"error": err.Error(),
	})
	reportError(r, err)
	writeJSON(w, http.StatusInternalServerError, ValidateErrorResponse{
		Error:     "Server error: " + err.Error(),
		Code:      CodeServerError,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) validateMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ValidateErrorResponse{
		Error: "Method not allowed",
		Code:  CodeMethodNotAllowed,
	})
}
