package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"

	"jarvisomega.app/cloud/internal/logger"
)

// RFC 3339 in UTC with milliseconds, e.g. 2026-10-15T12:00:00.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const maxBodyBytes = int64(65536)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// reportError sends a server-side failure to Sentry. A no-op when Sentry is
// not initialised.
func reportError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
