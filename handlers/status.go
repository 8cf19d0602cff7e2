package handlers

import (
	"net/http"

	"jarvisomega.app/cloud/internal/config"
)

type StatusResponse struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Service:   s.serviceName(),
		Status:    "online",
		Version:   s.Version,
		Timestamp: s.timestamp(),
	})
}

type IndexResponse struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Service: s.serviceName() + " API",
		Status:  "online",
		Endpoints: map[string]string{
			"status":   StatusPath,
			"validate": ValidatePath + " (POST)",
			"checkout": CheckoutPath + " (POST)",
		},
	})
}

func (s *Server) serviceName() string {
	if s.Config == nil || s.Config.ServiceName == "" {
		return config.DefaultServiceName
	}
	return s.Config.ServiceName
}
