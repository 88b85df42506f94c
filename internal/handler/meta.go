package handler

import (
	"net/http"
	"time"

	"autohub/internal/httputil"
)

// apiVersion is reported on the root endpoint
const apiVersion = "3.0.0"

// MetaHandler serves the unauthenticated root and health endpoints
type MetaHandler struct{}

// NewMetaHandler creates a new meta handler
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// Root identifies the API
// GET /
func (h *MetaHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Automation Hub API",
		"version": apiVersion,
		"status":  "running",
	})
}

// Health is the liveness probe
// GET /health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
