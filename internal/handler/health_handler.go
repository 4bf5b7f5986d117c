package handler

import (
	"context"
	"net/http"
	"time"

	"classboard/internal/repository"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store  repository.HealthChecker
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store repository.HealthChecker, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		respondError(w, r, h.logger, errors.NewStoreError("store unavailable", err))
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Store:     "ok",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "classboard",
	})
}
