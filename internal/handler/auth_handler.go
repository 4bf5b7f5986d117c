package handler

import (
	"net/http"
	"time"

	"classboard/internal/domain"
	"classboard/internal/middleware"
	"classboard/internal/service/auth"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	auth     *auth.Service
	tokenTTL time.Duration
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, tokenTTL time.Duration, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, tokenTTL: tokenTTL, logger: logger}
}

// TokenResponse carries a session token issued in exchange for a Google ID token
type TokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *domain.Identity `json:"user"`
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondError(w, r, h.logger, errors.NewAuthenticationError("User not authenticated"))
		return
	}
	respondJSON(w, http.StatusOK, identity)
}

// IssueToken handles POST /api/auth/token. The bearer must be a Google ID
// token; session tokens cannot be exchanged for new ones.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	bearer, appErr := middleware.BearerToken(r)
	if appErr != nil {
		respondError(w, r, h.logger, appErr)
		return
	}
	identity, err := h.auth.ExchangeGoogleToken(r.Context(), bearer)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	token, err := h.auth.IssueToken(identity, h.tokenTTL)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.WithField("user_id", identity.UserID).Info("Session token issued")
	respondJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(h.tokenTTL),
		User:      identity,
	})
}
