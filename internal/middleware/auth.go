package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"classboard/internal/domain"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for user information in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Authenticator resolves a bearer token to an identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth creates an authentication middleware
func Auth(authService Authenticator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := BearerToken(r)
			if appErr == nil && token == "" {
				appErr = errors.NewAuthenticationError("Authorization header is required")
			}
			if appErr != nil {
				writeErrorResponse(w, r, appErr, logger)
				return
			}

			identity, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				writeErrorResponse(w, r, authFailure(err), logger)
				return
			}

			logger.WithField("user_id", identity.UserID).Debug("User authenticated successfully")
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth creates an optional authentication middleware
// If token is provided, it validates it, otherwise continues without authentication
func OptionalAuth(authService Authenticator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := BearerToken(r)
			if appErr != nil {
				writeErrorResponse(w, r, appErr, logger)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				writeErrorResponse(w, r, authFailure(err), logger)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin rejects callers without the admin role. Must run after Auth.
func RequireAdmin(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			if identity == nil {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authentication required"), logger)
				return
			}
			if !identity.IsAdmin() {
				writeErrorResponse(w, r, errors.NewAuthorizationError("Admin access required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores the caller in ctx
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, UserContextKey, identity)
}

// IdentityFrom returns the authenticated caller or nil
func IdentityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(UserContextKey).(*domain.Identity)
	return identity
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			}).Debug("Request received")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom returns the request id assigned by RequestID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// BearerToken extracts the token from the Authorization header. An absent
// header yields an empty token and no error.
func BearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}

// authFailure keeps policy rejections (403) distinct from bad tokens (401).
func authFailure(err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeAuthorization {
		return appErr
	}
	return errors.NewAuthenticationError("Invalid or expired token")
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Info("Request rejected")

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = RequestIDFrom(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
