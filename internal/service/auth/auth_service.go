package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"

	"classboard/internal/domain"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

const tokenIssuer = "classboard"

// GoogleValidator verifies a Google ID token for an audience.
type GoogleValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Service turns bearer tokens into identities. It accepts HS256 session
// tokens it issued itself and RS256 ID tokens from Google sign-in.
type Service struct {
	jwtSecret      []byte
	googleClientID string
	validateGoogle GoogleValidator
	policy         *AccessPolicy
	logger         *logger.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(jwtSecret, googleClientID string, policy *AccessPolicy, logger *logger.Logger) *Service {
	return &Service{
		jwtSecret:      []byte(jwtSecret),
		googleClientID: googleClientID,
		validateGoogle: idtoken.Validate,
		policy:         policy,
		logger:         logger,
		now:            time.Now,
	}
}

// Authenticate validates the token and applies the access policy.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	alg, err := s.tokenAlg(token)
	if err != nil {
		return nil, err
	}

	var identity *domain.Identity
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		identity, err = s.validateSessionToken(token)
	case jwt.SigningMethodRS256.Alg():
		identity, err = s.validateGoogleIDToken(ctx, token)
	default:
		s.logger.WithField("alg", alg).Warn("Unsupported token algorithm")
		return nil, errors.NewAuthenticationError("Unsupported token algorithm")
	}
	if err != nil {
		return nil, err
	}
	return s.authorize(identity)
}

// ExchangeGoogleToken accepts only a Google ID token. Session tokens are
// refused so they cannot be renewed without signing in again.
func (s *Service) ExchangeGoogleToken(ctx context.Context, token string) (*domain.Identity, error) {
	alg, err := s.tokenAlg(token)
	if err != nil {
		return nil, err
	}
	if alg != jwt.SigningMethodRS256.Alg() {
		return nil, errors.NewAuthenticationError("A Google ID token is required")
	}
	identity, err := s.validateGoogleIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.authorize(identity)
}

func (s *Service) tokenAlg(token string) (string, error) {
	if token == "" {
		return "", errors.NewAuthenticationError("Missing token")
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		s.logger.WithError(err).Debug("Unrecognized token format")
		return "", errors.NewAuthenticationError("Unrecognized token format")
	}
	return parsed.Method.Alg(), nil
}

func (s *Service) authorize(identity *domain.Identity) (*domain.Identity, error) {
	if !s.policy.Allowed(identity.Email) {
		s.logger.WithField("user_id", identity.UserID).Info("Email outside allowed domain")
		return nil, errors.NewAuthorizationError("This app is restricted to the university domain")
	}
	identity.Role = domain.RoleStudent
	if s.policy.IsAdmin(identity.Email) {
		identity.Role = domain.RoleAdmin
	}
	return identity, nil
}

// IssueToken signs an HS256 session token for an identity.
func (s *Service) IssueToken(identity *domain.Identity, ttl time.Duration) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errors.NewInternalError("Session tokens are not configured", nil)
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"email": identity.Email,
		"name":  identity.Name,
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.NewInternalError("Failed to sign token", err)
	}
	return signed, nil
}

func (s *Service) validateSessionToken(tokenString string) (*domain.Identity, error) {
	if len(s.jwtSecret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Failed to validate session token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewAuthenticationError("Invalid token claims")
	}
	return identityFromClaims(claims)
}

func (s *Service) validateGoogleIDToken(ctx context.Context, token string) (*domain.Identity, error) {
	if s.googleClientID == "" {
		s.logger.Error("GOOGLE_CLIENT_ID not configured")
		return nil, errors.NewAuthenticationError("Google sign-in not configured")
	}

	payload, err := s.validateGoogle(ctx, token, s.googleClientID)
	if err != nil {
		s.logger.WithError(err).Debug("Google ID token rejected")
		return nil, errors.NewAuthenticationError("Invalid Google token")
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.NewAuthenticationError("Google email is not verified")
	}

	return identityFromClaims(jwt.MapClaims(payload.Claims))
}

func identityFromClaims(claims jwt.MapClaims) (*domain.Identity, error) {
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no email")
	}
	// Votes are keyed by the voter's email so a voter keeps one record
	// whichever token type they present.
	return &domain.Identity{UserID: email, Email: email, Name: name}, nil
}
