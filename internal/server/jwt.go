package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/server/middleware"
)

// Token types carried in the "type" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa.
var ErrWrongTokenType = errors.New("wrong token type")

// Claims are the JWT claims issued by GhostPen.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

// GetUserID implements middleware.UserIDGetter.
func (c *Claims) GetUserID() uuid.UUID {
	return c.UserID
}

// JWTService issues and validates HS256 token pairs.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{config: cfg, now: time.Now}
}

// GenerateToken signs a token of tokenType for user.
func (s *JWTService) GenerateToken(user *TokenSubject, tokenType string) (string, error) {
	ttl := s.config.Access
	if tokenType == TokenRefresh {
		ttl = s.config.Refresh
	}
	now := s.now()

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TokenSubject is the identity encoded into a token.
type TokenSubject struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// GeneratePair signs an access and a refresh token for user.
func (s *JWTService) GeneratePair(user *TokenSubject) (access, refresh string, err error) {
	if access, err = s.GenerateToken(user, TokenAccess); err != nil {
		return "", "", err
	}
	if refresh, err = s.GenerateToken(user, TokenRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ValidateToken parses tokenString and checks that it is of wantType.
func (s *JWTService) ValidateToken(tokenString, wantType string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("token from another issuer: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.Type, wantType)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token has no user id")
	}
	return claims, nil
}

// AccessValidator adapts the service to middleware.TokenValidator; only
// access tokens are accepted.
func (s *JWTService) AccessValidator() middleware.TokenValidator {
	return accessValidator{s}
}

type accessValidator struct{ s *JWTService }

func (v accessValidator) ValidateToken(tokenString string) (middleware.UserIDGetter, error) {
	claims, err := v.s.ValidateToken(tokenString, TokenAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
