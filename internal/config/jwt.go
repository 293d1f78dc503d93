package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinProductionSecretLength is the shortest JWT secret accepted in production.
const MinProductionSecretLength = 32

// DefaultIssuer is the "iss" claim of issued tokens when JWT_ISSUER is unset.
const DefaultIssuer = "ghostpen"

// JWTConfig holds the signing secret and token lifetimes.
type JWTConfig struct {
	Secret  string
	Issuer  string
	Access  time.Duration
	Refresh time.Duration
}

// NewJWTConfig reads JWT_SECRET (required), JWT_ISSUER, JWT_EXPIRATION_HOURS
// (default 24) and JWT_REFRESH_DAYS (default 7). Outside development and
// staging the secret must be at least MinProductionSecretLength long.
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if os.Getenv("ENVIRONMENT") == EnvProduction && len(secret) < MinProductionSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters in production", MinProductionSecretLength)
	}

	hours, err := intFromEnv("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	if hours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", hours)
	}
	days, err := intFromEnv("JWT_REFRESH_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("JWT_REFRESH_DAYS must be at least 1 day, got: %d", days)
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &JWTConfig{
		Secret:  secret,
		Issuer:  issuer,
		Access:  time.Duration(hours) * time.Hour,
		Refresh: time.Duration(days) * 24 * time.Hour,
	}, nil
}

func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}
