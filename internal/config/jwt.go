package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWTConfig holds configuration for validating the bearer tokens issued by the auth service.
// ExpirationHours only applies to tokens minted locally for development.
type JWTConfig struct {
	Secret          string
	Issuer          string        // Expected "iss" claim; empty accepts any issuer
	Leeway          time.Duration // Clock skew tolerated on exp/nbf
	ExpirationHours int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_ISSUER, JWT_LEEWAY_SECONDS (default: 30) and
// JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours, err := envInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	leewaySeconds, err := envInt("JWT_LEEWAY_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:          secret,
		Issuer:          os.Getenv("JWT_ISSUER"),
		Leeway:          time.Duration(leewaySeconds) * time.Second,
		ExpirationHours: expirationHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return v, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("JWT_LEEWAY_SECONDS must be non-negative, got: %d", int(c.Leeway.Seconds()))
	}
	return nil
}
