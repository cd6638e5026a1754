package secrets

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LoadString loads a secret as a string with optional fallback
func LoadString(ctx context.Context, m Manager, key, fallback string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// LoadStringRequired loads a required secret (fails if not found)
func LoadStringRequired(ctx context.Context, m Manager, key string) (string, error) {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return "", fmt.Errorf("required secret %s not found: %w", key, err)
	}
	if value == "" {
		return "", fmt.Errorf("required secret %s is empty", key)
	}
	return value, nil
}

// Fill loads every key whose target is still empty. Keys the manager does not
// know are left empty so configuration validation can report them together.
// It returns the keys that were filled.
func Fill(ctx context.Context, m Manager, targets map[string]*string) ([]string, error) {
	var filled []string
	for key, target := range targets {
		if *target != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		if value := LoadString(ctx, m, key, ""); value != "" {
			*target = value
			filled = append(filled, key)
		}
	}
	if len(filled) > 0 {
		log.Printf("🔐 Loaded %d secrets from the secrets manager", len(filled))
	}
	return filled, nil
}

// AutoDetectBackend determines the secrets backend from environment
func AutoDetectBackend() string {
	if getEnvBool("AWS_SECRETS_MANAGER_ENABLED") {
		return "aws-secrets-manager"
	}

	// Running in AWS (has AWS-specific env vars)
	if getEnv("AWS_REGION") != "" && getEnv("AWS_EXECUTION_ENV") != "" {
		return "aws-secrets-manager"
	}

	return "env"
}

// AutoDetectConfig creates a config with auto-detected backend
func AutoDetectConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = AutoDetectBackend()
	cfg.Prefix = getEnv("AWS_SECRETS_PREFIX")
	if region := getEnv("AWS_REGION"); region != "" {
		cfg.AWSRegion = region
	}
	if ttl, err := time.ParseDuration(getEnv("AWS_SECRETS_CACHE_TTL")); err == nil {
		cfg.CacheDuration = ttl
	}
	return cfg
}

// Helper functions (not exported)
func getEnv(key string) string {
	return os.Getenv(key)
}

func getEnvBool(key string) bool {
	value := os.Getenv(key)
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}
