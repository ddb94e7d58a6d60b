// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"default_secret_key_change_in_production",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"SWEETSHOP_DB_PATH" envDefault:"./data/sweetshop.db"`
	ServerHost string `env:"SWEETSHOP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SWEETSHOP_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SWEETSHOP_ENV" envDefault:"development"`
	LogLevel   string `env:"SWEETSHOP_LOG_LEVEL" envDefault:"info"`

	// Token configuration
	JWTSecret string        `env:"SWEETSHOP_JWT_SECRET,required"`
	JWTExpiry time.Duration `env:"SWEETSHOP_JWT_EXPIRY" envDefault:"24h"`

	// Inventory configuration
	LowStockThreshold int64 `env:"SWEETSHOP_LOW_STOCK_THRESHOLD" envDefault:"5"`

	// Event log retention, in days. Rows older than this are pruned nightly.
	EventRetentionDays int `env:"SWEETSHOP_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Webhook configuration. Endpoints receive HMAC-signed inventory events.
	WebhookURLs   []string `env:"SWEETSHOP_WEBHOOK_URLS" envSeparator:","`
	WebhookSecret string   `env:"SWEETSHOP_WEBHOOK_SECRET"`

	// Seeding configuration
	DoSeed        bool   `env:"SWEETSHOP_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"SWEETSHOP_ADMIN_EMAIL" envDefault:"admin@sweetshop.local"`
	AdminName     string `env:"SWEETSHOP_ADMIN_NAME" envDefault:"Admin"`
	AdminPassword string `env:"SWEETSHOP_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// WebhooksEnabled returns true if at least one webhook endpoint is configured.
func (c Config) WebhooksEnabled() bool {
	return len(c.WebhookURLs) > 0
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate signing secret length
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("SWEETSHOP_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("SWEETSHOP_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("SWEETSHOP_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.JWTExpiry <= 0 {
		return nil, fmt.Errorf("SWEETSHOP_JWT_EXPIRY must be positive, got %s", cfg.JWTExpiry)
	}

	if cfg.DoSeed && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("SWEETSHOP_ADMIN_PASSWORD is required when SWEETSHOP_DO_SEED is set")
	}

	if cfg.WebhooksEnabled() && cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("SWEETSHOP_WEBHOOK_SECRET is required when SWEETSHOP_WEBHOOK_URLS is set")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
