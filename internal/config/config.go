// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string
	CookieSecure bool
	Auth         AuthConfig
	Bootstrap    BootstrapConfig
}

type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
	// PAMService names the PAM stack used for users flagged for external
	// authentication. Empty disables external authentication.
	PAMService         string
	EncryptedPasswords bool
	LoginRatePerSecond float64
	LoginBurst         int
}

// BootstrapConfig describes the first org and admin created on an empty database.
type BootstrapConfig struct {
	OrgName       string
	AdminLogin    string
	AdminPassword string
}

// Enabled reports whether a bootstrap admin was requested.
func (b BootstrapConfig) Enabled() bool {
	return b.OrgName != "" && b.AdminLogin != "" && b.AdminPassword != ""
}

// Load reads configuration from environment variables (optionally .env).
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:         getString("PORT", "8080"),
		DatabasePath: getString("DATABASE_PATH", "sysmgr.db"),
		LogLevel:     getString("LOG_LEVEL", "info"),
		// Default to secure cookies; disable only for local development.
		CookieSecure: getBool("COOKIE_SECURE", true),
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			PAMService:         strings.TrimSpace(os.Getenv("WEB_PAM_AUTH_SERVICE")),
			EncryptedPasswords: getBool("WEB_ENCRYPTED_PASSWORDS", true),
			LoginRatePerSecond: getFloat("LOGIN_RATE_PER_SECOND", 0.2),
			LoginBurst:         getInt("LOGIN_BURST", 5),
		},
		Bootstrap: BootstrapConfig{
			OrgName:       os.Getenv("BOOTSTRAP_ORG"),
			AdminLogin:    os.Getenv("BOOTSTRAP_ADMIN_LOGIN"),
			AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}

	cost, err := strconv.Atoi(getString("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	cfg.Auth.BcryptCost = cost

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.LoginBurst < 1 {
		return fmt.Errorf("LOGIN_BURST must be positive, got %d", c.Auth.LoginBurst)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
