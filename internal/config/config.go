// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the HTTP server, the campus graph store, sessions and the dialogue engine.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// LINE Channel Configuration (optional; webhook is mounted only when both are set)
	LineChannelToken  string
	LineChannelSecret string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Error Reporting
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Log Shipping
	BetterStackToken string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	InstanceID      string

	// Data Configuration
	DataDir  string // Data directory for the SQLite graph store
	SeedDemo bool   // Seed the sample campus when the store is empty

	// Session Configuration
	SessionBackend  string // "memory" or "redis"
	RedisURL        string
	RedisPrefix     string
	RedisLockPrefix string

	// Dialogue Configuration (embedded)
	Dialogue DialogueConfig
}

// DialogueConfig holds dialogue engine configuration
type DialogueConfig struct {
	// Tokens treated as confirming the current step or accepting an offer
	AffirmTokens []string
	// Tokens treated as abandoning whatever is in progress
	CancelTokens []string

	PathQueryTimeout time.Duration // Bound for a single shortest-path query
	PathCacheTTL     time.Duration // Lifetime of a cached route (0 disables caching)
	SessionTTL       time.Duration // Idle lifetime of a conversation state

	ClassifierMinScore float64 // Minimum BM25 score for the fallback intent ranking
	MaxMessageLength   int     // Longer messages are truncated before classification

	// Rate Limits (Token Bucket Algorithm)
	SessionRateBurst     float64 // Maximum burst messages per session (default: 10)
	SessionRateRefillSec float64 // Tokens refilled per second (default: 1)
}

// DefaultAffirmTokens are the words accepted as "yes" by default.
var DefaultAffirmTokens = []string{
	"yes", "y", "yeah", "yep", "yup", "ok", "okay", "sure", "done",
	"reached", "arrived", "next", "continue", "got it", "i'm here", "im here", "i am here",
}

// DefaultCancelTokens are the words accepted as "stop" by default.
var DefaultCancelTokens = []string{
	"cancel", "stop", "quit", "abort", "never mind", "nevermind", "forget it", "reset",
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken: getEnv(EnvBetterStackToken, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		InstanceID:      getEnv(EnvInstanceID, defaultInstanceID()),

		DataDir:  getEnv(EnvDataDir, getDefaultDataDir()),
		SeedDemo: getBoolEnv(EnvSeedDemo, true),

		SessionBackend:  strings.ToLower(getEnv(EnvSessionBackend, SessionBackendMemory)),
		RedisURL:        getEnv(EnvRedisURL, ""),
		RedisPrefix:     getEnv(EnvRedisPrefix, "campus:session:"),
		RedisLockPrefix: getEnv(EnvRedisLockPrefix, "campus:lock:"),

		Dialogue: DialogueConfig{
			AffirmTokens:         getListEnv(EnvAffirmTokens, DefaultAffirmTokens),
			CancelTokens:         getListEnv(EnvCancelTokens, DefaultCancelTokens),
			PathQueryTimeout:     getDurationEnv(EnvPathQueryTimeout, PathQuery),
			PathCacheTTL:         getDurationEnv(EnvPathCacheTTL, 10*time.Minute),
			SessionTTL:           getDurationEnv(EnvSessionTTL, 30*time.Minute),
			ClassifierMinScore:   getFloatEnv(EnvClassifierMinScore, 0.3),
			MaxMessageLength:     getIntEnv(EnvMaxMessageLength, 500),
			SessionRateBurst:     getFloatEnv(EnvSessionRateBurst, 10.0),
			SessionRateRefillSec: getFloatEnv(EnvSessionRateRefill, 1.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if (c.LineChannelToken == "") != (c.LineChannelSecret == "") {
		errs = append(errs, errors.New("LINE channel token and secret must be set together"))
	}
	if c.MetricsPassword != "" && c.MetricsUsername == "" {
		errs = append(errs, errors.New(EnvMetricsUsername+" is required when a metrics password is set"))
	}
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New(EnvRedisURL+" is required when session backend is redis"))
		}
		sessions := cmp.Or(c.RedisPrefix, "campus:session:")
		locks := cmp.Or(c.RedisLockPrefix, "campus:lock:")
		if strings.HasPrefix(sessions, locks) || strings.HasPrefix(locks, sessions) {
			errs = append(errs, fmt.Errorf("%s and %s must not overlap", EnvRedisPrefix, EnvRedisLockPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q",
			EnvSessionBackend, SessionBackendMemory, SessionBackendRedis, c.SessionBackend))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if err := c.Dialogue.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dialogue config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks dialogue settings
func (d DialogueConfig) Validate() error {
	var errs []error

	if len(d.AffirmTokens) == 0 {
		errs = append(errs, errors.New("affirmation tokens cannot be empty"))
	}
	if len(d.CancelTokens) == 0 {
		errs = append(errs, errors.New("cancel tokens cannot be empty"))
	}
	if d.PathQueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("path query timeout must be positive, got %v", d.PathQueryTimeout))
	}
	if d.PathCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("path cache TTL cannot be negative, got %v", d.PathCacheTTL))
	}
	if d.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session TTL must be positive, got %v", d.SessionTTL))
	}
	if d.ClassifierMinScore < 0 {
		errs = append(errs, fmt.Errorf("classifier min score cannot be negative, got %v", d.ClassifierMinScore))
	}
	if d.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("max message length must be positive, got %d", d.MaxMessageLength))
	}
	if d.SessionRateBurst <= 0 {
		errs = append(errs, fmt.Errorf("session rate burst must be positive, got %v", d.SessionRateBurst))
	}
	if d.SessionRateRefillSec <= 0 {
		errs = append(errs, fmt.Errorf("session rate refill must be positive, got %v", d.SessionRateRefillSec))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DefaultDialogueConfig returns the dialogue settings used when no environment is present.
// Tests and the CLI start from it.
func DefaultDialogueConfig() DialogueConfig {
	return DialogueConfig{
		AffirmTokens:         append([]string(nil), DefaultAffirmTokens...),
		CancelTokens:         append([]string(nil), DefaultCancelTokens...),
		PathQueryTimeout:     PathQuery,
		PathCacheTTL:         10 * time.Minute,
		SessionTTL:           30 * time.Minute,
		ClassifierMinScore:   0.3,
		MaxMessageLength:     500,
		SessionRateBurst:     10,
		SessionRateRefillSec: 1,
	}
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated list, lower-cased and trimmed.
// Empty items are dropped; an all-empty value falls back to the default.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// defaultInstanceID uses the hostname so logs from replicas can be told apart.
func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "local"
	}
	return host
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "campus.db")
}

// HasLineChannel returns true if the LINE webhook transport is configured.
func (c *Config) HasLineChannel() bool {
	return c.LineChannelToken != "" && c.LineChannelSecret != ""
}
