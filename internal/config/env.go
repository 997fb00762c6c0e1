// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "CAMPUS_PORT"
	EnvLogLevel        = "CAMPUS_LOG_LEVEL"
	EnvShutdownTimeout = "CAMPUS_SHUTDOWN_TIMEOUT"
	EnvInstanceID      = "CAMPUS_INSTANCE_ID"

	// Data
	EnvDataDir  = "CAMPUS_DATA_DIR"
	EnvSeedDemo = "CAMPUS_SEED_DEMO"

	// Sessions
	EnvSessionBackend  = "CAMPUS_SESSION_BACKEND"
	EnvSessionTTL      = "CAMPUS_SESSION_TTL"
	EnvRedisURL        = "CAMPUS_REDIS_URL"
	EnvRedisPrefix     = "CAMPUS_REDIS_PREFIX"
	EnvRedisLockPrefix = "CAMPUS_REDIS_LOCK_PREFIX"

	// Dialogue
	EnvAffirmTokens       = "CAMPUS_AFFIRM_TOKENS"
	EnvCancelTokens       = "CAMPUS_CANCEL_TOKENS"
	EnvPathQueryTimeout   = "CAMPUS_PATH_QUERY_TIMEOUT"
	EnvPathCacheTTL       = "CAMPUS_PATH_CACHE_TTL"
	EnvClassifierMinScore = "CAMPUS_CLASSIFIER_MIN_SCORE"
	EnvMaxMessageLength   = "CAMPUS_MAX_MESSAGE_LENGTH"

	// Rate Limits
	EnvSessionRateBurst  = "CAMPUS_SESSION_RATE_BURST"
	EnvSessionRateRefill = "CAMPUS_SESSION_RATE_REFILL"

	// LINE Channel (optional transport)
	EnvLineChannelAccessToken = "CAMPUS_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "CAMPUS_LINE_CHANNEL_SECRET"

	// Sentry Feature
	EnvSentryDSN         = "CAMPUS_SENTRY_DSN"
	EnvSentryEnvironment = "CAMPUS_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "CAMPUS_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken = "CAMPUS_BETTERSTACK_TOKEN"

	// Metrics Auth Feature
	EnvMetricsUsername = "CAMPUS_METRICS_USERNAME"
	EnvMetricsPassword = "CAMPUS_METRICS_PASSWORD"
)
