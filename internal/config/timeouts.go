// Package config provides centralized timeout constants for the application.
//
// These values are tuned for a conversational request/response cycle:
// a chat message is handled to completion (classification, graph query,
// state update) before the HTTP response is written, so every stage must
// stay well inside the HTTP write timeout.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the HTTP server read timeout. Chat payloads are small JSON bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Must accommodate MessageProcessing + response serialization.
	HTTPWrite = 20 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Dialogue timeouts
const (
	// MessageProcessing bounds the handling of a single chat message,
	// including session load/save and the shortest-path query.
	MessageProcessing = 15 * time.Second

	// PathQuery is the default bound for a single shortest-path query.
	// A query exceeding it is reported to the user like an unreachable destination.
	PathQuery = 2 * time.Second

	// LineReply bounds the LINE reply API call made after processing.
	LineReply = 10 * time.Second
)

// Storage timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour

	// CatalogLoad bounds loading the campus graph at startup.
	CatalogLoad = 30 * time.Second

	// ReadinessCheckTimeout bounds the /readyz dependency probe.
	ReadinessCheckTimeout = 3 * time.Second
)

// Background job intervals
const (
	// MetricsUpdateInterval is how often session gauge metrics are refreshed.
	MetricsUpdateInterval = 1 * time.Minute

	// RateLimiterCleanupInterval is how often inactive session rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute

	// SessionCleanupInterval is how often the in-memory session store purges expired entries.
	SessionCleanupInterval = 10 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second

	// SentryFlush bounds flushing buffered error events on shutdown.
	SentryFlush = 2 * time.Second
)
