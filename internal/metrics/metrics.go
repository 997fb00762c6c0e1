// Package metrics exposes the assistant's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garyellow/campus-navigator/internal/dialogue"
	"github.com/garyellow/campus-navigator/internal/nlu"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Conversation metrics
	MessagesTotal          *prometheus.CounterVec
	MessageDurationSeconds *prometheus.HistogramVec
	IntentsTotal           *prometheus.CounterVec
	TransitionsTotal       *prometheus.CounterVec
	NavigationsTotal       *prometheus.CounterVec
	ActiveSessions         prometheus.Gauge

	// Path cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped    *prometheus.CounterVec
	RateLimiterActiveKeys *prometheus.GaugeVec

	// Catalog metrics
	CatalogSize *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		MessagesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_messages_total",
				Help: "Total number of chat messages by channel and status",
			},
			[]string{"channel", "status"}, // status: success, rate_limited, empty
		),

		MessageDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_message_duration_seconds",
				Help:    "Time to produce a reply by channel",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"channel"}, // channel: http, line, cli
		),

		IntentsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_intents_total",
				Help: "Total number of classified messages by intent",
			},
			[]string{"intent"},
		),

		TransitionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_dialogue_transitions_total",
				Help: "Total number of dialogue mode changes",
			},
			[]string{"from", "to"},
		),

		NavigationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_navigations_total",
				Help: "Total number of navigation events by outcome",
			},
			[]string{"outcome"}, // outcome: started, arrived, no_path, cancelled, replaced
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_active_sessions",
				Help: "Number of stored conversation sessions",
			},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_cache_hits_total",
				Help: "Total number of cache hits by module",
			},
			[]string{"module"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_cache_misses_total",
				Help: "Total number of cache misses by module",
			},
			[]string{"module"},
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // event_type: message, postback, follow
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_webhook_requests_total",
				Help: "Total number of webhook requests by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: bad_request, rate_limit, invalid_signature
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: session, line_reply
		),

		RateLimiterActiveKeys: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "campus_rate_limiter_active_keys",
				Help: "Number of keys currently tracked by a keyed rate limiter",
			},
			[]string{"limiter_type"},
		),

		CatalogSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "campus_catalog_size",
				Help: "Number of loaded catalog entries by kind",
			},
			[]string{"kind"}, // kind: locations, edges, people
		),
	}

	return m
}

// RecordMessage records a handled chat message
func (m *Metrics) RecordMessage(channel, status string, duration float64) {
	m.MessagesTotal.WithLabelValues(channel, status).Inc()
	m.MessageDurationSeconds.WithLabelValues(channel).Observe(duration)
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(module string) {
	m.CacheHitsTotal.WithLabelValues(module).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(module string) {
	m.CacheMissesTotal.WithLabelValues(module).Inc()
}

// CacheLookupHook returns a callback for pathgraph.WithLookupHook.
func (m *Metrics) CacheLookupHook(module string) func(hit bool) {
	return func(hit bool) {
		if hit {
			m.RecordCacheHit(module)
		} else {
			m.RecordCacheMiss(module)
		}
	}
}

// RecordWebhook records a webhook request
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterKeys sets the number of tracked keys of a keyed limiter
func (m *Metrics) SetRateLimiterKeys(limiterType string, count int) {
	m.RateLimiterActiveKeys.WithLabelValues(limiterType).Set(float64(count))
}

// SetActiveSessions sets the stored session count
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// SetCatalogSize sets the catalog gauges
func (m *Metrics) SetCatalogSize(locations, edges, people int) {
	m.CatalogSize.WithLabelValues("locations").Set(float64(locations))
	m.CatalogSize.WithLabelValues("edges").Set(float64(edges))
	m.CatalogSize.WithLabelValues("people").Set(float64(people))
}

// ObserveIntent implements dialogue.Observer.
func (m *Metrics) ObserveIntent(intent nlu.Intent) {
	m.IntentsTotal.WithLabelValues(intent.String()).Inc()
}

// ObserveTransition implements dialogue.Observer.
func (m *Metrics) ObserveTransition(from, to dialogue.Mode) {
	m.TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveNavigation implements dialogue.Observer.
func (m *Metrics) ObserveNavigation(outcome string) {
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
}

var _ dialogue.Observer = (*Metrics)(nil)
