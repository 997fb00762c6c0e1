// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/campus-navigator/internal/assistant"
	"github.com/garyellow/campus-navigator/internal/buildinfo"
	"github.com/garyellow/campus-navigator/internal/campus"
	"github.com/garyellow/campus-navigator/internal/chat"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/dialogue"
	"github.com/garyellow/campus-navigator/internal/linebot"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/metrics"
	"github.com/garyellow/campus-navigator/internal/nlu"
	"github.com/garyellow/campus-navigator/internal/pathgraph"
	"github.com/garyellow/campus-navigator/internal/ratelimit"
	"github.com/garyellow/campus-navigator/internal/sentry"
	"github.com/garyellow/campus-navigator/internal/session"
	"github.com/garyellow/campus-navigator/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *storage.DB
	catalog     *campus.Catalog
	graph       *pathgraph.Graph
	pathCache   *pathgraph.Cache
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	sessions    *session.Manager
	redisStore  *session.RedisStore // nil with the memory backend
	limiter     *ratelimit.KeyedLimiter
	assistant   *assistant.Assistant
	lineHandler *linebot.Handler // nil without LINE credentials
	router      *gin.Engine
	server      *http.Server
	wg          sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
// A campus graph that cannot be loaded is fatal.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken: cfg.BetterStackToken,
	})
	log = log.WithField("service", "campus-navigator").WithField("instance_id", cfg.InstanceID)

	// Package-level slog.*Context() calls pick up session and request IDs.
	slog.SetDefault(log.Logger)
	gin.SetMode(gin.ReleaseMode)

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed; error reporting disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error reporting enabled")
	}

	return initialize(ctx, cfg, log)
}

func initialize(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Application, error) {
	log.Info("Initializing application...")

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	app := &Application{cfg: cfg, logger: log, db: db}
	if err := app.build(ctx); err != nil {
		app.closeResources()
		return nil, err
	}

	log.Info("Initialization complete")
	return app, nil
}

// build wires everything that sits on top of the database.
func (a *Application) build(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	loadCtx, cancel := context.WithTimeout(ctx, config.CatalogLoad)
	defer cancel()

	if cfg.SeedDemo {
		seeded, err := a.db.SeedIfEmpty(loadCtx, campus.SampleDataset())
		if err != nil {
			return fmt.Errorf("seed sample campus: %w", err)
		}
		if seeded {
			log.Info("Seeded the sample campus into an empty store")
		}
	}

	catalog, err := a.db.LoadCatalog(loadCtx)
	if err != nil {
		if errors.Is(err, storage.ErrEmpty) {
			return fmt.Errorf("campus graph: %w (run `campusctl seed` or set %s=true)", err, config.EnvSeedDemo)
		}
		return fmt.Errorf("campus graph: %w", err)
	}
	graph, err := pathgraph.FromCatalog(catalog)
	if err != nil {
		return fmt.Errorf("campus graph: %w", err)
	}
	locations, edges, people := catalog.Counts()
	log.WithField("locations", locations).
		WithField("edges", edges).
		WithField("people", people).
		Info("Campus graph loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)
	m.SetCatalogSize(locations, edges, people)

	sessions, err := a.buildSessions(ctx)
	if err != nil {
		return err
	}

	pathCache := pathgraph.NewCache(graph, cfg.Dialogue.PathCacheTTL,
		pathgraph.WithLookupHook(m.CacheLookupHook("path")),
		pathgraph.WithQueryTimeout(cfg.Dialogue.PathQueryTimeout))

	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "session",
		Burst:         cfg.Dialogue.SessionRateBurst,
		RefillRate:    cfg.Dialogue.SessionRateRefillSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	controller := dialogue.NewController(pathCache, catalog, sessions, cfg.Dialogue, log,
		dialogue.WithObserver(m))

	a.catalog, a.graph, a.pathCache = catalog, graph, pathCache
	a.metrics, a.registry = m, registry
	a.sessions, a.limiter = sessions, limiter
	a.assistant = assistant.New(assistant.Config{
		Classifier: nlu.NewClassifier(nlu.ClassifierOptions{
			AffirmTokens: cfg.Dialogue.AffirmTokens,
			CancelTokens: cfg.Dialogue.CancelTokens,
			MinScore:     cfg.Dialogue.ClassifierMinScore,
			Logger:       log,
		}),
		Extractor:        nlu.NewExtractor(catalog),
		Handler:          controller,
		Sessions:         sessions,
		Limiter:          limiter,
		Metrics:          m,
		Logger:           log,
		MaxMessageLength: cfg.Dialogue.MaxMessageLength,
	})

	if cfg.HasLineChannel() {
		a.lineHandler, err = linebot.NewHandler(linebot.HandlerConfig{
			ChannelSecret: cfg.LineChannelSecret,
			ChannelToken:  cfg.LineChannelToken,
			Assistant:     a.assistant,
			Metrics:       m,
			Logger:        log,
		})
		if err != nil {
			return fmt.Errorf("line webhook: %w", err)
		}
		log.Info("LINE webhook enabled")
	}

	a.router = a.buildRouter()
	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}
	return nil
}

// buildSessions picks the session backend. Redis sessions are additionally
// guarded by a distributed lock so replicas never interleave one session.
func (a *Application) buildSessions(ctx context.Context) (*session.Manager, error) {
	cfg := a.cfg
	if cfg.SessionBackend != config.SessionBackendRedis {
		store := session.NewMemoryStore(cfg.Dialogue.SessionTTL, config.SessionCleanupInterval)
		a.logger.WithField("ttl", cfg.Dialogue.SessionTTL).Info("Using in-memory sessions")
		return session.NewManager(store, a.logger), nil
	}

	client, err := session.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	store := session.NewRedisStore(client, cfg.RedisPrefix, cfg.Dialogue.SessionTTL)
	a.redisStore = store

	pingCtx, cancel := context.WithTimeout(ctx, config.ReadinessCheckTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("session store: redis unreachable: %w", err)
	}

	a.logger.WithField("prefix", cfg.RedisPrefix).Info("Using Redis sessions")
	locker := session.NewRedisLocker(client, cfg.RedisLockPrefix)
	return session.NewManager(store, a.logger, session.WithLocker(locker, config.MessageProcessing)), nil
}

func (a *Application) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", a.serviceInfo)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuth(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	chat.NewHandler(a.assistant, a.metrics, a.logger).Register(router)
	if a.lineHandler != nil {
		router.POST("/webhook/line", a.lineHandler.Handle)
	}
	return router
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT/SIGTERM.
//
// Shutdown order: cancel background jobs and wait for them, stop accepting
// requests, drain LINE events, then close stores.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.updateSessionMetrics(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown performs graceful shutdown of HTTP server and resources.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	if a.lineHandler != nil {
		a.logger.Info("Waiting for LINE events to complete...")
		if err := a.lineHandler.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("LINE handler shutdown timeout")
		}
	}

	a.logger.Info("Closing resources...")
	a.closeResources()

	sentry.Flush(config.SentryFlush)

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// closeResources releases stores and limiters. Safe on a partly built app.
func (a *Application) closeResources() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.redisStore != nil {
		if err := a.redisStore.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "redis").Error("Component close error")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		}
	}
}

// updateSessionMetrics periodically records the live session count.
func (a *Application) updateSessionMetrics(ctx context.Context) {
	a.logger.Debug("Session metrics job started")
	defer a.logger.Debug("Session metrics job stopped")

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	a.recordSessionMetrics(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordSessionMetrics(ctx)
		}
	}
}

func (a *Application) recordSessionMetrics(ctx context.Context) {
	count, err := a.sessions.Count(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Warn("Failed to count sessions")
		}
		return
	}
	a.metrics.SetActiveSessions(count)
}
