package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/campus-navigator/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "session")
	Name string

	Burst      float64 // Maximum tokens per key
	RefillRate float64 // Tokens refilled per second

	// CleanupPeriod is how often idle keys are dropped.
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// KeyedLimiter keeps one token bucket per key (a chat session) and drops
// buckets that have refilled completely.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*Limiter
	config   KeyedConfig
	onDrop   func()
	onUpdate func(count int)
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewKeyedLimiter creates a per-key limiter and starts its cleanup loop.
// Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if cfg.Metrics != nil {
		kl.onDrop = func() {
			cfg.Metrics.RecordRateLimiterDrop(cfg.Name)
		}
		kl.onUpdate = func(count int) {
			cfg.Metrics.SetRateLimiterKeys(cfg.Name, count)
		}
	}

	kl.wg.Go(kl.cleanupLoop)

	return kl
}

// Allow takes a token from key's bucket. An empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	if kl.getOrCreate(key).Allow() {
		return true
	}
	if kl.onDrop != nil {
		kl.onDrop()
	}
	return false
}

func (kl *KeyedLimiter) getOrCreate(key string) *Limiter {
	kl.mu.RLock()
	limiter, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, ok = kl.entries[key]; ok {
		return limiter
	}
	limiter = New(kl.config.Burst, kl.config.RefillRate)
	kl.entries[key] = limiter
	return limiter
}

// GetAvailable returns the tokens left for key; Burst for unseen keys.
func (kl *KeyedLimiter) GetAvailable(key string) float64 {
	kl.mu.RLock()
	limiter, ok := kl.entries[key]
	kl.mu.RUnlock()

	if !ok {
		return kl.config.Burst
	}
	return limiter.Available()
}

// GetActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) GetActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// cleanup drops full buckets and reports the remaining count.
func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	for key, limiter := range kl.entries {
		if limiter.IsFull() {
			delete(kl.entries, key)
		}
	}
	count := len(kl.entries)
	kl.mu.Unlock()

	if kl.onUpdate != nil {
		kl.onUpdate(count)
	}
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
	kl.wg.Wait()
}
