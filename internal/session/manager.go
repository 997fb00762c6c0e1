package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyellow/campus-navigator/internal/dialogue"
	domerrors "github.com/garyellow/campus-navigator/internal/errors"
	"github.com/garyellow/campus-navigator/internal/logger"
)

const storeUnavailableText = "I'm having trouble remembering our conversation right now. Please try again in a moment."

var (
	loadWrapper = domerrors.NewWrapper("session", "load")
	saveWrapper = domerrors.NewWrapper("session", "save")
)

// Locker takes a lock shared across instances.
type Locker interface {
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}

// lockEntry is a per-session mutex with a reference count so unused entries
// can be dropped.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serialises turns per session: load, mutate and save happen under
// the session's lock. It implements dialogue.Sessions.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  Locker
	lockTTL time.Duration
	logger  *logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker adds a distributed lock taken after the local one.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = l
		m.lockTTL = ttl
	}
}

// NewManager creates a Manager over store.
func NewManager(store Store, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  log.WithModule("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the session's lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.WithError(err).WarnContext(ctx, "Failed to release session lock (will expire via TTL)",
					"session_id", sessionID)
			}
		}()
	}

	return fn(ctx)
}

// Update loads the session (or starts a fresh one), passes it to fn and saves
// the result. A stored state that cannot be decoded reaches fn as loadErr
// together with a fresh state. Nothing is saved when fn fails.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(st *dialogue.State, loadErr error) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		st, err := m.store.Load(ctx, sessionID)
		var loadErr error
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			st = dialogue.NewState()
		case errors.Is(err, ErrCorrupt):
			loadErr = err
			st = dialogue.NewState()
		default:
			return loadWrapper.Wrap(err, storeUnavailableText)
		}

		if err := fn(st, loadErr); err != nil {
			return err
		}

		if err := m.store.Save(ctx, sessionID, st); err != nil {
			return saveWrapper.Wrap(err, storeUnavailableText)
		}
		return nil
	})
}

// Load returns a copy of the session, or a fresh state when none is stored.
func (m *Manager) Load(ctx context.Context, sessionID string) (*dialogue.State, error) {
	var st *dialogue.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		st, err = m.store.Load(ctx, sessionID)
		if errors.Is(err, ErrNotFound) {
			st, err = dialogue.NewState(), nil
		}
		return err
	})
	return st, err
}

// Reset deletes the session so the next message starts from Idle.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// Count returns the number of stored sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// activeLocks reports how many sessions currently hold or wait for a lock.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
