package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/garyellow/campus-navigator/internal/dialogue"
)

// Default key namespaces. Locks live outside the session namespace so a
// session scan never sees them.
const (
	DefaultRedisPrefix     = "campus:session:"
	DefaultRedisLockPrefix = "campus:lock:"
)

// RedisStore keeps sessions as JSON documents so several instances can share
// them.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client. A ttl of zero keeps sessions forever.
func NewRedisStore(client *backend.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*backend.Client, error) {
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return backend.NewClient(opts), nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Load decodes the stored state. A document that does not decode yields an
// error wrapping ErrCorrupt.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*dialogue.State, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var st dialogue.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &st, nil
}

// Save encodes st and refreshes the key's TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, st *dialogue.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// Count scans the session keyspace.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan sessions: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// Ping checks connectivity for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ErrLockTimeout is returned when a distributed lock cannot be taken before
// the context ends.
var ErrLockTimeout = errors.New("failed to acquire session lock")

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// RedisLocker takes per-session locks with SET NX so that instances sharing
// a RedisStore do not interleave turns of one session.
type RedisLocker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// NewRedisLocker creates a locker using keys "<prefix><session>". The prefix
// must not overlap the store's session prefix.
func NewRedisLocker(client *backend.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = DefaultRedisLockPrefix
	}
	return &RedisLocker{client: client, prefix: prefix, poll: 50 * time.Millisecond}
}

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Lock blocks until the lock is held or ctx ends. The lock expires after ttl
// if never released.
func (l *RedisLocker) Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error) {
	key := l.prefix + sessionID
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, unlockScript, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
