package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNew(t *testing.T) {
	t.Parallel()
	l := New(10, 5)
	if l.maxTokens != 10 {
		t.Errorf("maxTokens = %v, want 10", l.maxTokens)
	}
	if l.refillRate != 5 {
		t.Errorf("refillRate = %v, want 5", l.refillRate)
	}
	if l.tokens != 10 {
		t.Errorf("initial tokens = %v, want 10", l.tokens)
	}
}

func TestNewPerMinute(t *testing.T) {
	t.Parallel()
	l := NewPerMinute(60) // 60 per minute = 1 per second
	if l.refillRate != 1 {
		t.Errorf("refillRate = %v, want 1", l.refillRate)
	}
	if l.maxTokens != 2 {
		t.Errorf("maxTokens = %v, want 2", l.maxTokens)
	}
	if l.tokens != 1 {
		t.Errorf("tokens = %v, want 1", l.tokens)
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()

	t.Run("allows burst then denies", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(0, 0)}
		l := newWithClock(3, 1, clock.Now)
		for i := range 3 {
			if !l.Allow() {
				t.Errorf("Allow() = false on attempt %d, want true", i+1)
			}
		}
		if l.Allow() {
			t.Error("Allow() = true with empty bucket")
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(0, 0)}
		l := newWithClock(1, 0.5, clock.Now)
		l.Allow()

		clock.Advance(time.Second)
		if l.Allow() {
			t.Error("Allow() = true after half a token refilled")
		}
		clock.Advance(time.Second)
		if !l.Allow() {
			t.Error("Allow() = false after a full token refilled")
		}
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(0, 0)}
		l := newWithClock(2, 10, clock.Now)
		clock.Advance(time.Hour)
		if got := l.Available(); got != 2 {
			t.Errorf("Available() = %v, want 2", got)
		}
		if !l.IsFull() {
			t.Error("IsFull() = false")
		}
	})
}

func TestWait(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately when tokens available", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)
		if err := l.Wait(context.Background()); err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	})

	t.Run("waits for refill", func(t *testing.T) {
		t.Parallel()
		l := New(1, 50)
		l.Allow()

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("Wait() returned after %v, expected to block", elapsed)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(1, 0.001)
		l.Allow()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want deadline exceeded", err)
		}
	})

	t.Run("no refill fails fast", func(t *testing.T) {
		t.Parallel()
		l := New(1, 0)
		l.Allow()
		if err := l.Wait(context.Background()); !errors.Is(err, ErrExhausted) {
			t.Errorf("Wait() error = %v, want ErrExhausted", err)
		}
	})
}

func TestReset(t *testing.T) {
	t.Parallel()
	l := New(2, 0)
	l.Allow()
	l.Allow()
	l.Reset()
	if got := l.Available(); got != 2 {
		t.Errorf("Available() after Reset = %v, want 2", got)
	}
}

func TestConcurrentAllow(t *testing.T) {
	t.Parallel()
	l := New(100, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("allowed = %d, want 100", allowed)
	}
}
