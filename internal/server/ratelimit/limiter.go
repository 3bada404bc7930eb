// Package ratelimit gates login attempts with a fixed-window counter keyed by
// client identity (the caller uses "login|<ip>").
//
// Policy: at most maxAttempts failed attempts per identity within one window.
// The window starts on the first failure after expiry and resets entirely when
// it elapses; a successful login clears the counter immediately. The check
// runs before any credential comparison, so a throttled caller costs no
// hashing work and learns nothing about which accounts exist.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the failed-login throttle contract.
type Limiter interface {
	// Allow reports whether another attempt is permitted for key.
	Allow(ctx context.Context, key string) (bool, error)

	// RecordFailure counts one failed attempt against key within window.
	RecordFailure(ctx context.Context, key string, window time.Duration) error

	// Clear wipes the counter for key (called on successful login).
	Clear(ctx context.Context, key string) error

	// TimeUntilAllowed returns how long key must wait before the next
	// attempt is permitted. Zero when not currently blocked.
	TimeUntilAllowed(ctx context.Context, key string) (time.Duration, error)
}

type memoryEntry struct {
	count     int
	windowEnd time.Time
}

// MemoryLimiter is an in-process Limiter backed by a mutex-guarded map.
// The clock is injectable so window behavior is deterministic in tests.
type MemoryLimiter struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	maxAttempts int
	now         func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter permitting maxAttempts failures
// per window. A nil now falls back to time.Now.
func NewMemoryLimiter(maxAttempts int, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		entries:     make(map[string]memoryEntry),
		maxAttempts: maxAttempts,
		now:         now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return true, nil
	}
	if !l.now().Before(e.windowEnd) {
		// window elapsed, counter is stale
		delete(l.entries, key)
		return true, nil
	}
	return e.count < l.maxAttempts, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, key string, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || !now.Before(e.windowEnd) {
		l.entries[key] = memoryEntry{count: 1, windowEnd: now.Add(window)}
		return nil
	}
	e.count++
	l.entries[key] = e
	return nil
}

func (l *MemoryLimiter) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

func (l *MemoryLimiter) TimeUntilAllowed(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return 0, nil
	}
	remaining := e.windowEnd.Sub(l.now())
	if remaining <= 0 || e.count < l.maxAttempts {
		return 0, nil
	}
	return remaining, nil
}
