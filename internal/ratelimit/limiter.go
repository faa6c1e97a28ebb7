package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LoginLimiter counts failed logins per key inside a fixed window.
type LoginLimiter interface {
	// Allow reports whether another attempt is permitted and, if not, how long until it is.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Key normalizes the identity a limiter counts against.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryLimiter is a process-local fixed window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// NewMemoryLimiter builds a limiter allowing limit failures per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok || now.After(b.windowEnd) {
		delete(l.clients, key)
		return true, 0, nil
	}
	if b.count >= l.limit {
		return false, b.windowEnd.Sub(now), nil
	}
	return true, 0, nil
}

func (l *MemoryLimiter) Fail(_ context.Context, key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok || now.After(b.windowEnd) {
		l.clients[key] = &bucket{count: 1, windowEnd: now.Add(l.window)}
		return nil
	}
	b.count++
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.clients, key)
	l.mu.Unlock()
	return nil
}

// Noop never limits.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, time.Duration, error) { return true, 0, nil }
func (Noop) Fail(context.Context, string) error                         { return nil }
func (Noop) Reset(context.Context, string) error                        { return nil }
