package identity

import (
	"context"
	"sync"
	"time"
)

// LoginThrottle tracks failed login attempts per client IP over a sliding
// window. Attempts older than the window never count, so implementations
// prune on every query.
type LoginThrottle interface {
	// RecordFailure registers a failed attempt for ip and returns how many
	// attempts currently sit inside the window
	RecordFailure(ctx context.Context, ip string) (int, error)

	// IsBlocked reports whether ip has reached the attempt limit
	IsBlocked(ctx context.Context, ip string) (bool, error)

	// Reset clears the window for ip after a successful login
	Reset(ctx context.Context, ip string) error
}

// memoryThrottle keeps attempt timestamps in process memory. Good for a
// single instance; multi-instance deployments share state via the Redis
// throttle instead.
type memoryThrottle struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewMemoryThrottle creates an in-process login throttle.
func NewMemoryThrottle(limit int, window time.Duration) LoginThrottle {
	return &memoryThrottle{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (t *memoryThrottle) RecordFailure(_ context.Context, ip string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := append(t.prune(ip), t.now())
	t.attempts[ip] = kept
	return len(kept), nil
}

func (t *memoryThrottle) IsBlocked(_ context.Context, ip string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.prune(ip)
	if len(kept) == 0 {
		delete(t.attempts, ip)
		return false, nil
	}
	t.attempts[ip] = kept
	return len(kept) >= t.limit, nil
}

func (t *memoryThrottle) Reset(_ context.Context, ip string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.attempts, ip)
	return nil
}

// prune returns the attempts for ip still inside the window. Caller holds
// the lock.
func (t *memoryThrottle) prune(ip string) []time.Time {
	cutoff := t.now().Add(-t.window)
	var kept []time.Time
	for _, ts := range t.attempts[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
