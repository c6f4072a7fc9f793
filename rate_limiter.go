package conduit

import (
	"sync"
	"time"
)

const (
	defaultRateLimit         = 100
	defaultRateLimitInterval = 60 * time.Second
)

// RateLimiter counts requests per hostname in fixed, non-overlapping windows.
// It never blocks or queues: a request over budget is rejected immediately.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*rateWindow
	limit    int
	interval time.Duration
	now      func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// WindowState is a snapshot of one host's current window.
type WindowState struct {
	Count   int
	ResetAt time.Time
}

// NewRateLimiter creates a limiter whose Allow uses limit requests per
// interval. Non-positive arguments fall back to 100 per minute.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if interval <= 0 {
		interval = defaultRateLimitInterval
	}
	return &RateLimiter{
		windows:  make(map[string]*rateWindow),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow checks host against the limiter's configured budget.
func (rl *RateLimiter) Allow(host string) bool {
	return rl.Check(host, rl.limit, rl.interval)
}

// Check records one request for host and reports whether the window's count,
// after incrementing, is still within limit. The count keeps growing on
// rejection until the window rolls over; a window rolls over once the current
// time is strictly past its reset time.
func (rl *RateLimiter) Check(host string, limit int, interval time.Duration) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[host]
	if !ok {
		w = &rateWindow{resetAt: now.Add(interval)}
		rl.windows[host] = w
	}

	if now.After(w.resetAt) {
		w.count = 1
		w.resetAt = now.Add(interval)
	} else {
		w.count++
	}

	return w.count <= limit
}

// State returns the current window for host.
func (rl *RateLimiter) State(host string) (WindowState, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[host]
	if !ok {
		return WindowState{}, false
	}
	return WindowState{Count: w.count, ResetAt: w.resetAt}, true
}

// Hosts returns the number of hostnames seen so far.
func (rl *RateLimiter) Hosts() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
