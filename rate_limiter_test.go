package conduit

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, time.Second)

	if rl == nil {
		t.Fatal("NewRateLimiter() returned nil")
	}
	if rl.limit != 10 {
		t.Errorf("Expected limit=10, got %d", rl.limit)
	}
	if rl.interval != time.Second {
		t.Errorf("Expected interval=1s, got %v", rl.interval)
	}
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	if rl.limit != 100 {
		t.Errorf("Expected default limit=100, got %d", rl.limit)
	}
	if rl.interval != time.Minute {
		t.Errorf("Expected default interval=1m, got %v", rl.interval)
	}
}

func TestRateLimiterCheckWithinWindow(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(100, time.Minute)
	rl.now = clock.Now

	got := []bool{
		rl.Check("api.example.com", 2, time.Minute),
		rl.Check("api.example.com", 2, time.Minute),
		rl.Check("api.example.com", 2, time.Minute),
	}
	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i+1, want[i], got[i])
		}
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = clock.Now

	rl.Allow("h")
	rl.Allow("h")
	if rl.Allow("h") {
		t.Fatal("Expected third call in window to be rejected")
	}

	// exactly at the reset instant the window is still open
	clock.Advance(time.Minute)
	if rl.Allow("h") {
		t.Error("Expected rejection at the reset boundary")
	}

	clock.Advance(time.Millisecond)
	if !rl.Allow("h") {
		t.Error("Expected true after the window elapsed")
	}

	state, ok := rl.State("h")
	if !ok {
		t.Fatal("Expected state for host")
	}
	if state.Count != 1 {
		t.Errorf("Expected count=1 after reset, got %d", state.Count)
	}
}

func TestRateLimiterCountsRejectedCalls(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = clock.Now

	for i := 0; i < 5; i++ {
		rl.Allow("h")
	}

	state, _ := rl.State("h")
	if state.Count != 5 {
		t.Errorf("Expected count=5 including rejected calls, got %d", state.Count)
	}
}

func TestRateLimiterHostsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = clock.Now

	if !rl.Allow("a.example.com") {
		t.Error("Expected first request to a to pass")
	}
	if !rl.Allow("b.example.com") {
		t.Error("Expected first request to b to pass")
	}
	if rl.Allow("a.example.com") {
		t.Error("Expected second request to a to be rejected")
	}
	if rl.Hosts() != 2 {
		t.Errorf("Expected 2 hosts, got %d", rl.Hosts())
	}
}

func TestRateLimiterStateUnknownHost(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if _, ok := rl.State("nowhere"); ok {
		t.Error("Expected no state for unseen host")
	}
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(100, time.Hour)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				results <- rl.Allow("shared")
			}
		}()
	}

	wg.Wait()
	close(results)

	allowed := 0
	denied := 0
	for result := range results {
		if result {
			allowed++
		} else {
			denied++
		}
	}

	if allowed != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowed)
	}
	if denied != 100 {
		t.Errorf("Expected 100 denied requests, got %d", denied)
	}
}
