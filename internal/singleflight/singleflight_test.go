package singleflight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.m == nil {
		t.Error("New() did not initialize map")
	}
}

func TestDo(t *testing.T) {
	g := New()

	val, err, shared := g.Do("key1", func() (any, error) {
		return "hello", nil
	})

	if err != nil {
		t.Errorf("Do() returned error: %v", err)
	}
	if val != "hello" {
		t.Errorf("Do() returned %v, want hello", val)
	}
	if shared {
		t.Error("single caller should not report shared")
	}
	if g.InFlight("key1") {
		t.Error("key should be forgotten once the call returns")
	}
}

func TestDoError(t *testing.T) {
	g := New()
	expectedErr := errors.New("test error")

	val, err, _ := g.Do("key1", func() (any, error) {
		return nil, expectedErr
	})

	if err != expectedErr {
		t.Errorf("Do() returned error %v, want %v", err, expectedErr)
	}
	if val != nil {
		t.Errorf("Do() returned %v, want nil", val)
	}
}

func TestDoCoalescesConcurrentCalls(t *testing.T) {
	g := New()

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})

	fn := func() (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "result", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = g.Do("key", fn)
	}()
	<-started

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = g.Do("key", fn)
		}(i)
	}

	// give the waiters time to attach to the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
	for i, r := range results {
		if r != "result" {
			t.Errorf("results[%d] = %v, want result", i, r)
		}
	}
}

func TestDoSequentialCallsRunAgain(t *testing.T) {
	g := New()
	var calls int

	for i := 0; i < 3; i++ {
		g.Do("key", func() (any, error) {
			calls++
			return nil, nil
		})
	}

	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestForget(t *testing.T) {
	g := New()
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		g.Do("key", func() (any, error) {
			<-release
			return nil, nil
		})
		close(done)
	}()

	for !g.InFlight("key") {
		time.Sleep(time.Millisecond)
	}
	g.Forget("key")
	if g.InFlight("key") {
		t.Error("Forget should remove the key")
	}

	close(release)
	<-done
}

func TestDoPanicReleasesKey(t *testing.T) {
	g := New()

	func() {
		defer func() {
			if r := recover(); r != "producer exploded" {
				t.Errorf("recovered %v, want original panic value", r)
			}
		}()
		g.Do("key", func() (any, error) { panic("producer exploded") })
	}()

	if g.InFlight("key") {
		t.Fatal("key still in flight after panic")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		val, err, _ := g.Do("key", func() (any, error) { return "recovered", nil })
		if err != nil || val != "recovered" {
			t.Errorf("Do() = %v, %v; want recovered, nil", val, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do() blocked after an earlier panic")
	}
}

func TestDoPanicWaitersGetError(t *testing.T) {
	g := New()
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		g.Do("key", func() (any, error) {
			close(started)
			<-release
			panic("boom")
		})
	}()
	<-started

	result := make(chan error, 1)
	go func() {
		_, err, shared := g.Do("key", func() (any, error) { return nil, nil })
		if !shared {
			t.Error("waiter did not share the panicking call")
		}
		result <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !waiting(g, "key") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)

	select {
	case err := <-result:
		var panicErr *PanicError
		if !errors.As(err, &panicErr) || panicErr.Value != "boom" {
			t.Errorf("waiter error = %v, want PanicError(boom)", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter blocked after panic")
	}
}

func waiting(g *Group, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.m[key]
	return ok && c.dups > 0
}
