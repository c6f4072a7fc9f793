// Package singleflight coalesces concurrent producers that share a key so the
// work runs once and every waiter observes the same result.
package singleflight

import (
	"errors"
	"fmt"
	"sync"
)

// Group tracks in-flight calls by key.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

type call struct {
	wg   sync.WaitGroup
	val  any
	err  error
	dups int
}

// New creates an empty Group.
func New() *Group {
	return &Group{
		m: make(map[string]*call),
	}
}

// PanicError is handed to callers that were waiting on a call whose fn
// panicked. The owner re-panics with the original value.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("singleflight: call panicked: %v", p.Value)
}

// errGoexit is handed to waiters when fn called runtime.Goexit.
var errGoexit = errors.New("singleflight: call exited via runtime.Goexit")

// Do runs fn once per key at a time. Callers arriving while fn is running
// block and receive its result; shared reports whether the result was handed
// to more than one caller. The key is forgotten as soon as fn returns or
// panics, so a later call starts fresh work.
func (g *Group) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, true
	}

	c := &call{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	g.doCall(c, key, fn)
	return c.val, c.err, c.dups > 0
}

func (g *Group) doCall(c *call, key string, fn func() (any, error)) {
	normalReturn := false
	defer func() {
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		c.wg.Done()
	}()
	defer func() {
		if normalReturn {
			return
		}
		if r := recover(); r != nil {
			c.err = &PanicError{Value: r}
			panic(r)
		}
		c.err = errGoexit
	}()

	c.val, c.err = fn()
	normalReturn = true
}

// InFlight reports whether a call for key is currently running.
func (g *Group) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.m[key]
	return ok
}

// Forget drops key so the next Do starts new work even if a call is running.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
