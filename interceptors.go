package conduit

import (
	"context"
	"sync"
)

// InterceptorRegistry holds interceptors in registration order. Entries are
// never reordered, deduplicated or removed.
type InterceptorRegistry struct {
	mu           sync.RWMutex
	interceptors []Interceptor
}

// NewInterceptorRegistry returns an empty registry.
func NewInterceptorRegistry() *InterceptorRegistry {
	return &InterceptorRegistry{}
}

// Add appends fn to the end of the chain.
func (r *InterceptorRegistry) Add(fn Interceptor) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.interceptors = append(r.interceptors, fn)
	r.mu.Unlock()
}

// Len returns the number of registered interceptors.
func (r *InterceptorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.interceptors)
}

// Apply folds the chain over cfg one interceptor at a time, each seeing the
// config produced by the previous one. The first error stops the fold and is
// returned unchanged.
func (r *InterceptorRegistry) Apply(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error) {
	r.mu.RLock()
	chain := make([]Interceptor, len(r.interceptors))
	copy(chain, r.interceptors)
	r.mu.RUnlock()

	current := cfg
	for _, interceptor := range chain {
		next, err := interceptor(ctx, current)
		if err != nil {
			return nil, err
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}
