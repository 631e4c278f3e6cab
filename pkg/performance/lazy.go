package performance

import "sync"

// Lazy wraps an expensive initialization so it runs exactly once, on first
// use. Concurrent first callers block until the single initialization
// completes. A failed initialization is retried on the next access.
type Lazy[T any] struct {
	mu    sync.Mutex
	init  func() (T, error)
	value T
	done  bool
}

// NewLazy returns a Lazy wrapper around init.
func NewLazy[T any](init func() (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the initialized value, running init on first use.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.value, nil
	}
	v, err := l.init()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.done = true
	return v, nil
}

// Initialized reports whether the value has been constructed.
func (l *Lazy[T]) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
