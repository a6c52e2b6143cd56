package pool

import (
	"errors"
	"sync"

	cerrors "github.com/ajitpratap0/conduit/pkg/errors"
)

// ErrAlreadyReleased is returned when a Handle is released or
// discarded more than once.
var ErrAlreadyReleased = errors.New("resource already released")

// Handle wraps a borrowed resource together with the pool it came
// from. The resource goes back to the pool exactly once: the first
// Release or Discard wins, and every later call is reported as a
// contract violation rather than silently ignored, since a double
// release would corrupt the pool's ownership accounting.
//
// A handle is safe for concurrent use, though a borrowed resource
// itself usually is not.
type Handle[T any] struct {
	pool     *Pool[T]
	resource T

	mu       sync.Mutex
	broken   bool
	released bool
}

// Resource returns the borrowed resource. It must not be used after
// the handle has been released.
func (h *Handle[T]) Resource() T {
	return h.resource
}

// MarkBroken records that the resource misbehaved during use. A
// subsequent Release discards the resource instead of returning it to
// the idle set.
func (h *Handle[T]) MarkBroken() {
	h.mu.Lock()
	h.broken = true
	h.mu.Unlock()
}

// Release returns the resource to the pool, or destroys it when the
// handle was marked broken. The second and later calls fail with
// ErrAlreadyReleased.
func (h *Handle[T]) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return cerrors.Wrap(ErrAlreadyReleased, cerrors.ErrorTypeValidation, "handle released twice")
	}
	h.released = true
	broken := h.broken
	h.mu.Unlock()

	if broken {
		h.pool.Discard(h.resource)
	} else {
		h.pool.Release(h.resource)
	}
	return nil
}

// Discard destroys the resource and frees its capacity slot,
// regardless of whether the handle was marked broken. The second and
// later calls fail with ErrAlreadyReleased.
func (h *Handle[T]) Discard() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return cerrors.Wrap(ErrAlreadyReleased, cerrors.ErrorTypeValidation, "handle discarded twice")
	}
	h.released = true
	h.mu.Unlock()

	h.pool.Discard(h.resource)
	return nil
}
