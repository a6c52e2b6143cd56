// Package pool provides the bounded blocking connection pool for Conduit.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cerrors "github.com/ajitpratap0/conduit/pkg/errors"
)

var (
	// ErrPoolClosed is returned for operations attempted after Close.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrPoolExhausted is returned when the pool is at capacity and no
	// resource became available before the borrow deadline.
	ErrPoolExhausted = errors.New("pool exhausted")
)

// destroyTimeout bounds the driver I/O performed while disposing a
// resource on discard, sweep and shutdown paths.
const destroyTimeout = 5 * time.Second

// Factory creates and destroys pooled resources.
//
// Create may perform network I/O and is never called while the pool
// lock is held; the pool reserves a capacity slot first and rolls the
// reservation back if Create fails. Destroy is best-effort and must not
// fail: implementations log and swallow any error so that discard and
// shutdown paths always complete.
type Factory[T any] interface {
	Create(ctx context.Context) (T, error)
	Destroy(ctx context.Context, resource T)
}

// Validator reports whether a previously created resource is still
// usable. Validate must be fast and must not fail; implementations
// treat any internal error as "invalid". The pool validates on every
// borrow, including direct handoffs, and never on release, keeping the
// release path non-blocking.
type Validator[T any] interface {
	Validate(ctx context.Context, resource T) bool
}

// Config controls pool sizing and blocking behavior.
type Config struct {
	// Capacity is the maximum number of live resources (must be >= 1)
	Capacity int
	// BorrowTimeout bounds Borrow when the caller's context carries no
	// deadline of its own; 0 means wait indefinitely
	BorrowTimeout time.Duration
	// MaxIdleTime destroys resources idle longer than this; 0 disables
	// the background sweeper
	MaxIdleTime time.Duration
	// SweepInterval is how often idle resources are checked; defaults
	// to MaxIdleTime when unset
	SweepInterval time.Duration
}

// Pool is a bounded blocking resource pool. It owns at most Capacity
// live resources at any instant, validates resources on borrow and
// replaces invalid ones, blocks borrowers at capacity until a resource
// is released or discarded, and destroys everything it owns on Close.
//
// Borrowers waiting at capacity are served in FIFO order: a release
// hands its resource directly to the longest-waiting borrower rather
// than through the idle set, so sustained contention cannot starve an
// early waiter.
type Pool[T any] struct {
	cfg       Config
	factory   Factory[T]
	validator Validator[T]
	logger    *zap.Logger

	mu      sync.Mutex
	idle    []idleEntry[T]
	waiters []*waiter[T]
	created int
	closed  bool

	stats struct {
		borrows  int64
		releases int64
		created  int64
		discards int64
		timeouts int64
		waits    int64
	}

	sweepTicker *time.Ticker
	stopCh      chan struct{}
}

// idleEntry tracks when a resource was last returned so the sweeper
// can expire long-idle resources.
type idleEntry[T any] struct {
	resource T
	lastUsed time.Time
}

// waiter is one queued borrow request. Its channel is buffered so the
// completing side never blocks; each waiter is completed exactly once
// by whichever of release, discard or shutdown reaches it first.
type waiter[T any] struct {
	ch chan handoff[T]
}

// handoff carries the completion of a waiter: a resource (ok), a
// retry token after capacity headroom opened (!ok, nil err), or a
// terminal error.
type handoff[T any] struct {
	resource T
	ok       bool
	err      error
}

// Stats is a point-in-time snapshot of pool state. Created always
// equals Idle + Active, and never exceeds Capacity.
type Stats struct {
	Capacity int  `json:"capacity"`
	Created  int  `json:"created"`
	Idle     int  `json:"idle"`
	Active   int  `json:"active"`
	Waiting  int  `json:"waiting"`
	Closed   bool `json:"closed"`

	TotalBorrows  int64 `json:"total_borrows"`
	TotalReleases int64 `json:"total_releases"`
	TotalCreated  int64 `json:"total_created"`
	TotalDiscards int64 `json:"total_discards"`
	TotalTimeouts int64 `json:"total_timeouts"`
	TotalWaits    int64 `json:"total_waits"`
}

// New creates a bounded blocking pool. No resources are created until
// the first Borrow. A nil validator treats every resource as valid; a
// nil logger disables logging. When cfg.MaxIdleTime is positive a
// background sweeper destroys resources idle past that age.
func New[T any](cfg Config, factory Factory[T], validator Validator[T], logger *zap.Logger) (*Pool[T], error) {
	if factory == nil {
		return nil, cerrors.New(cerrors.ErrorTypeConfig, "pool factory is required")
	}
	if cfg.Capacity < 1 {
		return nil, cerrors.New(cerrors.ErrorTypeConfig,
			fmt.Sprintf("pool capacity must be at least 1, got %d", cfg.Capacity))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool[T]{
		cfg:       cfg,
		factory:   factory,
		validator: validator,
		logger:    logger.With(zap.String("component", "pool")),
		stopCh:    make(chan struct{}),
	}

	if cfg.MaxIdleTime > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = cfg.MaxIdleTime
		}
		p.sweepTicker = time.NewTicker(interval)
		go p.sweepLoop()
	}

	return p, nil
}

// Borrow checks a resource out of the pool. It reuses an idle resource
// when one passes validation, creates a fresh one while capacity
// allows, and otherwise blocks until a resource is released, capacity
// headroom opens, the context expires, or the pool closes.
//
// An invalid idle resource is destroyed and replaced immediately
// rather than costing the caller a blocking round; if the replacement
// itself cannot be created the factory error is returned. When the
// caller's context has no deadline the configured BorrowTimeout
// applies. Deadline expiry and cancellation surface as
// ErrPoolExhausted; borrowing from a closed pool fails with
// ErrPoolClosed.
func (p *Pool[T]) Borrow(ctx context.Context) (T, error) {
	var zero T

	if p.cfg.BorrowTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.BorrowTimeout)
			defer cancel()
		}
	}

	for {
		select {
		case <-ctx.Done():
			atomic.AddInt64(&p.stats.timeouts, 1)
			return zero, p.exhausted()
		default:
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return zero, p.closedErr()
		}

		// Reuse the most recently returned idle resource.
		if n := len(p.idle); n > 0 {
			entry := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()

			if p.validate(ctx, entry.resource) {
				atomic.AddInt64(&p.stats.borrows, 1)
				p.logger.Debug("reusing idle resource",
					zap.Duration("idle_for", time.Since(entry.lastUsed)))
				return entry.resource, nil
			}

			// Invalid: dispose of it and retry the loop, which will
			// construct a replacement while capacity allows instead of
			// sending the caller into a blocking round. A queued borrower
			// is woken too, in case this caller's context is already done.
			p.logger.Debug("discarding invalid resource")
			p.destroy(entry.resource)
			p.mu.Lock()
			p.created--
			p.wakeOneLocked()
			p.mu.Unlock()
			atomic.AddInt64(&p.stats.discards, 1)
			continue
		}

		// Nothing idle: create a resource while headroom exists. The
		// slot is reserved before the factory call so concurrent
		// borrowers can never overshoot capacity, and rolled back if
		// creation fails.
		if p.created < p.cfg.Capacity {
			p.created++
			p.mu.Unlock()

			resource, err := p.create(ctx)
			if err != nil {
				p.mu.Lock()
				p.created--
				// The freed slot may satisfy a borrower that queued
				// while we held the reservation.
				p.wakeOneLocked()
				p.mu.Unlock()
				return zero, err
			}

			atomic.AddInt64(&p.stats.borrows, 1)
			return resource, nil
		}

		// At capacity: join the FIFO wait queue.
		w := &waiter[T]{ch: make(chan handoff[T], 1)}
		p.waiters = append(p.waiters, w)
		waiting := len(p.waiters)
		p.mu.Unlock()

		atomic.AddInt64(&p.stats.waits, 1)
		p.logger.Debug("waiting for resource", zap.Int("waiting", waiting))

		select {
		case h := <-w.ch:
			if h.err != nil {
				return zero, h.err
			}
			if !h.ok {
				// Capacity headroom opened; retry from the top.
				continue
			}
			if p.validate(ctx, h.resource) {
				atomic.AddInt64(&p.stats.borrows, 1)
				p.logger.Debug("received resource from releaser")
				return h.resource, nil
			}
			p.logger.Debug("discarding invalid resource")
			p.destroy(h.resource)
			p.mu.Lock()
			p.created--
			p.wakeOneLocked()
			p.mu.Unlock()
			atomic.AddInt64(&p.stats.discards, 1)
			continue

		case <-ctx.Done():
			if p.cancelWaiter(w) {
				atomic.AddInt64(&p.stats.timeouts, 1)
				return zero, p.exhausted()
			}
			// A completion raced our cancellation; it is already in
			// flight and must not be leaked.
			h := <-w.ch
			switch {
			case h.err != nil:
				return zero, h.err
			case h.ok:
				p.Release(h.resource)
			default:
				p.mu.Lock()
				p.wakeOneLocked()
				p.mu.Unlock()
			}
			atomic.AddInt64(&p.stats.timeouts, 1)
			return zero, p.exhausted()
		}
	}
}

// BorrowHandle borrows a resource wrapped in a release-exactly-once
// Handle.
func (p *Pool[T]) BorrowHandle(ctx context.Context) (*Handle[T], error) {
	resource, err := p.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	return &Handle[T]{pool: p, resource: resource}, nil
}

// Release returns a borrowed resource to the pool. If a borrower is
// waiting the resource is handed to the longest-waiting one directly;
// otherwise it joins the idle set. After Close the resource is
// destroyed instead of being re-admitted.
func (p *Pool[T]) Release(resource T) {
	p.mu.Lock()
	if p.closed {
		p.created--
		p.mu.Unlock()
		p.destroy(resource)
		atomic.AddInt64(&p.stats.releases, 1)
		return
	}

	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		w.ch <- handoff[T]{resource: resource, ok: true}
		atomic.AddInt64(&p.stats.releases, 1)
		p.logger.Debug("handed resource to waiter")
		return
	}

	p.idle = append(p.idle, idleEntry[T]{resource: resource, lastUsed: time.Now()})
	idleLen := len(p.idle)
	p.mu.Unlock()

	atomic.AddInt64(&p.stats.releases, 1)
	p.logger.Debug("returned resource to pool", zap.Int("idle", idleLen))
}

// Discard reports a borrowed resource as broken. The resource is
// destroyed, its capacity slot is freed, and one waiting borrower is
// woken to claim the headroom.
func (p *Pool[T]) Discard(resource T) {
	p.mu.Lock()
	p.created--
	if !p.closed {
		p.wakeOneLocked()
	}
	p.mu.Unlock()

	atomic.AddInt64(&p.stats.discards, 1)
	p.destroy(resource)
	p.logger.Debug("discarded broken resource")
}

// Close shuts the pool down: every idle resource is destroyed, every
// waiting borrower fails with ErrPoolClosed, and subsequent borrows
// fail immediately. Outstanding resources are destroyed as they come
// back through Release or Discard; they are never forcibly revoked.
// Close is idempotent.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	waiters := p.waiters
	p.waiters = nil
	p.created -= len(idle)
	p.mu.Unlock()

	if p.sweepTicker != nil {
		p.sweepTicker.Stop()
	}
	close(p.stopCh)

	for _, w := range waiters {
		w.ch <- handoff[T]{err: p.closedErr()}
	}
	for _, entry := range idle {
		p.destroy(entry.resource)
	}

	p.logger.Info("pool closed",
		zap.Int("destroyed", len(idle)),
		zap.Int("aborted_waiters", len(waiters)))
}

// Stats returns a consistent snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	s := Stats{
		Capacity: p.cfg.Capacity,
		Created:  p.created,
		Idle:     len(p.idle),
		Active:   p.created - len(p.idle),
		Waiting:  len(p.waiters),
		Closed:   p.closed,
	}
	p.mu.Unlock()

	s.TotalBorrows = atomic.LoadInt64(&p.stats.borrows)
	s.TotalReleases = atomic.LoadInt64(&p.stats.releases)
	s.TotalCreated = atomic.LoadInt64(&p.stats.created)
	s.TotalDiscards = atomic.LoadInt64(&p.stats.discards)
	s.TotalTimeouts = atomic.LoadInt64(&p.stats.timeouts)
	s.TotalWaits = atomic.LoadInt64(&p.stats.waits)
	return s
}

// create invokes the factory outside the pool lock with the capacity
// slot already reserved.
func (p *Pool[T]) create(ctx context.Context) (T, error) {
	start := time.Now()
	resource, err := p.factory.Create(ctx)
	if err != nil {
		var zero T
		if cerrors.IsType(err, cerrors.ErrorTypeConnection) {
			return zero, err
		}
		return zero, cerrors.Wrap(err, cerrors.ErrorTypeConnection, "failed to create resource")
	}

	atomic.AddInt64(&p.stats.created, 1)
	p.logger.Debug("created new resource",
		zap.Duration("took", time.Since(start)),
		zap.Int64("total_created", atomic.LoadInt64(&p.stats.created)))
	return resource, nil
}

// destroy disposes a resource outside the pool lock. The factory
// contract makes destruction total, so this cannot fail.
func (p *Pool[T]) destroy(resource T) {
	ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
	defer cancel()
	p.factory.Destroy(ctx, resource)
}

func (p *Pool[T]) validate(ctx context.Context, resource T) bool {
	if p.validator == nil {
		return true
	}
	return p.validator.Validate(ctx, resource)
}

// wakeOneLocked hands a retry token to the longest-waiting borrower
// after capacity headroom opened. Callers must hold p.mu.
func (p *Pool[T]) wakeOneLocked() {
	if len(p.waiters) == 0 {
		return
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	w.ch <- handoff[T]{}
}

// cancelWaiter removes w from the wait queue. It returns false when w
// was already dequeued by a completer, in which case a completion is
// in flight and must be drained.
func (p *Pool[T]) cancelWaiter(w *waiter[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Pool[T]) closedErr() error {
	return cerrors.Wrap(ErrPoolClosed, cerrors.ErrorTypeClosed, "cannot borrow")
}

func (p *Pool[T]) exhausted() error {
	return cerrors.Wrap(ErrPoolExhausted, cerrors.ErrorTypeExhausted,
		fmt.Sprintf("no resource available within deadline (capacity %d)", p.cfg.Capacity))
}

// sweepLoop periodically expires long-idle resources.
func (p *Pool[T]) sweepLoop() {
	for {
		select {
		case <-p.sweepTicker.C:
			p.sweep()
		case <-p.stopCh:
			return
		}
	}
}

// sweep destroys idle resources unused past MaxIdleTime. Waiters are
// never affected: borrowers only queue while the idle set is empty.
func (p *Pool[T]) sweep() {
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	var expired []T
	remaining := make([]idleEntry[T], 0, len(p.idle))
	for _, entry := range p.idle {
		if now.Sub(entry.lastUsed) > p.cfg.MaxIdleTime {
			expired = append(expired, entry.resource)
		} else {
			remaining = append(remaining, entry)
		}
	}
	p.idle = remaining
	p.created -= len(expired)
	p.mu.Unlock()

	for _, resource := range expired {
		p.destroy(resource)
	}

	if len(expired) > 0 {
		p.logger.Info("swept idle resources", zap.Int("destroyed", len(expired)))
	}
}
