// Package pool implements a bounded, blocking resource pool that is
// central to Conduit's connection management. It caps the number of
// live resources at a fixed capacity, hands idle resources back out in
// LIFO order, and parks borrowers in a FIFO queue when the pool is
// saturated instead of failing or over-allocating.
//
// Architecture
//
// The pool uses Go generics to manage any resource type T. Resource
// construction and destruction are delegated to a Factory, and an
// optional Validator screens resources on the way out so that callers
// never receive one that has gone stale while idle.
//
// Core Types:
//
//   - Pool[T]: the bounded blocking pool
//   - Factory[T]: creates and destroys resources
//   - Validator[T]: vets resources before they are lent out
//   - Handle[T]: release-exactly-once wrapper around a borrowed resource
//
// Lifecycle
//
// A resource is always in exactly one of three states: idle in the
// pool, lent to a borrower, or destroyed. Capacity accounting covers
// idle and lent resources together, so
//
//	idle + lent <= capacity
//
// holds at all times, including while a new resource is being dialed.
//
// Usage Patterns
//
// Basic borrow and release:
//
//	p, err := pool.New[*Conn](pool.Config{Capacity: 16}, factory, validator, logger)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	conn, err := p.Borrow(ctx)
//	if err != nil {
//		return err
//	}
//	defer p.Release(conn)
//
// Borrowing through a handle when the resource may outlive the scope
// that acquired it:
//
//	h, err := p.BorrowHandle(ctx)
//	if err != nil {
//		return err
//	}
//	defer h.Release()
//
//	use(h.Resource())
//
// A resource that misbehaved should not be returned to the idle set:
//
//	if err := conn.Ping(ctx); err != nil {
//		p.Discard(conn)
//		return err
//	}
//	p.Release(conn)
//
// Blocking and Deadlines
//
// Borrow blocks while the pool is saturated. The wait is bounded by the
// caller's context deadline, or by Config.BorrowTimeout when the
// context carries none. An expired wait fails with ErrPoolExhausted;
// borrowing from a closed pool fails with ErrPoolClosed. Both are
// classified through pkg/errors, so callers can branch on
// errors.IsType as well as stdlib errors.Is.
//
// Idle Expiry
//
// When Config.MaxIdleTime is set, a background sweeper destroys idle
// resources that have not been used within that window, shrinking the
// pool back down after load spikes. Expiry never touches lent
// resources.
//
// Stats
//
// Stats returns a point-in-time snapshot for monitoring:
//   - created, idle, active, waiting: current occupancy
//   - total_borrows, total_releases, total_created, total_discards,
//     total_timeouts, total_waits: lifetime counters
//
// These feed the Prometheus collector in pkg/metrics.
package pool
