// Package pool provides example usage of the bounded blocking pool.
package pool_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajitpratap0/conduit/pkg/pool"
)

// memoryFactory hands out integer-backed resources, standing in for a
// real connection dialer.
type memoryFactory struct {
	next int
}

func (f *memoryFactory) Create(_ context.Context) (int, error) {
	f.next++
	return f.next, nil
}

func (f *memoryFactory) Destroy(_ context.Context, _ int) {}

// Example demonstrates the borrow and release cycle. Resources are
// created lazily and reused across borrows.
func Example() {
	p, err := pool.New[int](pool.Config{Capacity: 2}, &memoryFactory{}, nil, nil)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	ctx := context.Background()

	// The first borrow creates a resource.
	conn, err := p.Borrow(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("borrowed resource %d\n", conn)
	p.Release(conn)

	// The second borrow reuses it instead of creating another.
	conn, err = p.Borrow(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("borrowed resource %d again\n", conn)
	p.Release(conn)

	fmt.Printf("resources created: %d\n", p.Stats().Created)

	// Output:
	// borrowed resource 1
	// borrowed resource 1 again
	// resources created: 1
}

// ExamplePool_BorrowHandle shows the release-exactly-once handle. The
// second release is rejected instead of corrupting the pool.
func ExamplePool_BorrowHandle() {
	p, err := pool.New[int](pool.Config{Capacity: 1}, &memoryFactory{}, nil, nil)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	h, err := p.BorrowHandle(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Printf("using resource %d\n", h.Resource())
	fmt.Printf("first release: %v\n", h.Release())
	fmt.Printf("second release rejected: %v\n", errors.Is(h.Release(), pool.ErrAlreadyReleased))

	// Output:
	// using resource 1
	// first release: <nil>
	// second release rejected: true
}

// ExamplePool_Discard replaces a broken resource. Discarding frees the
// capacity slot so the next borrow dials a fresh one.
func ExamplePool_Discard() {
	p, err := pool.New[int](pool.Config{Capacity: 1}, &memoryFactory{}, nil, nil)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	ctx := context.Background()

	conn, err := p.Borrow(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("borrowed resource %d\n", conn)

	// The resource misbehaved; destroy it instead of returning it.
	p.Discard(conn)

	conn, err = p.Borrow(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("replacement resource %d\n", conn)
	p.Release(conn)

	// Output:
	// borrowed resource 1
	// replacement resource 2
}
