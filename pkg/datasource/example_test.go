// Package datasource provides example usage of lazily built data
// sources.
package datasource_test

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/datasource"
	"github.com/ajitpratap0/conduit/pkg/driver"
)

// memDriver is an in-memory driver for the examples.
type memDriver struct{}

func (memDriver) Name() string { return "mem" }

func (memDriver) AcceptsURL(url string) bool { return true }

func (memDriver) Connect(_ context.Context, _ string, _ config.Properties) (driver.Conn, error) {
	return memConn{}, nil
}

type memConn struct{}

func (memConn) Ping(_ context.Context) error { return nil }

func (memConn) Exec(_ context.Context, _ string, _ ...any) (int64, error) { return 1, nil }

func (memConn) Raw() any { return nil }

func (memConn) Close(_ context.Context) error { return nil }

// Example demonstrates configuring a data source, acquiring a pooled
// connection and running a statement on it.
func Example() {
	ds := datasource.New("orders")
	_ = ds.SetDriver(memDriver{})
	_ = ds.SetURL("mem://db.internal/orders")
	_ = ds.SetCapacity(4)
	defer ds.Close()

	ctx := context.Background()

	conn, err := ds.Acquire(ctx)
	if err != nil {
		panic(err)
	}

	affected, err := conn.Exec(ctx, "UPDATE accounts SET active = true")
	if err != nil {
		panic(err)
	}
	fmt.Printf("rows affected: %d\n", affected)

	// Close returns the connection to the pool for reuse.
	_ = conn.Close()

	stats, _ := ds.Stats()
	fmt.Printf("connections created: %d\n", stats.Created)

	// Output:
	// rows affected: 1
	// connections created: 1
}

// Example_frozenConfiguration shows that configuration cannot change
// once the data source has built its pool.
func Example_frozenConfiguration() {
	ds := datasource.New("orders")
	_ = ds.SetDriver(memDriver{})
	_ = ds.SetURL("mem://db.internal/orders")
	defer ds.Close()

	// First use builds the pool and freezes the configuration.
	if err := ds.Ping(context.Background()); err != nil {
		panic(err)
	}

	err := ds.SetURL("mem://db.internal/elsewhere")
	fmt.Println(err)

	// Output:
	// validation: datasource orders is already in use, configuration is frozen
}
