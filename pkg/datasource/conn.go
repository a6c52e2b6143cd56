package datasource

import (
	"context"

	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/pool"
)

// Conn is a pooled database connection checked out of a DataSource.
// Close returns it to the pool exactly once; closing twice fails with
// pool.ErrAlreadyReleased. A connection whose ping or statement failed
// at the transport level is destroyed on Close instead of being
// returned, so broken connections never re-enter circulation.
//
// Conn is not safe for concurrent use.
type Conn struct {
	handle *pool.Handle[driver.Conn]
}

// Ping verifies the connection is alive. A failed ping marks the
// connection broken.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.handle.Resource().Ping(ctx); err != nil {
		c.handle.MarkBroken()
		return err
	}
	return nil
}

// Exec runs a single statement, binding args to the driver's native
// placeholders, and returns the number of rows it affected. Transport
// failures mark the connection broken; statement errors leave it
// usable.
func (c *Conn) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	affected, err := c.handle.Resource().Exec(ctx, statement, args...)
	if err != nil && errors.IsType(err, errors.ErrorTypeConnection) {
		c.handle.MarkBroken()
	}
	return affected, err
}

// Raw exposes the driver-specific connection object, e.g. *pgx.Conn
// for the postgres driver. The caller must not close it.
func (c *Conn) Raw() any {
	return c.handle.Resource().Raw()
}

// Close returns the connection to the pool, or destroys it when it was
// marked broken. The second and later calls fail.
func (c *Conn) Close() error {
	return c.handle.Release()
}

// Discard destroys the connection and frees its pool slot. Use it when
// the caller knows the connection is beyond repair.
func (c *Conn) Discard() error {
	return c.handle.Discard()
}
