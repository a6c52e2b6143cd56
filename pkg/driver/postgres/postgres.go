// Package postgres provides the PostgreSQL driver for Conduit, backed
// by pgx.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/logger"
)

func init() {
	// Register the PostgreSQL driver
	driver.MustRegister(&Driver{})
}

// DriverName is the key this driver is registered under
const DriverName = "postgres"

// Driver implements driver.Driver for PostgreSQL
type Driver struct{}

// Name returns the registry key
func (d *Driver) Name() string { return DriverName }

// AcceptsURL matches the URL schemes pgx understands
func (d *Driver) AcceptsURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Connect dials a single PostgreSQL connection. The "user", "password"
// and "connect_timeout" properties override the URL; every other
// property is applied as a server runtime parameter, so
// application_name, search_path, statement_timeout and friends work as
// expected. Connection-level options such as sslmode belong in the URL.
func (d *Driver) Connect(ctx context.Context, url string, props config.Properties) (driver.Conn, error) {
	cfg, err := buildConfig(url, props)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to PostgreSQL")
	}

	logger.WithContext(ctx).Debug("PostgreSQL connection established",
		zap.String("host", cfg.Host),
		zap.Uint16("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	return &pgConn{conn: conn}, nil
}

// buildConfig parses the URL and layers the connection properties on
// top of it.
func buildConfig(url string, props config.Properties) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse PostgreSQL URL")
	}

	for key, value := range props {
		switch key {
		case config.PropUser:
			cfg.User = value
		case config.PropPassword:
			cfg.Password = value
		case config.PropConnectTimeout:
			timeout, err := parseTimeout(value)
			if err != nil {
				return nil, err
			}
			cfg.ConnectTimeout = timeout
		default:
			cfg.RuntimeParams[key] = value
		}
	}
	return cfg, nil
}

// parseTimeout accepts bare seconds in the libpq style as well as Go
// durations.
func parseTimeout(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("invalid connect_timeout %q", value))
	}
	return timeout, nil
}

// pgConn adapts *pgx.Conn to driver.Conn
type pgConn struct {
	conn *pgx.Conn
}

// Ping verifies the connection with an empty query round trip
func (c *pgConn) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "PostgreSQL ping failed")
	}
	return nil
}

// Exec runs a statement with $1-style placeholder args and returns the
// affected row count. A failure that killed the connection is reported
// as a connection error so the pool discards it instead of reusing it.
func (c *pgConn) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, statement, args...)
	if err != nil {
		if c.conn.IsClosed() {
			return 0, errors.Wrap(err, errors.ErrorTypeConnection, "PostgreSQL connection lost")
		}
		return 0, errors.Wrap(err, errors.ErrorTypeQuery, "PostgreSQL statement failed")
	}
	return tag.RowsAffected(), nil
}

// Raw exposes the underlying *pgx.Conn
func (c *pgConn) Raw() any { return c.conn }

// Close tears the connection down
func (c *pgConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
