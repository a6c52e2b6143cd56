// Package mysql provides the MySQL driver for Conduit, backed by
// go-sql-driver. Connections are dialed through the driver's connector
// directly rather than database/sql, so pooling stays in Conduit's
// hands.
package mysql

import (
	"context"
	sqldriver "database/sql/driver"
	"fmt"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/logger"
)

func init() {
	// Register the MySQL driver
	driver.MustRegister(&Driver{})
}

// DriverName is the key this driver is registered under
const DriverName = "mysql"

const scheme = "mysql://"

// Driver implements driver.Driver for MySQL
type Driver struct{}

// Name returns the registry key
func (d *Driver) Name() string { return DriverName }

// AcceptsURL matches mysql:// URLs. Native DSNs in the
// user:password@tcp(host:port)/dbname form are accepted by Connect but
// not probed for, so URL-based driver resolution stays unambiguous.
func (d *Driver) AcceptsURL(url string) bool {
	return strings.HasPrefix(url, scheme)
}

// Connect dials a single MySQL connection. The "user", "password" and
// "connect_timeout" properties override the URL; every other property
// is merged in as a DSN parameter, so driver options like parseTime
// and session variables like sql_mode both work.
func (d *Driver) Connect(ctx context.Context, url string, props config.Properties) (driver.Conn, error) {
	cfg, err := buildConfig(url, props)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to prepare MySQL connector")
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to MySQL")
	}

	logger.WithContext(ctx).Debug("MySQL connection established",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.DBName),
		zap.String("user", cfg.User))

	return &myConn{conn: conn}, nil
}

// buildConfig parses the URL or DSN and layers the connection
// properties on top of it.
func buildConfig(url string, props config.Properties) (*mysql.Config, error) {
	dsn := url
	if strings.HasPrefix(url, scheme) {
		var err error
		dsn, err = dsnFromURL(url)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse MySQL DSN")
	}

	extra := make(map[string]string)
	for key, value := range props {
		switch key {
		case config.PropUser:
			cfg.User = value
		case config.PropPassword:
			cfg.Passwd = value
		case config.PropConnectTimeout:
			timeout, err := parseTimeout(value)
			if err != nil {
				return nil, err
			}
			cfg.Timeout = timeout
		default:
			extra[key] = value
		}
	}

	if len(extra) > 0 {
		// Feed leftover properties back through the DSN parser so that
		// driver options land on their typed fields and only true
		// session variables reach the server.
		if cfg.Params == nil {
			cfg.Params = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			cfg.Params[k] = v
		}
		cfg, err = mysql.ParseDSN(cfg.FormatDSN())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid MySQL connection properties")
		}
	}
	return cfg, nil
}

// dsnFromURL converts a mysql:// URL into the DSN form the driver
// parses natively.
func dsnFromURL(raw string) (string, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse MySQL URL")
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			cfg.Passwd = password
		}
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[key] = values[0]
	}
	return cfg.FormatDSN(), nil
}

// parseTimeout accepts bare seconds as well as Go durations.
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

// myConn adapts the go-sql-driver connection to driver.Conn
type myConn struct {
	conn sqldriver.Conn
}

// Ping verifies the connection is still alive
func (c *myConn) Ping(ctx context.Context) error {
	pinger, ok := c.conn.(sqldriver.Pinger)
	if !ok {
		return errors.New(errors.ErrorTypeInternal, "MySQL connection does not support ping")
	}
	if err := pinger.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "MySQL ping failed")
	}
	return nil
}

// Exec runs a statement and returns the affected row count. Args are
// bound to ?-placeholders through a server-side prepared statement. A
// failure that killed the connection is reported as a connection error
// so the pool discards it instead of reusing it.
func (c *myConn) Exec(ctx context.Context, statement string, args ...any) (int64, error) {
	var result sqldriver.Result
	var err error
	if len(args) == 0 {
		execer, ok := c.conn.(sqldriver.ExecerContext)
		if !ok {
			return 0, errors.New(errors.ErrorTypeInternal, "MySQL connection does not support exec")
		}
		result, err = execer.ExecContext(ctx, statement, nil)
	} else {
		result, err = c.execPrepared(ctx, statement, args)
	}
	if err != nil {
		if cerr, ok := err.(*errors.Error); ok {
			return 0, cerr
		}
		if err == sqldriver.ErrBadConn || err == mysql.ErrInvalidConn {
			return 0, errors.Wrap(err, errors.ErrorTypeConnection, "MySQL connection lost")
		}
		return 0, errors.Wrap(err, errors.ErrorTypeQuery, "MySQL statement failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return affected, nil
}

// execPrepared binds args through the binary protocol. The raw
// connection refuses inline args unless interpolation is enabled, so a
// one-shot prepared statement is the reliable path.
func (c *myConn) execPrepared(ctx context.Context, statement string, args []any) (sqldriver.Result, error) {
	preparer, ok := c.conn.(sqldriver.ConnPrepareContext)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "MySQL connection does not support prepared statements")
	}

	stmt, err := preparer.PrepareContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()

	execer, ok := stmt.(sqldriver.StmtExecContext)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "MySQL statement does not support exec")
	}

	nvs := make([]sqldriver.NamedValue, len(args))
	checker, hasChecker := c.conn.(sqldriver.NamedValueChecker)
	for i, arg := range args {
		nv := sqldriver.NamedValue{Ordinal: i + 1, Value: arg}
		if hasChecker {
			if err := checker.CheckNamedValue(&nv); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeQuery,
					fmt.Sprintf("unsupported argument %d", i+1))
			}
		}
		nvs[i] = nv
	}
	return execer.ExecContext(ctx, nvs)
}

// Raw exposes the underlying database/sql/driver.Conn
func (c *myConn) Raw() any { return c.conn }

// Close tears the connection down
func (c *myConn) Close(_ context.Context) error {
	return c.conn.Close()
}
