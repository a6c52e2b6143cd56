// Package driver defines the contract between Conduit data sources and
// the database clients that back them, plus the registry that maps
// driver names and URLs to implementations.
//
// Drivers register themselves in init, so enabling one is a blank
// import away:
//
//	import _ "github.com/ajitpratap0/conduit/pkg/driver/postgres"
package driver

import (
	"context"
	"strings"

	"github.com/ajitpratap0/conduit/pkg/config"
)

// Conn is one live database connection. Connections are not safe for
// concurrent use; the pool above this layer guarantees single
// ownership while a connection is lent out.
type Conn interface {
	// Ping verifies the connection is still alive. A failed ping marks
	// the connection for replacement.
	Ping(ctx context.Context) error

	// Exec runs a single statement and returns the number of rows it
	// affected, or -1 when the driver cannot tell. Args are bound to the
	// statement's placeholders in the driver's native syntax ($1 for
	// PostgreSQL, ? for MySQL).
	Exec(ctx context.Context, statement string, args ...any) (int64, error)

	// Raw exposes the underlying client object for driver-specific
	// use. The caller must not close it; ownership stays with Conn.
	Raw() any

	// Close tears the connection down. It is called at most once.
	Close(ctx context.Context) error
}

// Driver dials connections for one database family.
type Driver interface {
	// Name is the key the driver is registered under, e.g. "postgres".
	Name() string

	// AcceptsURL reports whether this driver understands the URL. It
	// must be a cheap syntactic check with no I/O.
	AcceptsURL(url string) bool

	// Connect dials a new connection. Properties carry per-connection
	// settings beyond the URL; the "user" and "password" keys override
	// any credentials embedded in the URL.
	Connect(ctx context.Context, url string, props config.Properties) (Conn, error)
}

// Redact masks the password portion of a connection URL so it can be
// logged or embedded in error messages.
func Redact(url string) string {
	rest := url
	prefix := ""
	if i := strings.Index(url, "://"); i >= 0 {
		prefix = url[:i+3]
		rest = url[i+3:]
	}

	authority := rest
	if slash := strings.Index(rest, "/"); slash >= 0 {
		authority = rest[:slash]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return url
	}

	userinfo := authority[:at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return url
	}
	return prefix + userinfo[:colon] + ":****" + rest[at:]
}
