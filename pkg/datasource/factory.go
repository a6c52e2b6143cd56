package datasource

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/logger"
)

// connFactory adapts a resolved driver to pool.Factory. It applies the
// configured connect timeout on creation, tags the dial context so
// driver-side logs carry the datasource and driver names, and absorbs
// close failures on destruction, since the pool treats destruction as
// infallible.
type connFactory struct {
	name    string
	drv     driver.Driver
	url     string
	props   config.Properties
	connect time.Duration
	logger  *zap.Logger
}

func (f *connFactory) Create(ctx context.Context) (driver.Conn, error) {
	ctx = context.WithValue(ctx, logger.DataSourceKey, f.name)
	ctx = context.WithValue(ctx, logger.DriverKey, f.drv.Name())
	if f.connect > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.connect)
		defer cancel()
	}
	return f.drv.Connect(ctx, f.url, f.props)
}

func (f *connFactory) Destroy(ctx context.Context, conn driver.Conn) {
	if err := conn.Close(ctx); err != nil {
		f.logger.Warn("failed to close connection", zap.Error(err))
	}
}

// connValidator vets idle connections with a bounded ping before they
// are lent out again.
type connValidator struct {
	timeout time.Duration
	logger  *zap.Logger
}

func (v *connValidator) Validate(ctx context.Context, conn driver.Conn) bool {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	if err := conn.Ping(ctx); err != nil {
		v.logger.Debug("connection failed validation", zap.Error(err))
		return false
	}
	return true
}
