package datasource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/config"
	"github.com/ajitpratap0/conduit/pkg/driver"
	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/logger"
	"github.com/ajitpratap0/conduit/pkg/pool"
)

// DataSource hands out pooled database connections for one configured
// database. It is configured up front, through a Config or the Set*
// methods, and builds its connection pool lazily on the first Acquire.
// From that moment the configuration is frozen: late Set* calls fail
// instead of silently diverging from the running pool.
//
// All methods are safe for concurrent use.
type DataSource struct {
	// mu guards the configuration and the build and close transitions.
	// The built runtime is published through rt so that the Acquire
	// fast path never takes the lock.
	mu     sync.Mutex
	cfg    *config.Config
	drv    driver.Driver
	closed bool

	rt     atomic.Pointer[runtime]
	logger *zap.Logger
}

// runtime is the immutable built state: the resolved driver and the
// pool feeding on it.
type runtime struct {
	drv  driver.Driver
	pool *pool.Pool[driver.Conn]
}

// New creates an unconfigured data source. Configure it with the Set*
// methods before the first Acquire.
func New(name string) *DataSource {
	return &DataSource{
		cfg:    config.New(name),
		logger: logger.Get().With(zap.String("datasource", name)),
	}
}

// NewFromConfig creates a data source from a complete configuration.
// The configuration is copied; mutating cfg afterwards has no effect.
func NewFromConfig(cfg *config.Config) (*DataSource, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "datasource config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig,
			fmt.Sprintf("invalid config for datasource %s", cfg.Name))
	}
	return &DataSource{
		cfg:    cfg.Clone(),
		logger: logger.Get().With(zap.String("datasource", cfg.Name)),
	}, nil
}

// Name returns the data source name.
func (ds *DataSource) Name() string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.cfg.Name
}

// DriverName returns the resolved driver name once the data source is
// built, and the configured driver name before that.
func (ds *DataSource) DriverName() string {
	if rt := ds.rt.Load(); rt != nil {
		return rt.drv.Name()
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.cfg.Driver
}

// String renders the data source identity with the URL password
// redacted.
func (ds *DataSource) String() string {
	name := ds.Name()
	ds.mu.Lock()
	url := ds.cfg.URL
	ds.mu.Unlock()
	return fmt.Sprintf("%s (driver=%s, url=%s)", name, ds.DriverName(), driver.Redact(url))
}

// mutableLocked reports whether the configuration can still change.
// Callers must hold ds.mu.
func (ds *DataSource) mutableLocked() error {
	if ds.closed {
		return errors.Wrap(pool.ErrPoolClosed, errors.ErrorTypeClosed,
			fmt.Sprintf("datasource %s is closed", ds.cfg.Name))
	}
	if ds.rt.Load() != nil {
		return errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("datasource %s is already in use, configuration is frozen", ds.cfg.Name))
	}
	return nil
}

// SetDriver pins an explicit driver instance, bypassing the registry.
func (ds *DataSource) SetDriver(d driver.Driver) error {
	if d == nil {
		return errors.New(errors.ErrorTypeConfig, "driver cannot be nil")
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.drv = d
	ds.cfg.Driver = d.Name()
	return nil
}

// SetDriverName selects a registered driver by name.
func (ds *DataSource) SetDriverName(name string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.drv = nil
	ds.cfg.Driver = name
	return nil
}

// SetURL sets the connection URL or DSN.
func (ds *DataSource) SetURL(url string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.URL = url
	return nil
}

// SetUsername sets the login user injected into the driver properties.
func (ds *DataSource) SetUsername(username string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Credentials.Username = username
	return nil
}

// SetPassword sets the login password injected into the driver
// properties.
func (ds *DataSource) SetPassword(password string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Credentials.Password = password
	return nil
}

// SetCapacity sets the maximum number of pooled connections.
func (ds *DataSource) SetCapacity(n int) error {
	if n < 1 {
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("capacity must be at least 1, got %d", n))
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Pool.Capacity = n
	return nil
}

// SetBorrowTimeout bounds how long Acquire waits at capacity; 0 waits
// indefinitely.
func (ds *DataSource) SetBorrowTimeout(d time.Duration) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Pool.BorrowTimeout = d
	return nil
}

// SetMaxIdleTime enables idle sweeping: connections idle longer than d
// are destroyed. 0 disables sweeping.
func (ds *DataSource) SetMaxIdleTime(d time.Duration) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Pool.MaxIdleTime = d
	return nil
}

// SetConnectTimeout bounds connection establishment.
func (ds *DataSource) SetConnectTimeout(d time.Duration) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Timeouts.Connect = d
	return nil
}

// SetValidateTimeout bounds the liveness check performed on borrow.
func (ds *DataSource) SetValidateTimeout(d time.Duration) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Timeouts.Validate = d
	return nil
}

// SetConnectionProperties replaces the driver properties with the
// parsed form of a "key1=value1;key2=value2" string.
func (ds *DataSource) SetConnectionProperties(s string) error {
	props, err := config.ParseProperties(s)
	if err != nil {
		return err
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	ds.cfg.Properties = props
	return nil
}

// SetProperty sets a single driver property.
func (ds *DataSource) SetProperty(key, value string) error {
	if key == "" {
		return errors.New(errors.ErrorTypeConfig, "property key cannot be empty")
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.mutableLocked(); err != nil {
		return err
	}
	if ds.cfg.Properties == nil {
		ds.cfg.Properties = make(config.Properties)
	}
	ds.cfg.Properties[key] = value
	return nil
}

// Acquire checks a connection out of the pool, building the pool on
// first use. The connection must be returned with Close, or with
// Discard when the caller knows it is broken. Acquire blocks at
// capacity until a connection frees up, the context expires, or the
// configured borrow timeout elapses.
func (ds *DataSource) Acquire(ctx context.Context) (*Conn, error) {
	rt, err := ds.runtime()
	if err != nil {
		return nil, err
	}
	h, err := rt.pool.BorrowHandle(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{handle: h}, nil
}

// Ping acquires a connection, pings it and returns it. It builds the
// pool on first use, so it doubles as an eager initialization check.
func (ds *DataSource) Ping(ctx context.Context) error {
	conn, err := ds.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return conn.Ping(ctx)
}

// Stats returns a snapshot of the pool counters. The second return is
// false while the pool has not been built yet.
func (ds *DataSource) Stats() (pool.Stats, bool) {
	rt := ds.rt.Load()
	if rt == nil {
		return pool.Stats{}, false
	}
	return rt.pool.Stats(), true
}

// Close shuts the data source down. Idle connections are destroyed,
// blocked and future Acquires fail, and connections still in use are
// destroyed as they are returned. Close is idempotent.
func (ds *DataSource) Close() {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return
	}
	ds.closed = true
	rt := ds.rt.Load()
	ds.mu.Unlock()

	if rt != nil {
		rt.pool.Close()
	}
	ds.logger.Info("datasource closed")
}

// runtime returns the built state, building it on first call. A failed
// build leaves the data source unbuilt and the configuration mutable,
// so the caller can fix the configuration and try again.
func (ds *DataSource) runtime() (*runtime, error) {
	if rt := ds.rt.Load(); rt != nil {
		return rt, nil
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.closed {
		return nil, errors.Wrap(pool.ErrPoolClosed, errors.ErrorTypeClosed,
			fmt.Sprintf("datasource %s is closed", ds.cfg.Name))
	}
	// Another goroutine may have finished the build while this one was
	// waiting on the lock.
	if rt := ds.rt.Load(); rt != nil {
		return rt, nil
	}

	rt, err := ds.build()
	if err != nil {
		return nil, err
	}
	ds.rt.Store(rt)
	return rt, nil
}

// build validates the configuration, resolves the driver and
// constructs the pool. Callers must hold ds.mu.
func (ds *DataSource) build() (*runtime, error) {
	if err := ds.cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig,
			fmt.Sprintf("invalid config for datasource %s", ds.cfg.Name))
	}

	drv, err := ds.resolveDriver()
	if err != nil {
		return nil, err
	}

	props := ds.buildProperties()

	factory := &connFactory{
		name:    ds.cfg.Name,
		drv:     drv,
		url:     ds.cfg.URL,
		props:   props,
		connect: ds.cfg.Timeouts.Connect,
		logger:  ds.logger,
	}
	validator := &connValidator{
		timeout: ds.cfg.Timeouts.Validate,
		logger:  ds.logger,
	}

	p, err := pool.New[driver.Conn](pool.Config{
		Capacity:      ds.cfg.Pool.Capacity,
		BorrowTimeout: ds.cfg.Pool.BorrowTimeout,
		MaxIdleTime:   ds.cfg.Pool.MaxIdleTime,
		SweepInterval: ds.cfg.Pool.SweepInterval,
	}, factory, validator, ds.logger)
	if err != nil {
		return nil, err
	}

	ds.logger.Info("datasource initialized",
		zap.String("driver", drv.Name()),
		zap.String("url", driver.Redact(ds.cfg.URL)),
		zap.Int("capacity", ds.cfg.Pool.Capacity))

	return &runtime{drv: drv, pool: p}, nil
}

// resolveDriver picks the driver: an explicit instance wins, then the
// configured name, then a registry probe by URL.
func (ds *DataSource) resolveDriver() (driver.Driver, error) {
	if ds.drv != nil {
		return ds.drv, nil
	}
	if ds.cfg.Driver != "" {
		return driver.Get(ds.cfg.Driver)
	}
	return driver.ForURL(ds.cfg.URL)
}

// buildProperties snapshots the driver properties with credentials
// merged in. Explicitly configured properties win over injected
// credentials.
func (ds *DataSource) buildProperties() config.Properties {
	props := ds.cfg.Properties.Clone()
	if props == nil {
		props = make(config.Properties)
	}

	creds := make(config.Properties, 2)
	if ds.cfg.Credentials.Username != "" {
		creds[config.PropUser] = ds.cfg.Credentials.Username
	}
	if ds.cfg.Credentials.Password != "" {
		creds[config.PropPassword] = ds.cfg.Credentials.Password
	}
	if ds.cfg.Credentials.Password != "" && ds.cfg.Credentials.Username == "" {
		ds.logger.Warn("password configured without username")
	}
	props.Merge(creds)
	return props
}
