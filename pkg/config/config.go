// Package config provides the configuration system for Conduit.
// It defines a single Config structure describing one data source:
// the driver identity, the connection URL, credentials, driver
// properties, and the pool sizing and timeout settings.
//
// The configuration is organized into logical sections:
//   - Credentials: Username and password injected into driver properties
//   - Pool: Capacity, borrow timeout, idle sweeping
//   - Timeouts: Connection establishment and validation deadlines
//
// Example usage:
//
//	cfg := config.New("orders")
//	cfg.Driver = "postgres"
//	cfg.URL = "postgres://localhost:5432/orders"
//	cfg.Pool.Capacity = 16
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"
)

// DefaultCapacity is the maximum number of pooled connections when the
// configuration does not specify one.
const DefaultCapacity = 32

// Config is the configuration for a single data source. A Config is
// mutable until the data source builds its pool; from that point the
// data source rejects further changes.
type Config struct {
	// Name identifies the data source instance
	Name string `yaml:"name" json:"name"`
	// Driver selects a registered driver by name; when empty the driver
	// is resolved by probing registered drivers with the URL
	Driver string `yaml:"driver" json:"driver"`
	// URL is the connection URL or DSN handed to the driver
	URL string `yaml:"url" json:"url"`

	// Credentials are merged into Properties at build time
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Properties are driver-specific key=value settings
	Properties Properties `yaml:"properties" json:"properties"`

	// Pool controls capacity and blocking behavior
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Timeouts define per-operation deadlines
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`
}

// CredentialsConfig carries the login identity for the data source.
// Values already present in Properties take precedence.
type CredentialsConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PoolConfig contains pool sizing and blocking settings.
type PoolConfig struct {
	// Capacity is the maximum number of live connections (default 32)
	Capacity int `yaml:"capacity" json:"capacity"`
	// BorrowTimeout bounds how long an acquire waits for a free
	// connection when the pool is exhausted; 0 waits indefinitely
	BorrowTimeout time.Duration `yaml:"borrow_timeout" json:"borrow_timeout"`
	// MaxIdleTime destroys connections idle longer than this; 0 disables
	// idle sweeping
	MaxIdleTime time.Duration `yaml:"max_idle_time" json:"max_idle_time"`
	// SweepInterval is how often idle connections are checked; defaults
	// to MaxIdleTime when unset
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// TimeoutConfig contains timeout settings for driver operations.
type TimeoutConfig struct {
	// Connect bounds connection establishment
	Connect time.Duration `yaml:"connect" json:"connect"`
	// Validate bounds the liveness check performed on borrow
	Validate time.Duration `yaml:"validate" json:"validate"`
}

// New creates a Config with production defaults. The driver, URL and
// credentials must be filled in by the caller before the data source
// is built.
func New(name string) *Config {
	return &Config{
		Name:       name,
		Properties: make(Properties),
		Pool: PoolConfig{
			Capacity:      DefaultCapacity,
			BorrowTimeout: 30 * time.Second,
			MaxIdleTime:   0,
			SweepInterval: 0,
		},
		Timeouts: TimeoutConfig{
			Connect:  10 * time.Second,
			Validate: 5 * time.Second,
		},
	}
}

// Validate validates the configuration for correctness.
// It checks required fields and ensures values are within acceptable
// ranges. The data source calls this before building its pool; callers
// loading configuration from a file should call it early to catch
// errors before any connection is attempted.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Pool.Capacity < 1 {
		return fmt.Errorf("pool capacity must be at least 1")
	}
	if c.Pool.BorrowTimeout < 0 {
		return fmt.Errorf("borrow_timeout cannot be negative")
	}
	if c.Pool.MaxIdleTime < 0 {
		return fmt.Errorf("max_idle_time cannot be negative")
	}
	if c.Pool.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval cannot be negative")
	}
	if c.Timeouts.Connect < 0 {
		return fmt.Errorf("connect timeout cannot be negative")
	}
	if c.Timeouts.Validate < 0 {
		return fmt.Errorf("validate timeout cannot be negative")
	}
	return nil
}

// Clone returns a deep copy of the configuration. The data source
// clones configurations handed to it so that later mutation of the
// caller's copy cannot reach the running pool.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Properties = c.Properties.Clone()
	return &clone
}

// HasCredentials returns true if a username is configured
func (c *CredentialsConfig) HasCredentials() bool {
	return c.Username != ""
}
