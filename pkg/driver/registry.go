package driver

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/logger"
)

// Registry manages driver registration and lookup
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	logger  *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
		logger:  logger.Get().With(zap.String("component", "driver_registry")),
	}
}

// Register adds a driver under its own name
func (r *Registry) Register(d Driver) error {
	if d == nil {
		return errors.New(errors.ErrorTypeConfig, "cannot register a nil driver")
	}
	name := d.Name()
	if name == "" {
		return errors.New(errors.ErrorTypeConfig, "cannot register a driver with an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("driver %s already registered", name))
	}

	r.drivers[name] = d
	r.logger.Info("driver registered", zap.String("name", name))
	return nil
}

// MustRegister is Register for init functions; it panics on error.
func (r *Registry) MustRegister(d Driver) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the driver registered under name
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	d, exists := r.drivers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("driver %s not registered", name))
	}
	return d, nil
}

// ForURL probes registered drivers in name order and returns the first
// one that accepts the URL
func (r *Registry) ForURL(url string) (Driver, error) {
	r.mu.RLock()
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if r.drivers[name].AcceptsURL(url) {
			d := r.drivers[name]
			r.mu.RUnlock()
			return d, nil
		}
	}
	r.mu.RUnlock()

	return nil, errors.New(errors.ErrorTypeConfig,
		fmt.Sprintf("no registered driver accepts URL %s", Redact(url)))
}

// Has checks if a driver is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.drivers[name]
	return exists
}

// Names returns the registered driver names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registered drivers (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = make(map[string]Driver)
}

// Global registry functions

// Register adds a driver to the global registry
func Register(d Driver) error {
	return globalRegistry.Register(d)
}

// MustRegister adds a driver to the global registry and panics on error
func MustRegister(d Driver) {
	globalRegistry.MustRegister(d)
}

// Get returns a driver from the global registry
func Get(name string) (Driver, error) {
	return globalRegistry.Get(name)
}

// ForURL resolves a driver from the global registry by URL
func ForURL(url string) (Driver, error) {
	return globalRegistry.ForURL(url)
}

// Has checks if a driver is registered in the global registry
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// Names returns the driver names registered in the global registry
func Names() []string {
	return globalRegistry.Names()
}

// GetRegistry returns the global registry instance.
// This is the primary way to access the driver registry.
func GetRegistry() *Registry {
	return globalRegistry
}
