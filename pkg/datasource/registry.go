package datasource

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/logger"
)

// Registry tracks named data sources so that application code and the
// CLI can look them up without threading instances around.
type Registry struct {
	sources *xsync.MapOf[string, *DataSource]
	logger  *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new data source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: xsync.NewMapOf[string, *DataSource](),
		logger:  logger.Get().With(zap.String("component", "datasource_registry")),
	}
}

// Add registers a data source under its name
func (r *Registry) Add(ds *DataSource) error {
	if ds == nil {
		return errors.New(errors.ErrorTypeConfig, "cannot register a nil datasource")
	}
	name := ds.Name()

	if _, loaded := r.sources.LoadOrStore(name, ds); loaded {
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("datasource %s already registered", name))
	}

	r.logger.Info("datasource registered", zap.String("name", name))
	return nil
}

// Get returns the data source registered under name
func (r *Registry) Get(name string) (*DataSource, error) {
	ds, ok := r.sources.Load(name)
	if !ok {
		return nil, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("datasource %s not registered", name))
	}
	return ds, nil
}

// Remove detaches a data source from the registry and returns it. The
// caller decides whether to close it. Removing an unknown name returns
// nil.
func (r *Registry) Remove(name string) *DataSource {
	ds, _ := r.sources.LoadAndDelete(name)
	return ds
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	var names []string
	r.sources.Range(func(name string, _ *DataSource) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// All returns the registered data sources sorted by name
func (r *Registry) All() []*DataSource {
	var all []*DataSource
	r.sources.Range(func(_ string, ds *DataSource) bool {
		all = append(all, ds)
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// CloseAll closes every registered data source and empties the
// registry
func (r *Registry) CloseAll() {
	r.sources.Range(func(name string, ds *DataSource) bool {
		ds.Close()
		r.sources.Delete(name)
		return true
	})
	r.logger.Info("all datasources closed")
}

// Global registry functions

// Add registers a data source in the global registry
func Add(ds *DataSource) error {
	return globalRegistry.Add(ds)
}

// Get returns a data source from the global registry
func Get(name string) (*DataSource, error) {
	return globalRegistry.Get(name)
}

// Remove detaches a data source from the global registry
func Remove(name string) *DataSource {
	return globalRegistry.Remove(name)
}

// Names returns the names registered in the global registry
func Names() []string {
	return globalRegistry.Names()
}

// All returns the data sources registered in the global registry
func All() []*DataSource {
	return globalRegistry.All()
}

// CloseAll closes every data source in the global registry
func CloseAll() {
	globalRegistry.CloseAll()
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}
