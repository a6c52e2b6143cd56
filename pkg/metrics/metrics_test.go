package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/conduit/pkg/pool"
	"github.com/ajitpratap0/conduit/pkg/testutil"
)

func fixedStats(s pool.Stats) StatsFunc {
	return func() (pool.Stats, bool) { return s, true }
}

func TestPoolCollector_ExportsSnapshot(t *testing.T) {
	c := NewPoolCollector("orders", fixedStats(pool.Stats{
		Capacity:      8,
		Created:       5,
		Idle:          3,
		Active:        2,
		Waiting:       1,
		TotalBorrows:  120,
		TotalReleases: 118,
		TotalCreated:  9,
		TotalDiscards: 4,
		TotalTimeouts: 2,
		TotalWaits:    7,
	}))

	expected := `
		# HELP conduit_pool_borrow_timeouts_total Total borrows that gave up waiting
		# TYPE conduit_pool_borrow_timeouts_total counter
		conduit_pool_borrow_timeouts_total{datasource="orders"} 2
		# HELP conduit_pool_borrow_waits_total Total borrows that had to wait for a free connection
		# TYPE conduit_pool_borrow_waits_total counter
		conduit_pool_borrow_waits_total{datasource="orders"} 7
		# HELP conduit_pool_borrows_total Total connections handed out
		# TYPE conduit_pool_borrows_total counter
		conduit_pool_borrows_total{datasource="orders"} 120
		# HELP conduit_pool_capacity Maximum number of pooled connections
		# TYPE conduit_pool_capacity gauge
		conduit_pool_capacity{datasource="orders"} 8
		# HELP conduit_pool_connections Connections currently owned by the pool
		# TYPE conduit_pool_connections gauge
		conduit_pool_connections{datasource="orders"} 5
		# HELP conduit_pool_connections_active Connections currently lent out
		# TYPE conduit_pool_connections_active gauge
		conduit_pool_connections_active{datasource="orders"} 2
		# HELP conduit_pool_connections_created_total Total connections opened
		# TYPE conduit_pool_connections_created_total counter
		conduit_pool_connections_created_total{datasource="orders"} 9
		# HELP conduit_pool_connections_discarded_total Total connections destroyed instead of reused
		# TYPE conduit_pool_connections_discarded_total counter
		conduit_pool_connections_discarded_total{datasource="orders"} 4
		# HELP conduit_pool_connections_idle Connections sitting idle in the pool
		# TYPE conduit_pool_connections_idle gauge
		conduit_pool_connections_idle{datasource="orders"} 3
		# HELP conduit_pool_releases_total Total connections returned
		# TYPE conduit_pool_releases_total counter
		conduit_pool_releases_total{datasource="orders"} 118
		# HELP conduit_pool_waiters Borrowers currently blocked waiting for a connection
		# TYPE conduit_pool_waiters gauge
		conduit_pool_waiters{datasource="orders"} 1
	`
	require.NoError(t, promtest.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestPoolCollector_UnbuiltPoolExportsNothing(t *testing.T) {
	c := NewPoolCollector("lazy", func() (pool.Stats, bool) {
		return pool.Stats{}, false
	})

	assert.Equal(t, 0, promtest.CollectAndCount(c))
}

func TestAttach_MultipleDatasources(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()

	require.NoError(t, Attach(reg, "orders", fixedStats(pool.Stats{Capacity: 4})))
	require.NoError(t, Attach(reg, "billing", fixedStats(pool.Stats{Capacity: 8})))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 11)
	for _, mf := range families {
		assert.Len(t, mf.GetMetric(), 2, "family %s should carry one series per datasource", mf.GetName())
	}

	// The datasource label is what keeps collectors apart, so the same
	// name twice must be rejected.
	err = Attach(reg, "orders", fixedStats(pool.Stats{}))
	require.Error(t, err)
}

type unitFactory struct{}

func (unitFactory) Create(ctx context.Context) (int, error)   { return 1, nil }
func (unitFactory) Destroy(ctx context.Context, resource int) {}

func TestPoolCollector_TracksLivePool(t *testing.T) {
	p, err := pool.New[int](pool.Config{Capacity: 4}, unitFactory{}, nil, testutil.TestLogger(t))
	require.NoError(t, err)
	defer p.Close()

	c := NewPoolCollector("live", func() (pool.Stats, bool) { return p.Stats(), true })

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := p.Borrow(ctx)
	require.NoError(t, err)
	b, err := p.Borrow(ctx)
	require.NoError(t, err)
	p.Release(b)

	expected := `
		# HELP conduit_pool_borrows_total Total connections handed out
		# TYPE conduit_pool_borrows_total counter
		conduit_pool_borrows_total{datasource="live"} 2
		# HELP conduit_pool_connections_active Connections currently lent out
		# TYPE conduit_pool_connections_active gauge
		conduit_pool_connections_active{datasource="live"} 1
		# HELP conduit_pool_connections_idle Connections sitting idle in the pool
		# TYPE conduit_pool_connections_idle gauge
		conduit_pool_connections_idle{datasource="live"} 1
	`
	require.NoError(t, promtest.CollectAndCompare(c, strings.NewReader(expected),
		"conduit_pool_connections_active",
		"conduit_pool_connections_idle",
		"conduit_pool_borrows_total",
	))

	p.Release(a)
}
