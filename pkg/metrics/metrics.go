// Package metrics exposes Conduit pool statistics as Prometheus
// metrics.
//
// # Overview
//
// Pool state lives inside the pools themselves, so the package follows
// the collector pattern: a PoolCollector samples a stats function at
// scrape time and emits constant metrics from the snapshot. Nothing is
// double-counted and no background goroutine is needed.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	if err := metrics.Attach(reg, ds.Name(), ds.Stats); err != nil {
//	    return err
//	}
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Every metric carries a "datasource" const label, so any number of
// pools can be attached to the same registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/conduit/pkg/pool"
)

// StatsFunc returns a snapshot of pool statistics. The second return
// is false while the pool has not been built yet, in which case
// nothing is exported for it. datasource.(*DataSource).Stats satisfies
// this signature directly.
type StatsFunc func() (pool.Stats, bool)

// PoolCollector exports the live statistics of one named pool. It
// implements prometheus.Collector.
type PoolCollector struct {
	stats StatsFunc

	capacity *prometheus.Desc
	created  *prometheus.Desc
	idle     *prometheus.Desc
	active   *prometheus.Desc
	waiters  *prometheus.Desc
	borrows  *prometheus.Desc
	releases *prometheus.Desc
	dials    *prometheus.Desc
	discards *prometheus.Desc
	timeouts *prometheus.Desc
	waits    *prometheus.Desc
}

// NewPoolCollector creates a collector exporting stats under the given
// datasource name. The name becomes a const label, so collectors for
// different datasources coexist in one registry.
func NewPoolCollector(name string, stats StatsFunc) *PoolCollector {
	labels := prometheus.Labels{"datasource": name}
	return &PoolCollector{
		stats: stats,
		capacity: prometheus.NewDesc(
			"conduit_pool_capacity",
			"Maximum number of pooled connections",
			nil, labels,
		),
		created: prometheus.NewDesc(
			"conduit_pool_connections",
			"Connections currently owned by the pool",
			nil, labels,
		),
		idle: prometheus.NewDesc(
			"conduit_pool_connections_idle",
			"Connections sitting idle in the pool",
			nil, labels,
		),
		active: prometheus.NewDesc(
			"conduit_pool_connections_active",
			"Connections currently lent out",
			nil, labels,
		),
		waiters: prometheus.NewDesc(
			"conduit_pool_waiters",
			"Borrowers currently blocked waiting for a connection",
			nil, labels,
		),
		borrows: prometheus.NewDesc(
			"conduit_pool_borrows_total",
			"Total connections handed out",
			nil, labels,
		),
		releases: prometheus.NewDesc(
			"conduit_pool_releases_total",
			"Total connections returned",
			nil, labels,
		),
		dials: prometheus.NewDesc(
			"conduit_pool_connections_created_total",
			"Total connections opened",
			nil, labels,
		),
		discards: prometheus.NewDesc(
			"conduit_pool_connections_discarded_total",
			"Total connections destroyed instead of reused",
			nil, labels,
		),
		timeouts: prometheus.NewDesc(
			"conduit_pool_borrow_timeouts_total",
			"Total borrows that gave up waiting",
			nil, labels,
		),
		waits: prometheus.NewDesc(
			"conduit_pool_borrow_waits_total",
			"Total borrows that had to wait for a free connection",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.created
	ch <- c.idle
	ch <- c.active
	ch <- c.waiters
	ch <- c.borrows
	ch <- c.releases
	ch <- c.dials
	ch <- c.discards
	ch <- c.timeouts
	ch <- c.waits
}

// Collect implements prometheus.Collector. An unbuilt pool exports
// nothing; it starts reporting at its first use.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s, ok := c.stats()
	if !ok {
		return
	}

	gauge := func(desc *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
	}
	counter := func(desc *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}

	gauge(c.capacity, s.Capacity)
	gauge(c.created, s.Created)
	gauge(c.idle, s.Idle)
	gauge(c.active, s.Active)
	gauge(c.waiters, s.Waiting)
	counter(c.borrows, s.TotalBorrows)
	counter(c.releases, s.TotalReleases)
	counter(c.dials, s.TotalCreated)
	counter(c.discards, s.TotalDiscards)
	counter(c.timeouts, s.TotalTimeouts)
	counter(c.waits, s.TotalWaits)
}

// Attach registers a pool collector on reg, one per datasource.
func Attach(reg prometheus.Registerer, name string, stats StatsFunc) error {
	return reg.Register(NewPoolCollector(name, stats))
}
