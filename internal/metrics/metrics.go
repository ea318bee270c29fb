// Package metrics exposes dashboard aggregates and write activity in the
// Prometheus text format.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jscorp/hostpanel/internal/stats"
)

const namespace = "hostpanel"

// scrapeTimeout bounds the stats read performed on each scrape.
const scrapeTimeout = 5 * time.Second

// StatsSource computes the dashboard counters.
type StatsSource interface {
	GetStats(ctx context.Context) (stats.Stats, error)
}

// StatsSourceFunc adapts a function to StatsSource. It lets the registry be
// built before the aggregator it reads from.
type StatsSourceFunc func(ctx context.Context) (stats.Stats, error)

// GetStats calls f(ctx).
func (f StatsSourceFunc) GetStats(ctx context.Context) (stats.Stats, error) {
	return f(ctx)
}

// Metrics owns a private registry with the stats gauges, the write and
// login counters, and the Go runtime collectors.
type Metrics struct {
	registry      *prometheus.Registry
	writes        *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec
}

// New creates the registry. Stats gauges are computed from source on every
// scrape.
func New(source StatsSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_writes_total",
			Help:      "Persisted record store writes by collection and operation.",
		}, []string{"collection", "op"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.writes,
		m.loginAttempts,
		newStatsCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveWrite counts one record store write. It satisfies
// store.WriteObserver.
func (m *Metrics) ObserveWrite(collection, op string) {
	m.writes.WithLabelValues(collection, op).Inc()
}

// ObserveLogin counts a login attempt.
func (m *Metrics) ObserveLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statsCollector struct {
	source StatsSource

	packages        *prometheus.Desc
	customers       *prometheus.Desc
	orders          *prometheus.Desc
	ordersActive    *prometheus.Desc
	customersActive *prometheus.Desc
	revenueActive   *prometheus.Desc
}

func newStatsCollector(source StatsSource) *statsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &statsCollector{
		source:          source,
		packages:        desc("packages", "Packages in the catalog."),
		customers:       desc("customers", "Registered customers."),
		orders:          desc("orders", "Orders of any status."),
		ordersActive:    desc("orders_active", "Orders with status active."),
		customersActive: desc("customers_active", "Customers with status active."),
		revenueActive:   desc("revenue_active", "Sum of active order amounts in rupiah."),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packages
	ch <- c.customers
	ch <- c.orders
	ch <- c.ordersActive
	ch <- c.customersActive
	ch <- c.revenueActive
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	st, err := c.source.GetStats(ctx)
	if err != nil {
		slog.Error("metrics: failed to compute stats", "error", err)
		ch <- prometheus.NewInvalidMetric(c.packages, err)
		return
	}

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.packages, float64(st.TotalPackages))
	gauge(c.customers, float64(st.TotalCustomers))
	gauge(c.orders, float64(st.TotalOrders))
	gauge(c.ordersActive, float64(st.ActiveOrders))
	gauge(c.customersActive, float64(st.ActiveCustomers))
	gauge(c.revenueActive, float64(st.TotalRevenue))
}
