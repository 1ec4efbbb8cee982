package esclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*poolCollector)(nil)

// poolCollector exports Pool.Stats as Prometheus metrics.
type poolCollector struct {
	pool *Pool

	workers   *prometheus.Desc
	active    *prometheus.Desc
	queued    *prometheus.Desc
	completed *prometheus.Desc
	failed    *prometheus.Desc
	panicked  *prometheus.Desc
}

// NewPoolCollector returns a collector for pool. client is exported as the
// "client" constant label.
func NewPoolCollector(pool *Pool, client string) prometheus.Collector {
	labels := prometheus.Labels{"client": client}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("esclient", "pool", name), help, nil, labels)
	}
	return &poolCollector{
		pool:      pool,
		workers:   desc("workers", "Maximum number of concurrently running requests."),
		active:    desc("active", "Requests currently running."),
		queued:    desc("queued", "Requests waiting for a worker."),
		completed: desc("completed_total", "Requests that completed successfully."),
		failed:    desc("failed_total", "Requests that completed with an error."),
		panicked:  desc("panicked_total", "Requests whose work panicked."),
	}
}

// Describe implements prometheus.Collector.
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.active
	ch <- c.queued
	ch <- c.completed
	ch <- c.failed
	ch <- c.panicked
}

// Collect implements prometheus.Collector.
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(s.Active))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.Failed))
	ch <- prometheus.MustNewConstMetric(c.panicked, prometheus.CounterValue, float64(s.Panicked))
}
