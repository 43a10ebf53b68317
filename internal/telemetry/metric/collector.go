package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
)

// AcceptorStats is satisfied by *acceptor.Acceptor.
type AcceptorStats interface {
	Stats() acceptor.Stats
}

// PoolStats is satisfied by *workerpool.Pool.
type PoolStats interface {
	Stats() workerpool.Stats
}

var (
	descAccepted = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "accepted_total"),
		"Connections admitted and dispatched to a worker.",
		nil, nil)
	descRejected = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "rejected_total"),
		"Connections rejected by a socket filter.",
		[]string{"filter"}, nil)
	descDropped = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "dropped_total"),
		"Connections refused during shutdown or when no worker could take them.",
		nil, nil)
	descActive = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "active"),
		"Connections currently tracked.",
		nil, nil)
	descTeardowns = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "teardowns_total"),
		"Tracked connections released.",
		nil, nil)
	descTeardownErrors = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "connections", "teardown_errors_total"),
		"Teardown steps that failed.",
		[]string{"step"}, nil)
	descPipelineFailures = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "pipeline", "failures_total"),
		"Pipelines that returned an error or panicked.",
		nil, nil)

	descWorkers = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "workerpool", "workers"),
		"Worker goroutines.",
		nil, nil)
	descBusy = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "workerpool", "busy_workers"),
		"Workers running a task.",
		nil, nil)
	descQueued = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "workerpool", "queued_tasks"),
		"Tasks waiting for a worker.",
		nil, nil)
	descTasks = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "workerpool", "tasks_total"),
		"Tasks by outcome.",
		[]string{"outcome"}, nil)
)

// Collector reports acceptor and worker pool state.
type Collector struct {
	acceptor AcceptorStats
	pool     PoolStats
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector. Either source may be nil.
func NewCollector(a AcceptorStats, p PoolStats) *Collector {
	return &Collector{acceptor: a, pool: p}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	if c.acceptor != nil {
		ch <- descAccepted
		ch <- descRejected
		ch <- descDropped
		ch <- descActive
		ch <- descTeardowns
		ch <- descTeardownErrors
		ch <- descPipelineFailures
	}
	if c.pool != nil {
		ch <- descWorkers
		ch <- descBusy
		ch <- descQueued
		ch <- descTasks
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.acceptor != nil {
		s := c.acceptor.Stats()
		counter(ch, descAccepted, float64(s.Accepted))
		for filter, n := range s.Rejected {
			counter(ch, descRejected, float64(n), filter)
		}
		counter(ch, descDropped, float64(s.Dropped))
		gauge(ch, descActive, float64(s.Active))
		counter(ch, descTeardowns, float64(s.Teardowns))
		counter(ch, descTeardownErrors, float64(s.TransportCloseErrors), "transport")
		counter(ch, descTeardownErrors, float64(s.TempFileErrors), "temp_files")
		counter(ch, descPipelineFailures, float64(s.PipelineFailures))
	}

	if c.pool != nil {
		s := c.pool.Stats()
		gauge(ch, descWorkers, float64(s.Size))
		gauge(ch, descBusy, float64(s.Busy))
		gauge(ch, descQueued, float64(s.Queued))
		counter(ch, descTasks, float64(s.Completed), "completed")
		counter(ch, descTasks, float64(s.Discarded), "discarded")
		counter(ch, descTasks, float64(s.Panicked), "panicked")
	}
}

func counter(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labels ...string) {
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, labels...)
}

func gauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labels ...string) {
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
}
