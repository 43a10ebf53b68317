// Package metric exposes Prometheus metrics.
//
// Registry owns a private prometheus.Registry with the Go runtime and
// process collectors. Collector reads acceptor and worker pool counters at
// scrape time, so the hot paths only bump their own atomics.
package metric
