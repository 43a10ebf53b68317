// Package main provides the entry point for kvantum-server.
//
// The server accepts TCP connections, runs each through the socket filter
// chain and hands admitted connections to the line pipeline on a bounded
// worker pool. It also serves:
//
//   - an admin HTTP endpoint (/health, /ready, /status, /metrics)
//   - a local Unix socket for kvantum-cli
//
// Usage:
//
//	kvantum-server [flags]
//	kvantum-server --config /etc/kvantum-server/config.yaml
package main
