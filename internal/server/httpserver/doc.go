// Package httpserver provides the admin HTTP server for kvantum-server.
//
// Routes:
//
//   - GET /health  liveness
//   - GET /ready   503 once the acceptor is shutting down
//   - GET /status  acceptor, worker pool and filter state as JSON
//   - GET /metrics Prometheus exposition
//
// Every route runs behind the Recover and RequestID middlewares.
package httpserver
