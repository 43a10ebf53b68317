// Package connection provides the kvantum-cli transports:
//
//   - socket.go: the local management socket (all commands)
//   - http.go: the admin HTTP endpoint (read-only status)
package connection
