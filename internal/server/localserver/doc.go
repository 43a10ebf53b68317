// Package localserver provides the local management server.
//
// It listens on a Unix domain socket. Each request is a single line
// ("status", "status connections", "filters", "connections",
// "loglevel <level>", "shutdown") and each reply is a single line of JSON
// shaped as Response. Access control is the socket file mode.
package localserver
