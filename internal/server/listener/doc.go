// Package listener accepts TCP connections and hands them to the
// connection acceptor.
//
// Each net.Conn is wrapped in a socket.Context carrying a fresh ID and,
// when a temp dir is configured, a scratch-file manager named after that
// ID. The accept loop can be throttled with a token bucket.
package listener
