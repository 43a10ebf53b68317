// Package socket defines the connection context handed from the listener to
// the acceptor and on to the processing pipeline.
//
// A Context is either active (transport open and usable) or closed. Closing
// is idempotent, and once a context has been released by teardown it is
// never tracked again.
package socket
