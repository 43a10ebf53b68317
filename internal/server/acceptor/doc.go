// Package acceptor admits inbound connections, dispatches them to the worker
// pool and owns their teardown and the shutdown sequence.
//
// Flow for one connection:
//
//	listener -> Accept -> filter chain -> connection set -> worker pool -> Pipeline.Process
//	                          | reject                                         |
//	                          v                                                v
//	                       Teardown  <----------------------------------  Teardown
//
// Teardown is idempotent and never fails as a whole: closing the transport,
// clearing scratch files and untracking the connection are independent steps
// and each runs even if an earlier one failed.
//
// Once Shutdown begins, Accept refuses new connections. Every connection that
// was accepted before that point is in the connection set and is torn down
// by Shutdown.
package acceptor
