// Package workerpool provides the fixed-size pool that runs connection
// pipelines off the accept path.
//
// The pool starts exactly Size worker goroutines at construction and never
// grows. Work waits in a bounded queue; Submit never blocks and reports a full
// queue instead, which is the pool's only backpressure signal.
//
// Shutdown comes in two flavours:
//
//   - Shutdown stops intake and lets queued work drain.
//   - ShutdownNow stops intake, cancels the context of every running task and
//     discards queued work that has not started.
//
// Wait and AwaitTermination bound how long a caller blocks for the workers
// to exit.
package workerpool
