// Package shutdown coordinates process termination.
//
// A Handler waits for SIGINT/SIGTERM, a programmatic Trigger or the
// cancellation of its context, then runs the registered hooks in reverse
// registration order under one bounded context.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("listener", ln.Shutdown)
//	h.OnShutdown("acceptor", acc.Shutdown)
//	err := h.Wait(ctx) // acceptor stops first, then the listener
package shutdown
