package acceptor

import (
	"context"

	"github.com/yndnr/kvantum-go/internal/core/socket"
)

// Connections is the part of the acceptor a pipeline may call back into.
type Connections interface {
	Teardown(sc *socket.Context) error
}

// Pipeline processes one accepted connection on a worker.
//
// Process is called exactly once per accepted connection. It owns the
// exchange and calls conns.Teardown when the exchange is over. Returning an
// error (or panicking) signals failure; the acceptor then logs it and tears
// the connection down itself. ctx is cancelled when the acceptor shuts down.
type Pipeline interface {
	Process(ctx context.Context, conns Connections, sc *socket.Context) error
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(ctx context.Context, conns Connections, sc *socket.Context) error

// Process calls f.
func (f PipelineFunc) Process(ctx context.Context, conns Connections, sc *socket.Context) error {
	return f(ctx, conns, sc)
}
