package benchmark

import (
	"context"
	"errors"
	"net"
	"runtime"
	"testing"

	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/core/socket"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
)

// BenchmarkAcceptTeardown measures a full admission: filter chain, set
// insertion, dispatch to the pool and teardown by the pipeline.
func BenchmarkAcceptTeardown(b *testing.B) {
	pool, err := workerpool.New(workerpool.Config{
		Size:      runtime.GOMAXPROCS(0),
		QueueSize: 4096,
	}, logger.Discard())
	if err != nil {
		b.Fatal(err)
	}

	teardown := acceptor.PipelineFunc(func(_ context.Context, conns acceptor.Connections, sc *socket.Context) error {
		return conns.Teardown(sc)
	})
	acc, err := acceptor.New(acceptor.DefaultConfig(), filter.NewChain(
		filter.Entry{Key: filter.KeyIsActive, Eval: filter.IsActive, DefaultEnabled: true},
	), pool, teardown, logger.Discard())
	if err != nil {
		b.Fatal(err)
	}
	defer acc.Shutdown(context.Background())

	var full int
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		server, client := net.Pipe()
		if err := acc.Accept(socket.New(server)); errors.Is(err, workerpool.ErrQueueFull) {
			full++
		} else if err != nil {
			b.Fatalf("Accept: %v", err)
		}
		client.Close()
	}
	b.StopTimer()

	b.ReportMetric(float64(full), "queue_full")
	reportMemory(b, "mem")
}

// BenchmarkChainEvaluate measures the default catalog with every filter
// enabled, so every predicate runs.
func BenchmarkChainEvaluate(b *testing.B) {
	allow, err := filter.AllowList([]string{"10.0.0.0/8", "192.168.0.0/16"})
	if err != nil {
		b.Fatal(err)
	}
	chain := filter.NewChain(
		filter.Entry{Key: filter.KeyIsActive, Eval: filter.IsActive},
		filter.Entry{Key: filter.KeyAll, Eval: filter.AlwaysAdmit},
		filter.Entry{Key: filter.KeyAllowList, Eval: allow},
	)
	sc := newPipeContext(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		chain.Evaluate(sc)
	}
}
