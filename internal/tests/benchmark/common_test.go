package benchmark

import (
	"fmt"
	"net"
	"runtime"
	"testing"

	"github.com/yndnr/kvantum-go/internal/core/socket"
)

// ConnCounts defines Connection Set sizes for benchmarking.
var ConnCounts = []int{1000, 10000, 100000}

// newPipeContext returns a socket context over one end of an in-memory
// pipe. The other end is closed when the benchmark ends.
func newPipeContext(b *testing.B) *socket.Context {
	server, client := net.Pipe()
	b.Cleanup(func() { client.Close() })
	return socket.New(server)
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithConnCounts runs benchFn once per Connection Set size.
func runWithConnCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("conns_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
