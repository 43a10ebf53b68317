// Package benchmark provides performance benchmarks for kvantum-server's
// hot paths: connection admission, the connection set and the settings
// backends.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
