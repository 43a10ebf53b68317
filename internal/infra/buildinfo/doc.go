// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/kvantum-go/internal/infra/buildinfo.Version=v1.0.0"
//
// The Go version falls back to the toolchain recorded in the binary.
package buildinfo
