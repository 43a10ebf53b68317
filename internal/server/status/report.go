package status

import (
	"time"

	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/infra/buildinfo"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
)

// AcceptorSource is the read side of the connection acceptor.
type AcceptorSource interface {
	Stats() acceptor.Stats
	Connections() []acceptor.ConnInfo
}

// PoolSource is the read side of the worker pool.
type PoolSource interface {
	Stats() workerpool.Stats
}

// FilterSource is the read side of the filter registry.
type FilterSource interface {
	Statuses() []filter.Status
}

// Report is the full status document.
type Report struct {
	Build     buildinfo.Info      `json:"build" yaml:"build"`
	StartedAt time.Time           `json:"started_at" yaml:"started_at"`
	Uptime    string              `json:"uptime" yaml:"uptime"`
	Acceptor  acceptor.Stats      `json:"acceptor" yaml:"acceptor"`
	Workers   workerpool.Stats    `json:"workers" yaml:"workers"`
	Filters   []filter.Status     `json:"filters" yaml:"filters"`
	Conns     []acceptor.ConnInfo `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Reporter builds Reports from live sources. Any source may be nil.
type Reporter struct {
	Acceptor  AcceptorSource
	Pool      PoolSource
	Filters   FilterSource
	StartedAt time.Time
}

// Report builds a status report. Connections are listed only when
// withConns is set.
func (r *Reporter) Report(withConns bool) Report {
	rep := Report{
		Build:     buildinfo.Get(),
		StartedAt: r.StartedAt,
	}
	if !r.StartedAt.IsZero() {
		rep.Uptime = time.Since(r.StartedAt).Truncate(time.Second).String()
	}
	if r.Acceptor != nil {
		rep.Acceptor = r.Acceptor.Stats()
		if withConns {
			rep.Conns = r.Acceptor.Connections()
		}
	}
	if r.Pool != nil {
		rep.Workers = r.Pool.Stats()
	}
	if r.Filters != nil {
		rep.Filters = r.Filters.Statuses()
	}
	return rep
}

// FilterStatuses returns the filter catalog state, or nil.
func (r *Reporter) FilterStatuses() []filter.Status {
	if r.Filters == nil {
		return nil
	}
	return r.Filters.Statuses()
}

// Ready reports whether the server is accepting connections.
func (r *Reporter) Ready() bool {
	if r.Acceptor == nil {
		return false
	}
	return !r.Acceptor.Stats().ShuttingDown
}
