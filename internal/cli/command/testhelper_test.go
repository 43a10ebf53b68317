package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvantum-go/internal/core/filter"
	"github.com/yndnr/kvantum-go/internal/server/acceptor"
	"github.com/yndnr/kvantum-go/internal/server/localserver"
	"github.com/yndnr/kvantum-go/internal/server/status"
	"github.com/yndnr/kvantum-go/internal/server/workerpool"
	"github.com/yndnr/kvantum-go/internal/telemetry/logger"
)

type fakeAcceptor struct {
	conns []acceptor.ConnInfo
}

func (f *fakeAcceptor) Stats() acceptor.Stats {
	return acceptor.Stats{
		Active:   len(f.conns),
		Accepted: 12,
		Rejected: map[string]uint64{"isActive": 2},
	}
}

func (f *fakeAcceptor) Connections() []acceptor.ConnInfo { return f.conns }

type fakePool struct{}

func (fakePool) Stats() workerpool.Stats { return workerpool.Stats{Size: 4, Busy: 1} }

type fakeFilters struct{}

func (fakeFilters) Statuses() []filter.Status {
	return []filter.Status{
		{Key: "isActive", Enabled: true, DefaultEnabled: true},
		{Key: "all"},
		{Key: "allowList"},
		{Key: "lockdown"},
	}
}

// testServer runs a local management socket backed by fakes.
type testServer struct {
	path     string
	acceptor *fakeAcceptor
	shutdown chan string
}

func newTestServer(t *testing.T, conns ...acceptor.ConnInfo) *testServer {
	t.Helper()
	dir, err := os.MkdirTemp("", "kvcmd")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	ts := &testServer{
		path:     filepath.Join(dir, "s.sock"),
		acceptor: &fakeAcceptor{conns: conns},
		shutdown: make(chan string, 1),
	}
	reporter := &status.Reporter{
		Acceptor:  ts.acceptor,
		Pool:      fakePool{},
		Filters:   fakeFilters{},
		StartedAt: time.Now(),
	}
	h := localserver.NewHandler(reporter, func(reason string) { ts.shutdown <- reason }, logger.Discard())
	s := localserver.New(ts.path, h, logger.Discard())
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}
	go s.Serve()
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return ts
}

// run executes kvantum-cli with args against the socket and returns stdout.
func (ts *testServer) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	full := append([]string{"kvantum-cli", "--socket", ts.path}, args...)
	err := app.Run(full)
	return out.String(), err
}
