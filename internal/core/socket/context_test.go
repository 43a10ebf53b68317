package socket

import (
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
)

// countingConn counts Close calls on top of a net.Pipe end.
type countingConn struct {
	net.Conn
	mu     sync.Mutex
	closes int
	err    error
}

func (c *countingConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.Conn.Close()
	return c.err
}

func newPipeConn(t *testing.T) *countingConn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { b.Close() })
	return &countingConn{Conn: a}
}

func TestNew_GeneratesID(t *testing.T) {
	c1 := New(nil)
	c2 := New(nil)

	if !strings.HasPrefix(c1.ID(), IDPrefix) {
		t.Errorf("ID() = %q, want prefix %q", c1.ID(), IDPrefix)
	}
	if len(c1.ID()) != len(IDPrefix)+26 {
		t.Errorf("len(ID()) = %d, want %d", len(c1.ID()), len(IDPrefix)+26)
	}
	if c1.ID() == c2.ID() {
		t.Error("IDs should be unique")
	}
}

func TestNew_WithID(t *testing.T) {
	c := New(nil, WithID("fixed"))
	if c.ID() != "fixed" {
		t.Errorf("ID() = %q, want fixed", c.ID())
	}
	if c.String() != "fixed" {
		t.Errorf("String() = %q, want fixed", c.String())
	}
}

func TestContext_IsActive(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Context)
		want  bool
	}{
		{"fresh", func(*Context) {}, true},
		{"closed", func(c *Context) { c.Close() }, false},
		{"broken", func(c *Context) { c.MarkBroken() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(newPipeConn(t))
			tt.setup(c)
			if got := c.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}

	if New(nil).IsActive() {
		t.Error("context without transport should not be active")
	}
}

func TestContext_CloseOnce(t *testing.T) {
	conn := newPipeConn(t)
	conn.err = errors.New("boom")
	c := New(conn)

	if err := c.Close(); err == nil {
		t.Error("first Close() should surface transport error")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if conn.closes != 1 {
		t.Errorf("transport closed %d times, want 1", conn.closes)
	}
	if !c.Closed() {
		t.Error("Closed() should be true")
	}
}

func TestContext_MarkReleased(t *testing.T) {
	c := New(nil)
	if c.Released() {
		t.Fatal("fresh context should not be released")
	}
	if !c.MarkReleased() {
		t.Error("first MarkReleased() should return true")
	}
	if c.MarkReleased() {
		t.Error("second MarkReleased() should return false")
	}
	if !c.Released() {
		t.Error("Released() should be true")
	}
}

type fakeTempFiles struct{}

func (fakeTempFiles) Clear() error { return nil }

func TestContext_TempFiles(t *testing.T) {
	if New(nil).TempFiles() != nil {
		t.Error("TempFiles() should default to nil")
	}
	c := New(nil, WithTempFiles(fakeTempFiles{}))
	if c.TempFiles() == nil {
		t.Error("TempFiles() should return the attached manager")
	}
}
