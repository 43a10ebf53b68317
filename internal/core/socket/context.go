package socket

import (
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDPrefix is the prefix of every connection ID.
const IDPrefix = "sock-"

// TempFiles releases the per-connection scratch files.
type TempFiles interface {
	Clear() error
}

// Option configures a Context.
type Option func(*Context)

// WithTempFiles attaches a scratch-file manager to the context.
func WithTempFiles(tf TempFiles) Option {
	return func(c *Context) {
		c.tempFiles = tf
	}
}

// WithID overrides the generated connection ID.
func WithID(id string) Option {
	return func(c *Context) {
		c.id = id
	}
}

// Context is the live state of one accepted transport.
type Context struct {
	id         string
	conn       net.Conn
	tempFiles  TempFiles
	acceptedAt time.Time

	closed   atomic.Bool
	broken   atomic.Bool
	released atomic.Bool
}

// New wraps conn in a new Context with a fresh ID.
func New(conn net.Conn, opts ...Option) *Context {
	c := &Context{
		conn:       conn,
		acceptedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = NewID()
	}
	return c
}

// NewID returns a new connection ID: sock-{ulid_lowercase}.
func NewID() string {
	return IDPrefix + strings.ToLower(ulid.Make().String())
}

// ID returns the connection identity used for tracking and logging.
func (c *Context) ID() string { return c.id }

// Conn returns the underlying transport.
func (c *Context) Conn() net.Conn { return c.conn }

// TempFiles returns the scratch-file manager, or nil.
func (c *Context) TempFiles() TempFiles { return c.tempFiles }

// AcceptedAt returns when the context was created.
func (c *Context) AcceptedAt() time.Time { return c.acceptedAt }

// RemoteAddr returns the peer address, or nil without a transport.
func (c *Context) RemoteAddr() net.Addr {
	if c.conn == nil {
		return nil
	}
	return c.conn.RemoteAddr()
}

// IsActive reports whether the transport is still usable.
func (c *Context) IsActive() bool {
	return c.conn != nil && !c.closed.Load() && !c.broken.Load()
}

// MarkBroken flags the transport as unusable without closing it.
func (c *Context) MarkBroken() {
	c.broken.Store(true)
}

// Close closes the transport. Only the first call reaches the transport;
// later calls return nil.
func (c *Context) Close() error {
	if c.conn == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	return c.closed.Load()
}

// MarkReleased records that teardown ran. It returns true only for the
// first call.
func (c *Context) MarkReleased() bool {
	return c.released.CompareAndSwap(false, true)
}

// Released reports whether teardown has run for this context.
func (c *Context) Released() bool {
	return c.released.Load()
}

// String returns a log-friendly description.
func (c *Context) String() string {
	if addr := c.RemoteAddr(); addr != nil {
		return c.id + "@" + addr.String()
	}
	return c.id
}
