package connection

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/kvantum-go/internal/server/localserver"
)

// ErrServer wraps an error reported by the server.
var ErrServer = errors.New("server error")

// SocketClient provides Unix socket communication for local management.
type SocketClient struct {
	path    string
	timeout time.Duration
}

// NewSocketClient creates a new socket client. A zero timeout means 10s.
func NewSocketClient(socketPath string, timeout time.Duration) *SocketClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SocketClient{path: socketPath, timeout: timeout}
}

// Path returns the socket path.
func (c *SocketClient) Path() string {
	return c.path
}

// Execute sends one command line and decodes the reply data into target,
// which may be nil.
func (c *SocketClient) Execute(ctx context.Context, cmd string, target any) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return fmt.Errorf("command must be a single line")
	}

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.path, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	var resp localserver.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("parse reply: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: %s", ErrServer, resp.Error)
	}
	if target != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, target); err != nil {
			return fmt.Errorf("parse reply data: %w", err)
		}
	}
	return nil
}
