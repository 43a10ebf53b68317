package acceptor

import (
	"errors"
	"fmt"
)

var (
	// ErrShuttingDown is returned by Accept once Shutdown has begun.
	ErrShuttingDown = errors.New("acceptor: shutting down")
	// ErrReleased is returned by Accept for a context that was already torn down.
	ErrReleased = errors.New("acceptor: connection already released")
)

// RejectedError reports that a socket filter rejected a connection.
type RejectedError struct {
	Filter string
	ConnID string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("acceptor: connection %s rejected by filter %q", e.ConnID, e.Filter)
}

// TransportCloseError reports a failure to close a connection's transport.
type TransportCloseError struct {
	ConnID string
	Err    error
}

func (e *TransportCloseError) Error() string {
	return fmt.Sprintf("acceptor: close transport of %s: %v", e.ConnID, e.Err)
}

func (e *TransportCloseError) Unwrap() error { return e.Err }

// TempFileError reports a failure to clear a connection's scratch files.
type TempFileError struct {
	ConnID string
	Err    error
}

func (e *TempFileError) Error() string {
	return fmt.Sprintf("acceptor: clear temp files of %s: %v", e.ConnID, e.Err)
}

func (e *TempFileError) Unwrap() error { return e.Err }

// ErrAlreadyTracked is returned by Accept for a context that is already live.
var ErrAlreadyTracked = errors.New("acceptor: connection already tracked")
