package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the quote table is missing, empty or not yet written.
	ErrDataUnavailable      = errors.New("quote data unavailable")
	ErrSymbolNotFound       = errors.New("symbol not found")
	ErrUnsupportedTimeframe = errors.New("unsupported portfolio timeframe")
)

// RemoteError is a non-success HTTP response from the brokerage.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote status %d: %s", e.StatusCode, e.Body)
}

// TransportError is a connection-level failure before any response was read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
