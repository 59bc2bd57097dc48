package bridge

import "fmt"

// TransportError describes an I/O failure of a host call: DNS, connect,
// TLS, timeout or a malformed target. HTTP error statuses are not transport
// errors.
type TransportError struct {
	Op     string
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConnectionError is the cause of a TransportError raised when a remote
// session cannot be established (dial, handshake or authentication).
type ConnectionError struct {
	Protocol string
	Host     string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not establish %s session to %s: %v", e.Protocol, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
