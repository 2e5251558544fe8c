// internal/transport/errors.go
package transport

import "fmt"

// OpenError reports that the device could not be opened or
// configured. The reconnect controller treats it as a trigger for
// backoff, unlike per-exchange communication failures.
type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("transport: open %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// CommError reports a failed exchange on an otherwise-open port:
// a write error or a response timeout.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }
