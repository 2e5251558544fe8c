// internal/transport/transport.go

// Package transport owns the serial connection to the modem and the
// line-oriented AT request/response exchange over it. It knows
// nothing about temperature semantics.
package transport

import (
	"bytes"
	"errors"
	"time"

	"go.bug.st/serial"
)

const (
	// Overall deadline for one query/response exchange.
	queryTimeout = 5 * time.Second

	// Per-read timeout quantum; the overall deadline is enforced by
	// polling, never by a long blocking read.
	readQuantum = 100 * time.Millisecond

	// Responses larger than this indicate a runaway port, not a
	// temperature reply.
	maxResponse = 4096
)

var errTimeout = errors.New("response timeout")

// Port is an open, configured serial connection. At most one Port is
// open per process; the reconnect controller owns its lifecycle.
type Port struct {
	dev  serial.Port
	name string
}

// Open opens the device in 8N1 raw mode at the requested baud rate
// and arms the short per-read timeout quantum.
func Open(device string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	dev, err := serial.Open(device, mode)
	if err != nil {
		return nil, &OpenError{Device: device, Err: err}
	}

	if err := dev.SetReadTimeout(readQuantum); err != nil {
		dev.Close()
		return nil, &OpenError{Device: device, Err: err}
	}

	return &Port{dev: dev, name: device}, nil
}

// Device returns the device node this port was opened on.
func (p *Port) Device() string { return p.name }

// Query flushes stale input, writes the command with its CR
// terminator and accumulates the reply until an OK or ERROR
// terminator line appears or the overall timeout elapses. Everything
// read so far is returned on terminator match; a timeout with no
// terminator is a CommError.
func (p *Port) Query(command string) ([]byte, error) {
	if p == nil || p.dev == nil {
		return nil, &CommError{Op: "query", Err: errors.New("port closed")}
	}

	// Stale bytes from a previous exchange would confuse terminator
	// detection; a failed flush is tolerable since the parser anchors
	// on the response marker line.
	_ = p.dev.ResetInputBuffer()

	if _, err := p.dev.Write([]byte(command + "\r")); err != nil {
		return nil, &CommError{Op: "write", Err: err}
	}

	buf := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	deadline := time.Now().Add(queryTimeout)

	for {
		n, err := p.dev.Read(chunk)
		if err != nil {
			return nil, &CommError{Op: "read", Err: err}
		}
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if hasTerminator(buf) {
				return buf, nil
			}
			if len(buf) > maxResponse {
				return nil, &CommError{Op: "read", Err: errors.New("response exceeds buffer limit")}
			}
		}
		// n == 0 means the read quantum elapsed without data.
		if time.Now().After(deadline) {
			return nil, &CommError{Op: "read", Err: errTimeout}
		}
	}
}

// Close flushes and releases the OS handle. Safe on an
// already-closed port.
func (p *Port) Close() error {
	if p == nil || p.dev == nil {
		return nil
	}
	dev := p.dev
	p.dev = nil
	return dev.Close()
}

// hasTerminator reports whether the accumulated buffer contains a
// final OK or ERROR line.
func hasTerminator(buf []byte) bool {
	for _, t := range [][]byte{
		[]byte("\nOK"), []byte("\rOK"),
		[]byte("\nERROR"), []byte("\rERROR"),
	} {
		if bytes.Contains(buf, t) {
			return true
		}
	}
	return false
}
