// internal/reconnect/controller.go

// Package reconnect supervises the serial transport: bounded
// retries with exponential backoff per cycle, a bounded number of
// failed cycles before fatal escalation, and communication-failure
// tolerance on an open connection.
package reconnect

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quecmon/modem-thermald/internal/transport"
)

// State of the controller's connection supervision.
type State int

const (
	Disconnected State = iota
	Connected
	FailedCycle
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case FailedCycle:
		return "failed-cycle"
	}
	return "unknown"
}

const (
	// Per-cycle retry budget.
	maxAttempts  = 5
	initialDelay = 10 * time.Second
	maxDelay     = 60 * time.Second

	// Fully unproductive cycles tolerated before fatal escalation.
	maxFailedCycles = 3

	// Communication failures tolerated per connection before the
	// port is proactively closed and reopened.
	commFailureLimit = 3
)

// ErrFatal means the failed-cycle ceiling was reached with no
// intervening successful read; the daemon should exit non-zero
// instead of retrying forever.
var ErrFatal = errors.New("reconnect: retry cycles exhausted")

// ErrCycleFailed means this cycle's attempt budget is spent; the
// caller should record the failure and try again next tick.
var ErrCycleFailed = errors.New("reconnect: connect cycle failed")

// Controller owns the one Transport handle of the process.
type Controller struct {
	dial  func(device string, baud int) (*transport.Port, error)
	sleep func(ctx context.Context, d time.Duration) bool
	log   *logrus.Entry

	state        State
	port         *transport.Port
	attempts     int
	delay        time.Duration
	failedCycles int
	commFailures int
}

func New(log *logrus.Entry) *Controller {
	return &Controller{
		dial:  transport.Open,
		sleep: ctxSleep,
		log:   log,
		delay: initialDelay,
	}
}

// State returns the current supervision state.
func (c *Controller) State() State { return c.state }

// FailedCycles returns how many fully unproductive cycles have
// accumulated since the last successful read.
func (c *Controller) FailedCycles() int { return c.failedCycles }

// Ensure returns an open port, running at most one connect cycle.
//
// From Connected it returns the held port. From FailedCycle it
// checks the fatal ceiling, then falls back to Disconnected and
// retries. A cycle is up to maxAttempts opens with doubling,
// capped backoff between them; sleeping is interruptible by ctx.
func (c *Controller) Ensure(ctx context.Context, device string, baud int) (*transport.Port, error) {
	if c.state == Connected {
		return c.port, nil
	}

	if c.state == FailedCycle {
		if c.failedCycles >= maxFailedCycles {
			return nil, ErrFatal
		}
		c.state = Disconnected
	}

	for {
		port, err := c.dial(device, baud)
		if err == nil {
			c.port = port
			c.state = Connected
			c.attempts = 0
			c.delay = initialDelay
			c.commFailures = 0
			c.log.WithFields(logrus.Fields{"device": device, "baud": baud}).Info("serial port opened")
			return port, nil
		}

		c.attempts++
		if c.attempts >= maxAttempts {
			c.failedCycles++
			c.attempts = 0
			c.delay = initialDelay
			c.state = FailedCycle
			c.log.WithError(err).WithField("failed_cycles", c.failedCycles).
				Warning("serial connect cycle exhausted")
			if c.failedCycles >= maxFailedCycles {
				return nil, ErrFatal
			}
			return nil, ErrCycleFailed
		}

		c.log.WithError(err).WithFields(logrus.Fields{
			"attempt": c.attempts,
			"max":     maxAttempts,
			"delay":   c.delay,
		}).Warning("serial open failed, retrying")

		if !c.sleep(ctx, c.delay) {
			return nil, ctx.Err()
		}
		c.delay *= 2
		if c.delay > maxDelay {
			c.delay = maxDelay
		}
	}
}

// NoteCommFailure records one failed exchange on the open
// connection. After the per-connection tolerance the port is closed
// so the next Ensure re-enters the reconnect path. Reports whether
// the port was closed.
func (c *Controller) NoteCommFailure() bool {
	if c.state != Connected {
		return false
	}
	c.commFailures++
	if c.commFailures < commFailureLimit {
		return false
	}
	c.log.WithField("failures", c.commFailures).Warning("repeated command failures, reopening serial port")
	c.closePort()
	return true
}

// NoteSuccess records a successful read. Only a productive read, not
// a bare successful open, resets the failed-cycle counter.
func (c *Controller) NoteSuccess() {
	c.failedCycles = 0
	c.commFailures = 0
}

// Reset closes the port so the next Ensure reopens it with fresh
// parameters. Used when a config reload changes device or baud.
func (c *Controller) Reset() {
	c.closePort()
}

// Close releases the transport on shutdown.
func (c *Controller) Close() {
	c.closePort()
}

func (c *Controller) closePort() {
	if c.port != nil {
		c.port.Close()
		c.port = nil
	}
	c.state = Disconnected
	c.commFailures = 0
}

func ctxSleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
