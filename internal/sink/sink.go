// internal/sink/sink.go

// Package sink locates the output destinations for the selected
// temperature and writes the current value to each one that is
// writable, independently of the others.
package sink

import (
	"errors"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ErrNoDevice means discovery found no matching candidate. It is an
// expected condition on hosts without the kernel module loaded and
// is logged quieter than a real write failure.
var ErrNoDevice = errors.New("sink: no matching device")

// Sink is one output destination. Write failures never abort a tick;
// discovered sinks invalidate their cache on failure and rediscover
// on the next tick.
type Sink interface {
	Name() string
	Write(milliDeg int) error
}

// Static is a fixed, well-known path. It is written directly with no
// existence pre-check so there is no window between check and use.
type Static struct {
	Path string
}

func (s *Static) Name() string { return s.Path }

func (s *Static) Write(milliDeg int) error {
	return writeValue(s.Path, milliDeg)
}

// writeValue prints the plain integer milli-degree string into path.
func writeValue(path string, milliDeg int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(strconv.Itoa(milliDeg))
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// Writer iterates a homogeneous sink list once per tick. Partial
// failure is expected and tolerated, not treated as a transaction.
type Writer struct {
	sinks []Sink
	log   *logrus.Entry
}

func NewWriter(log *logrus.Entry, sinks ...Sink) *Writer {
	return &Writer{sinks: sinks, log: log}
}

// WriteAll writes the value to every sink and returns how many
// accepted it. One sink's unavailability never blocks another's
// write and never surfaces as a tick failure.
func (w *Writer) WriteAll(milliDeg int) int {
	written := 0
	for _, s := range w.sinks {
		if err := s.Write(milliDeg); err != nil {
			if errors.Is(err, ErrNoDevice) {
				w.log.WithField("sink", s.Name()).Debug("sink unavailable")
			} else {
				w.log.WithField("sink", s.Name()).WithError(err).Warning("sink write failed")
			}
			continue
		}
		w.log.WithFields(logrus.Fields{"sink": s.Name(), "mdeg": milliDeg}).Debug("sink written")
		written++
	}
	return written
}
