// internal/daemon/stats.go
package daemon

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Snapshot is a read-only view of the daemon counters, exposed to
// the metrics collaborator. Counters are monotonic and never reset
// during a daemon's lifetime.
type Snapshot struct {
	Ticks         uint64
	Reads         uint64
	SerialErrors  uint64
	CommandErrors uint64
	ParseErrors   uint64
}

// Stats owns the daemon counters. Only the monitoring loop
// increments them.
type Stats struct {
	set *metrics.Set

	ticks         *metrics.Counter
	reads         *metrics.Counter
	serialErrors  *metrics.Counter
	commandErrors *metrics.Counter
	parseErrors   *metrics.Counter

	lastMilliDeg atomic.Int64
	started      time.Time
}

func NewStats() *Stats {
	s := &Stats{
		set:     metrics.NewSet(),
		started: time.Now(),
	}

	s.ticks = s.set.NewCounter("quectel_daemon_iterations_total")
	s.reads = s.set.NewCounter("quectel_daemon_reads_success_total")
	s.serialErrors = s.set.NewCounter("quectel_daemon_errors_serial_total")
	s.commandErrors = s.set.NewCounter("quectel_daemon_errors_at_command_total")
	s.parseErrors = s.set.NewCounter("quectel_daemon_errors_parse_total")

	s.set.NewGauge("quectel_modem_temperature_celsius", func() float64 {
		return float64(s.lastMilliDeg.Load()) / 1000
	})
	s.set.NewGauge("quectel_daemon_uptime_seconds", func() float64 {
		return time.Since(s.started).Seconds()
	})

	return s
}

func (s *Stats) Tick()         { s.ticks.Inc() }
func (s *Stats) SerialError()  { s.serialErrors.Inc() }
func (s *Stats) CommandError() { s.commandErrors.Inc() }
func (s *Stats) ParseError()   { s.parseErrors.Inc() }

func (s *Stats) Read(milliDeg int) {
	s.reads.Inc()
	s.lastMilliDeg.Store(int64(milliDeg))
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Ticks:         s.ticks.Get(),
		Reads:         s.reads.Get(),
		SerialErrors:  s.serialErrors.Get(),
		CommandErrors: s.commandErrors.Get(),
		ParseErrors:   s.parseErrors.Get(),
	}
}

// WritePrometheus renders the counters and gauges in Prometheus
// text exposition format.
func (s *Stats) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}
