// internal/daemon/loop.go

// Package daemon runs the monitoring loop: one AT+QTEMP query per
// tick, routed through parse, select and the sink writer, under
// reconnect supervision and live configuration reload.
package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quecmon/modem-thermald/internal/config"
	"github.com/quecmon/modem-thermald/internal/reconnect"
	"github.com/quecmon/modem-thermald/internal/sink"
	"github.com/quecmon/modem-thermald/internal/temperature"
)

// QueryCommand is the temperature query sent each tick. The CR
// terminator is appended by the transport.
const QueryCommand = "AT+QTEMP"

const (
	reloadInterval   = time.Minute
	statsLogInterval = 30 // ticks
)

// connection is the per-tick view of an open serial port.
type connection interface {
	Query(command string) ([]byte, error)
}

// controller supervises the serial connection on behalf of the loop.
type controller interface {
	Ensure(ctx context.Context, device string, baud int) (connection, error)
	NoteCommFailure() bool
	NoteSuccess()
	Reset()
	Close()
}

// serialController adapts the reconnect controller to the loop's
// view of it.
type serialController struct {
	c *reconnect.Controller
}

func (s *serialController) Ensure(ctx context.Context, device string, baud int) (connection, error) {
	port, err := s.c.Ensure(ctx, device, baud)
	if err != nil {
		return nil, err
	}
	return port, nil
}

func (s *serialController) NoteCommFailure() bool { return s.c.NoteCommFailure() }
func (s *serialController) NoteSuccess()          { s.c.NoteSuccess() }
func (s *serialController) Reset()                { s.c.Reset() }
func (s *serialController) Close()                { s.c.Close() }

// Loop owns all cross-cutting monitoring state: the configuration
// snapshot, the reconnect controller, the sink set and the counters.
// It is the only active unit of execution in the daemon.
type Loop struct {
	cfg      *config.Config
	reloader *config.Reloader
	ctrl     controller
	writer   *sink.Writer
	thermal  *sink.ThermalZone
	stats    *Stats
	logger   *logrus.Logger
	log      *logrus.Entry
	sleep    func(ctx context.Context, d time.Duration) bool

	lastReload time.Time
}

// NewLoop wires a monitoring loop from a validated startup snapshot.
func NewLoop(cfg *config.Config, reloader *config.Reloader, logger *logrus.Logger) *Loop {
	log := logger.WithField("component", "daemon")

	thermal := &sink.ThermalZone{Dir: cfg.Sinks.ThermalDir}

	return &Loop{
		cfg:      cfg,
		reloader: reloader,
		ctrl:     &serialController{c: reconnect.New(logger.WithField("component", "reconnect"))},
		writer:   sink.NewWriter(logger.WithField("component", "sink"), buildSinks(cfg, thermal)...),
		thermal:  thermal,
		stats:    NewStats(),
		logger:   logger,
		log:      log,
		sleep:    ctxSleep,
		// First reload check happens one interval after startup.
		lastReload: time.Now(),
	}
}

// buildSinks assembles the homogeneous sink list: the fixed primary
// path, the discovered hwmon and thermal-zone devices, and any
// configured auxiliary paths.
func buildSinks(cfg *config.Config, thermal *sink.ThermalZone) []sink.Sink {
	sinks := []sink.Sink{
		&sink.Static{Path: cfg.Sinks.Primary},
		&sink.Hwmon{ClassDir: cfg.Sinks.HwmonClass, Match: cfg.Sinks.HwmonName},
		thermal,
	}
	for _, p := range cfg.Sinks.Extra {
		sinks = append(sinks, &sink.Static{Path: p})
	}
	return sinks
}

// Stats exposes the counters to the metrics collaborator.
func (l *Loop) Stats() *Stats { return l.stats }

// Run executes ticks until the context is canceled. It returns
// reconnect.ErrFatal when the retry cycles are exhausted; the host
// process should exit non-zero then.
func (l *Loop) Run(ctx context.Context) error {
	defer l.ctrl.Close()

	l.surveyThermalZones()
	l.log.WithFields(logrus.Fields{
		"device":   l.cfg.Serial.Device,
		"baud":     l.cfg.Serial.Baud,
		"interval": l.cfg.Poll.IntervalSeconds,
	}).Info("monitoring started")

	for {
		if ctx.Err() != nil {
			l.log.Info("stop signal observed, shutting down")
			return nil
		}

		l.stats.Tick()
		l.maybeReload()

		// Local copy for this iteration; a concurrent-looking reload
		// never perturbs an in-flight cycle.
		cfg := l.cfg

		if err := l.tick(ctx, cfg); err != nil {
			if errors.Is(err, reconnect.ErrFatal) {
				l.log.Error("serial retry cycles exhausted, giving up")
				return err
			}
			if ctx.Err() != nil {
				l.log.Info("stop signal observed, shutting down")
				return nil
			}
		}

		if s := l.stats.Snapshot(); s.Ticks%statsLogInterval == 0 {
			l.logStats(s)
		}

		if !l.sleep(ctx, time.Duration(cfg.Poll.IntervalSeconds)*time.Second) {
			l.log.Info("stop signal observed, shutting down")
			return nil
		}
	}
}

// tick performs one monitoring iteration against the given snapshot.
// Only reconnect.ErrFatal and context cancellation propagate;
// everything else is absorbed into statistics.
func (l *Loop) tick(ctx context.Context, cfg *config.Config) error {
	port, err := l.ctrl.Ensure(ctx, cfg.Serial.Device, cfg.Serial.Baud)
	if err != nil {
		if errors.Is(err, reconnect.ErrFatal) || ctx.Err() != nil {
			return err
		}
		l.stats.SerialError()
		return nil
	}

	raw, err := port.Query(QueryCommand)
	if err != nil {
		l.stats.CommandError()
		l.log.WithError(err).Warning("temperature query failed")
		l.ctrl.NoteCommFailure()
		return nil
	}
	l.log.WithField("bytes", len(raw)).Debug("query response received")

	set, err := temperature.Parse(raw, temperature.Labels{
		Modem: cfg.Labels.Modem,
		AP:    cfg.Labels.AP,
		PA:    cfg.Labels.PA,
	})
	if err != nil {
		l.stats.ParseError()
		l.log.WithError(err).Warning("response parse failed")
		return nil
	}
	if set.Empty() {
		l.stats.ParseError()
		l.log.Warning("response carried none of the configured labels")
		return nil
	}
	if set.AllZero() {
		l.log.Warning("all readings are 0°C, response may be mangled")
	}

	milliDeg, err := temperature.Select(set)
	if err != nil {
		// Out-of-range selection counts as a parse-class failure and
		// is never written: the last good value stays on the sinks.
		l.stats.ParseError()
		l.log.WithError(err).Warning("temperature selection rejected")
		return nil
	}

	l.stats.Read(milliDeg)
	l.ctrl.NoteSuccess()

	written := l.writer.WriteAll(milliDeg)
	l.log.WithFields(logrus.Fields{
		"mdeg":  milliDeg,
		"sinks": written,
	}).Debug("temperature published")

	return nil
}

// maybeReload re-resolves configuration once per reload interval and
// applies side effects when the snapshot actually changed.
func (l *Loop) maybeReload() {
	if time.Since(l.lastReload) < reloadInterval {
		return
	}
	l.lastReload = time.Now()

	fresh, err := l.reloader.Reload()
	if err != nil {
		l.log.WithError(err).Warning("config reload failed, keeping previous snapshot")
		return
	}

	if fresh.Equal(l.cfg) {
		l.log.Debug("config unchanged")
		return
	}

	l.log.Info("configuration changed, applying")

	if fresh.Log.Level != l.cfg.Log.Level {
		l.logger.SetLevel(ParseLevel(fresh.Log.Level))
	}
	if fresh.SerialChanged(l.cfg) {
		l.log.WithFields(logrus.Fields{
			"device": fresh.Serial.Device,
			"baud":   fresh.Serial.Baud,
		}).Info("serial parameters changed, reopening port")
		l.ctrl.Reset()
	}

	l.cfg = fresh
}

func (l *Loop) logStats(s Snapshot) {
	l.log.WithFields(logrus.Fields{
		"ticks":          s.Ticks,
		"reads":          s.Reads,
		"serial_errors":  s.SerialErrors,
		"command_errors": s.CommandErrors,
		"parse_errors":   s.ParseErrors,
	}).Info("monitoring statistics")
}

// surveyThermalZones logs the classification of every visible
// thermal zone before the loop starts, so misrouted writes can be
// diagnosed from the journal alone.
func (l *Loop) surveyThermalZones() {
	zones := l.thermal.Survey()
	if len(zones) == 0 {
		l.log.Debug("no thermal zones visible")
		return
	}
	for zone, class := range zones {
		l.log.WithFields(logrus.Fields{"zone": zone, "class": class}).Info("thermal zone found")
	}
}

// ParseLevel maps a config log level onto logrus, defaulting to
// info for anything validation let through.
func ParseLevel(level string) logrus.Level {
	if lv, err := logrus.ParseLevel(level); err == nil {
		return lv
	}
	return logrus.InfoLevel
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
