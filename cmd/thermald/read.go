// cmd/thermald/read.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/quecmon/modem-thermald/internal/config"
	"github.com/quecmon/modem-thermald/internal/daemon"
	"github.com/quecmon/modem-thermald/internal/temperature"
	"github.com/quecmon/modem-thermald/internal/transport"
)

type readOptions struct {
	json    bool
	celsius bool
	watch   bool
}

type readResult struct {
	Temperature string `json:"temperature"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}

// runRead prints one temperature value: from the daemon's primary
// sink when a daemon holds the lock, else via a direct one-shot
// query over the serial port.
func runRead(cfg *config.Config, logger *logrus.Logger, opts readOptions) int {
	if !opts.watch {
		return readOnce(cfg, logger, opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !opts.json {
		fmt.Printf("Monitoring temperature at %d second interval (press Ctrl+C to exit)...\n",
			cfg.Poll.IntervalSeconds)
	}

	rc := 0
	for {
		rc = readOnce(cfg, logger, opts)

		t := time.NewTimer(time.Duration(cfg.Poll.IntervalSeconds) * time.Second)
		select {
		case <-ctx.Done():
			t.Stop()
			return rc
		case <-t.C:
		}
	}
}

func readOnce(cfg *config.Config, logger *logrus.Logger, opts readOptions) int {
	value, err := readValue(cfg, logger)

	out := "N/A"
	status := "error"
	if err == nil {
		status = "ok"
		if opts.celsius {
			out = strconv.Itoa(value / 1000)
		} else {
			out = strconv.Itoa(value)
		}
	} else {
		logger.WithError(err).Debug("temperature read failed")
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(readResult{
			Temperature: out,
			Status:      status,
			Timestamp:   time.Now().Unix(),
		})
	} else if opts.watch {
		fmt.Printf("[%s] Temperature: %s\n", time.Now().Format("15:04:05"), out)
	} else {
		fmt.Println(out)
	}

	if err != nil {
		return 1
	}
	return 0
}

// readValue returns the current temperature in millidegrees.
func readValue(cfg *config.Config, logger *logrus.Logger) (int, error) {
	if daemonRunning() {
		if v, err := readFromSink(cfg.Sinks.Primary); err == nil {
			logger.WithField("mdeg", v).Debug("temperature read from daemon sink")
			return v, nil
		}
		// Daemon holds the lock but the sink is unreadable; fall
		// through to a direct query rather than failing outright.
		logger.Debug("daemon running but primary sink unreadable, querying directly")
	}
	return readDirect(cfg, logger)
}

// daemonRunning probes the daemon's advisory lock without holding it.
func daemonRunning() bool {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if locked {
		lock.Unlock()
		return false
	}
	return true
}

func readFromSink(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "N/A" || s == "0" {
		return 0, fmt.Errorf("sink %s holds no value", path)
	}
	return strconv.Atoi(s)
}

func readDirect(cfg *config.Config, logger *logrus.Logger) (int, error) {
	port, err := transport.Open(cfg.Serial.Device, cfg.Serial.Baud)
	if err != nil {
		return 0, err
	}
	defer port.Close()

	raw, err := port.Query(daemon.QueryCommand)
	if err != nil {
		return 0, err
	}

	set, err := temperature.Parse(raw, temperature.Labels{
		Modem: cfg.Labels.Modem,
		AP:    cfg.Labels.AP,
		PA:    cfg.Labels.PA,
	})
	if err != nil {
		return 0, err
	}
	if set.Empty() {
		return 0, fmt.Errorf("response carried none of the configured labels")
	}

	return temperature.Select(set)
}
