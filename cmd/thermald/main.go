// cmd/thermald/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/quecmon/modem-thermald/internal/config"
	"github.com/quecmon/modem-thermald/internal/daemon"
	"github.com/quecmon/modem-thermald/internal/metrics"
)

const version = "2.0.0"

const (
	defaultConfigPath = "/etc/modem-thermald/config.yml"
	lockPath          = "/var/run/modem-thermald.lock"
)

// Exit codes surfaced to the host init system.
const (
	exitOK          = 0
	exitFatalSerial = 1
	exitUsage       = 2
	exitAlreadyRun  = 3
)

// cliOptions is the parsed command line: the subcommand plus its
// flags.
type cliOptions struct {
	command    string
	configPath string
	debug      bool
	version    bool
	read       readOptions
}

// parseCLI resolves the subcommand (default: read) and parses the
// remaining arguments against that command's flag set, so flags are
// accepted both before and after the subcommand. Trailing non-flag
// arguments are rejected rather than ignored.
func parseCLI(args []string) (*cliOptions, error) {
	opts := &cliOptions{command: "read", configPath: defaultConfigPath}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.command = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("thermald", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "path to config file")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	switch opts.command {
	case "read":
		fs.BoolVar(&opts.read.json, "json", false, "JSON output")
		fs.BoolVar(&opts.read.celsius, "celsius", false, "print degrees instead of millidegrees")
		fs.BoolVar(&opts.read.watch, "watch", false, "continuously monitor")
	case "daemon":
	default:
		return nil, fmt.Errorf("unknown command %q (valid: read, daemon)", opts.command)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	return opts, nil
}

func main() {
	opts, err := parseCLI(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	if opts.version {
		fmt.Printf("modem-thermald %s\n", version)
		os.Exit(exitOK)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if opts.debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(daemon.ParseLevel(cfg.Log.Level))
	}

	switch opts.command {
	case "daemon":
		os.Exit(runDaemon(cfg, opts.configPath, logger))
	default:
		os.Exit(runRead(cfg, logger, opts.read))
	}
}

func runDaemon(cfg *config.Config, configPath string, logger *logrus.Logger) int {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		logger.WithError(err).Error("cannot acquire daemon lock")
		return exitAlreadyRun
	}
	if !locked {
		fmt.Fprintln(os.Stderr, "Error: daemon is already running")
		return exitAlreadyRun
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := daemon.NewLoop(cfg, config.NewReloader(configPath), logger)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, loop.Stats(), logger.WithField("component", "metrics"))
		go srv.Start(ctx)
	}

	logger.WithField("version", version).Info("daemon started")

	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitOK
		}
		return exitFatalSerial
	}

	logger.Info("daemon shutdown complete")
	return exitOK
}
