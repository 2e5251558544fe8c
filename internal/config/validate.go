// internal/config/validate.go
package config

import "fmt"

// Baud rates the modem UART accepts.
var supportedBauds = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

var logLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Serial.Device == "" {
		return fmt.Errorf("config: serial device required")
	}

	if !supportedBauds[cfg.Serial.Baud] {
		return fmt.Errorf(
			"config: unsupported baud rate %d (supported: 9600, 19200, 38400, 57600, 115200)",
			cfg.Serial.Baud,
		)
	}

	if cfg.Poll.IntervalSeconds < 1 || cfg.Poll.IntervalSeconds > 3600 {
		return fmt.Errorf(
			"config: poll interval %d out of range [1,3600]",
			cfg.Poll.IntervalSeconds,
		)
	}

	if cfg.Labels.Modem == "" && cfg.Labels.AP == "" && cfg.Labels.PA == "" {
		return fmt.Errorf("config: at least one temperature label required")
	}

	if !logLevels[cfg.Log.Level] {
		return fmt.Errorf(
			"config: unknown log level %q (valid: debug, info, warning, error)",
			cfg.Log.Level,
		)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("config: metrics enabled but no listen address")
	}

	return nil
}
