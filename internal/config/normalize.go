// internal/config/normalize.go
package config

import "strings"

// Defaults for a stock RM520N deployment.
const (
	DefaultDevice          = "/dev/ttyUSB2"
	DefaultBaud            = 115200
	DefaultIntervalSeconds = 10
	DefaultLogLevel        = "info"

	DefaultModemLabel = "modem-ambient-usr"
	DefaultAPLabel    = "cpuss-0-usr"
	DefaultPALabel    = "modem-lte-sub6-pa1"

	DefaultPrimarySink = "/sys/kernel/quectel_rm520n/temp"
	DefaultHwmonClass  = "/sys/class/hwmon"
	DefaultHwmonName   = "quectel_rm520n"
	DefaultThermalDir  = "/sys/devices/virtual/thermal"

	DefaultMetricsListen = ":9101"
)

// Normalize fills unset fields with defaults and trims label
// whitespace. It is allowed to mutate configuration and MUST be
// called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Serial.Device == "" {
		cfg.Serial.Device = DefaultDevice
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Poll.IntervalSeconds == 0 {
		cfg.Poll.IntervalSeconds = DefaultIntervalSeconds
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	cfg.Labels.Modem = strings.TrimSpace(cfg.Labels.Modem)
	cfg.Labels.AP = strings.TrimSpace(cfg.Labels.AP)
	cfg.Labels.PA = strings.TrimSpace(cfg.Labels.PA)

	if cfg.Labels.Modem == "" && cfg.Labels.AP == "" && cfg.Labels.PA == "" {
		cfg.Labels.Modem = DefaultModemLabel
		cfg.Labels.AP = DefaultAPLabel
		cfg.Labels.PA = DefaultPALabel
	}

	if cfg.Sinks.Primary == "" {
		cfg.Sinks.Primary = DefaultPrimarySink
	}
	if cfg.Sinks.HwmonClass == "" {
		cfg.Sinks.HwmonClass = DefaultHwmonClass
	}
	if cfg.Sinks.HwmonName == "" {
		cfg.Sinks.HwmonName = DefaultHwmonName
	}
	if cfg.Sinks.ThermalDir == "" {
		cfg.Sinks.ThermalDir = DefaultThermalDir
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}
}
