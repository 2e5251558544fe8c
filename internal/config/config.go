// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration record consumed by the daemon.
// The monitoring loop holds a copy per iteration; a snapshot is never
// mutated after it is handed out.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Poll    PollConfig    `yaml:"poll"`
	Labels  LabelConfig   `yaml:"labels"`
	Log     LogConfig     `yaml:"log"`
	Sinks   SinkConfig    `yaml:"sinks"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// ---- RESPONSE LABELS ----

// LabelConfig names the three quoted sensor labels extracted from the
// AT+QTEMP reply.
type LabelConfig struct {
	Modem string `yaml:"modem"`
	AP    string `yaml:"ap"`
	PA    string `yaml:"pa"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// ---- SINKS ----

type SinkConfig struct {
	Primary    string   `yaml:"primary"`
	HwmonClass string   `yaml:"hwmon_class"`
	HwmonName  string   `yaml:"hwmon_name"`
	ThermalDir string   `yaml:"thermal_dir"`
	Extra      []string `yaml:"extra"`
}

// ---- METRICS (opt-in) ----

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Load reads a yaml config file. A missing file is not an error: the
// daemon then runs entirely on defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			Normalize(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// SerialChanged reports whether a reload requires reopening the
// transport with new parameters.
func (c *Config) SerialChanged(prev *Config) bool {
	return c.Serial.Device != prev.Serial.Device || c.Serial.Baud != prev.Serial.Baud
}

// Equal compares the fields the monitoring loop watches for reload
// change detection. Sink and metrics settings are fixed at startup.
func (c *Config) Equal(o *Config) bool {
	return c.Serial == o.Serial &&
		c.Poll == o.Poll &&
		c.Labels == o.Labels &&
		c.Log == o.Log
}
