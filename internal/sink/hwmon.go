// internal/sink/hwmon.go
package sink

import (
	"os"
	"path/filepath"
	"strings"
)

// Hwmon discovers the virtual hwmon device by matching the declared
// name of each candidate under the hwmon class directory, and writes
// to its temp1_input. The first match is cached; the cache is
// invalidated when the path disappears or a write against it fails.
type Hwmon struct {
	ClassDir string // e.g. /sys/class/hwmon
	Match    string // expected device name

	cached string
}

func (h *Hwmon) Name() string {
	if h.cached != "" {
		return h.cached
	}
	return "hwmon:" + h.Match
}

func (h *Hwmon) Write(milliDeg int) error {
	if h.cached != "" {
		if _, err := os.Stat(h.cached); err != nil {
			h.cached = ""
		}
	}

	if h.cached == "" {
		path, err := h.discover()
		if err != nil {
			return err
		}
		h.cached = path
	}

	if err := writeValue(h.cached, milliDeg); err != nil {
		h.cached = ""
		return err
	}
	return nil
}

// discover scans the class directory for a device whose name file
// matches. Exact match is preferred; a substring match is accepted
// as fallback for renamed driver revisions.
func (h *Hwmon) discover() (string, error) {
	entries, err := os.ReadDir(h.ClassDir)
	if err != nil {
		return "", ErrNoDevice
	}

	fallback := ""
	for _, e := range entries {
		name, err := readTrimmed(filepath.Join(h.ClassDir, e.Name(), "name"))
		if err != nil {
			continue
		}
		valuePath := filepath.Join(h.ClassDir, e.Name(), "temp1_input")
		if name == h.Match {
			return valuePath, nil
		}
		if fallback == "" && strings.Contains(name, h.Match) {
			fallback = valuePath
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoDevice
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
