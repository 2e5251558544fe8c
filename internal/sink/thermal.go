// internal/sink/thermal.go
package sink

import (
	"os"
	"path/filepath"
	"strings"
)

// Zone types that are never written to, whatever else they claim to
// be: overwriting a system zone with modem data would mislead the
// kernel's own thermal governors.
var blockedZoneTypes = []string{"cpu", "gpu", "soc", "board"}

// Zone types that identify the modem's own thermal zone, covering
// the naming revisions seen in the field.
var allowedZoneTypes = map[string]bool{
	"quectel_rm520n":  true,
	"modem_thermal":   true,
	"modem-thermal":   true,
	"quectel-thermal": true,
	"rm520n-thermal":  true,
}

// ThermalZone discovers the modem's thermal zone under the virtual
// thermal directory and writes to its temp file. Candidates whose
// declared type matches the blocklist are never selected, even when
// no other candidate exists.
type ThermalZone struct {
	Dir string // e.g. /sys/devices/virtual/thermal

	cached string
}

func (t *ThermalZone) Name() string {
	if t.cached != "" {
		return t.cached
	}
	return "thermal:" + t.Dir
}

func (t *ThermalZone) Write(milliDeg int) error {
	if t.cached != "" {
		if _, err := os.Stat(t.cached); err != nil {
			t.cached = ""
		}
	}

	if t.cached == "" {
		path, err := t.discover()
		if err != nil {
			return err
		}
		t.cached = path
	}

	if err := writeValue(t.cached, milliDeg); err != nil {
		t.cached = ""
		return err
	}
	return nil
}

func (t *ThermalZone) discover() (string, error) {
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return "", ErrNoDevice
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		zoneType, err := readTrimmed(filepath.Join(t.Dir, e.Name(), "type"))
		if err != nil {
			continue
		}
		if blockedZone(zoneType) {
			continue
		}
		if allowedZoneTypes[zoneType] {
			return filepath.Join(t.Dir, e.Name(), "temp"), nil
		}
	}

	return "", ErrNoDevice
}

func blockedZone(zoneType string) bool {
	for _, b := range blockedZoneTypes {
		if strings.Contains(zoneType, b) {
			return true
		}
	}
	return false
}

// Survey classifies every zone under the directory for the startup
// log: system zones, modem zones, and unknowns.
func (t *ThermalZone) Survey() map[string]string {
	out := make(map[string]string)
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		zoneType, err := readTrimmed(filepath.Join(t.Dir, e.Name(), "type"))
		if err != nil {
			continue
		}
		switch {
		case blockedZone(zoneType):
			out[e.Name()] = "system (" + zoneType + ")"
		case allowedZoneTypes[zoneType]:
			out[e.Name()] = "modem (" + zoneType + ")"
		default:
			out[e.Name()] = "unknown (" + zoneType + ")"
		}
	}
	return out
}
