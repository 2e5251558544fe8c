// internal/sink/sink_test.go
package sink

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func discardLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// touch creates a writable value file the way sysfs nodes pre-exist.
func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func content(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// ---- static ----

func TestStatic_WritesPlainInteger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	touch(t, path)

	s := &Static{Path: path}
	if err := s.Write(45000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := content(t, path); got != "45000" {
		t.Fatalf("content = %q, want 45000", got)
	}
}

func TestStatic_MissingPathFails(t *testing.T) {
	s := &Static{Path: filepath.Join(t.TempDir(), "gone")}
	if err := s.Write(45000); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

// ---- writer independence ----

func TestWriter_OneFailingSinkDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	c := filepath.Join(dir, "c")
	touch(t, a)
	touch(t, c)

	w := NewWriter(discardLog(),
		&Static{Path: a},
		&Static{Path: filepath.Join(dir, "missing")},
		&Static{Path: c},
	)

	if got := w.WriteAll(30000); got != 2 {
		t.Fatalf("written = %d, want 2", got)
	}
	if content(t, a) != "30000" || content(t, c) != "30000" {
		t.Fatalf("surviving sinks not written")
	}
}

// ---- hwmon ----

func TestHwmon_ExactMatchPreferred(t *testing.T) {
	class := t.TempDir()
	touch(t, filepath.Join(class, "hwmon0", "name"))
	os.WriteFile(filepath.Join(class, "hwmon0", "name"), []byte("quectel_rm520n_v2\n"), 0o644)
	touch(t, filepath.Join(class, "hwmon0", "temp1_input"))
	touch(t, filepath.Join(class, "hwmon1", "name"))
	os.WriteFile(filepath.Join(class, "hwmon1", "name"), []byte("quectel_rm520n\n"), 0o644)
	touch(t, filepath.Join(class, "hwmon1", "temp1_input"))

	h := &Hwmon{ClassDir: class, Match: "quectel_rm520n"}
	if err := h.Write(42000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := content(t, filepath.Join(class, "hwmon1", "temp1_input")); got != "42000" {
		t.Fatalf("exact match not written, got %q", got)
	}
	if got := content(t, filepath.Join(class, "hwmon0", "temp1_input")); got != "" {
		t.Fatalf("fallback candidate written: %q", got)
	}
}

func TestHwmon_SubstringFallback(t *testing.T) {
	class := t.TempDir()
	touch(t, filepath.Join(class, "hwmon0", "name"))
	os.WriteFile(filepath.Join(class, "hwmon0", "name"), []byte("quectel_rm520n_v2\n"), 0o644)
	touch(t, filepath.Join(class, "hwmon0", "temp1_input"))

	h := &Hwmon{ClassDir: class, Match: "quectel_rm520n"}
	if err := h.Write(42000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := content(t, filepath.Join(class, "hwmon0", "temp1_input")); got != "42000" {
		t.Fatalf("fallback not written, got %q", got)
	}
}

func TestHwmon_NoDevice(t *testing.T) {
	h := &Hwmon{ClassDir: t.TempDir(), Match: "quectel_rm520n"}
	if err := h.Write(42000); err != ErrNoDevice {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestHwmon_CacheInvalidatedWhenPathVanishes(t *testing.T) {
	class := t.TempDir()
	value := filepath.Join(class, "hwmon0", "temp1_input")
	touch(t, filepath.Join(class, "hwmon0", "name"))
	os.WriteFile(filepath.Join(class, "hwmon0", "name"), []byte("quectel_rm520n\n"), 0o644)
	touch(t, value)

	h := &Hwmon{ClassDir: class, Match: "quectel_rm520n"}
	if err := h.Write(42000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Device disappears; the cached path must be dropped and the next
	// write rediscover instead of failing on the stale path forever.
	if err := os.RemoveAll(filepath.Join(class, "hwmon0")); err != nil {
		t.Fatal(err)
	}
	if err := h.Write(43000); err != ErrNoDevice {
		t.Fatalf("err = %v, want ErrNoDevice after invalidation", err)
	}

	// Device re-registers under a new entry.
	touch(t, filepath.Join(class, "hwmon2", "name"))
	os.WriteFile(filepath.Join(class, "hwmon2", "name"), []byte("quectel_rm520n\n"), 0o644)
	touch(t, filepath.Join(class, "hwmon2", "temp1_input"))

	if err := h.Write(44000); err != nil {
		t.Fatalf("unexpected error after rediscovery: %v", err)
	}
	if got := content(t, filepath.Join(class, "hwmon2", "temp1_input")); got != "44000" {
		t.Fatalf("rediscovered device not written, got %q", got)
	}
}

// ---- thermal zone ----

func makeZone(t *testing.T, dir, name, zoneType string) {
	t.Helper()
	touch(t, filepath.Join(dir, name, "type"))
	os.WriteFile(filepath.Join(dir, name, "type"), []byte(zoneType+"\n"), 0o644)
	touch(t, filepath.Join(dir, name, "temp"))
}

func TestThermalZone_WritesModemZone(t *testing.T) {
	dir := t.TempDir()
	makeZone(t, dir, "thermal_zone0", "cpu-thermal")
	makeZone(t, dir, "thermal_zone1", "modem_thermal")

	z := &ThermalZone{Dir: dir}
	if err := z.Write(51000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := content(t, filepath.Join(dir, "thermal_zone1", "temp")); got != "51000" {
		t.Fatalf("modem zone not written, got %q", got)
	}
	if got := content(t, filepath.Join(dir, "thermal_zone0", "temp")); got != "" {
		t.Fatalf("cpu zone written: %q", got)
	}
}

func TestThermalZone_BlockedZoneNeverSelected(t *testing.T) {
	dir := t.TempDir()
	// Sole candidate, but its type names a system zone.
	makeZone(t, dir, "thermal_zone0", "cpu-thermal")

	z := &ThermalZone{Dir: dir}
	if err := z.Write(51000); err != ErrNoDevice {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
	if got := content(t, filepath.Join(dir, "thermal_zone0", "temp")); got != "" {
		t.Fatalf("blocked zone written: %q", got)
	}
}

func TestThermalZone_UnknownTypeNotSelected(t *testing.T) {
	dir := t.TempDir()
	makeZone(t, dir, "thermal_zone0", "battery")

	z := &ThermalZone{Dir: dir}
	if err := z.Write(51000); err != ErrNoDevice {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestThermalZone_Survey(t *testing.T) {
	dir := t.TempDir()
	makeZone(t, dir, "thermal_zone0", "cpu-thermal")
	makeZone(t, dir, "thermal_zone1", "quectel_rm520n")
	makeZone(t, dir, "thermal_zone2", "battery")

	zones := (&ThermalZone{Dir: dir}).Survey()
	if len(zones) != 3 {
		t.Fatalf("zones = %d, want 3", len(zones))
	}
	if zones["thermal_zone0"] != "system (cpu-thermal)" {
		t.Fatalf("zone0 = %q", zones["thermal_zone0"])
	}
	if zones["thermal_zone1"] != "modem (quectel_rm520n)" {
		t.Fatalf("zone1 = %q", zones["thermal_zone1"])
	}
	if zones["thermal_zone2"] != "unknown (battery)" {
		t.Fatalf("zone2 = %q", zones["thermal_zone2"])
	}
}
