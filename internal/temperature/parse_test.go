// internal/temperature/parse_test.go
package temperature

import (
	"errors"
	"testing"
)

var testLabels = Labels{
	Modem: "modem-ambient-usr",
	AP:    "cpuss-0-usr",
	PA:    "modem-lte-sub6-pa1",
}

// response builds a reply in the modem's grammar from label/value
// pairs, with the usual trailing OK.
func response(pairs ...string) []byte {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		out += "+QTEMP:\"" + pairs[i] + "\",\"" + pairs[i+1] + "\"\r\n"
	}
	out += "\r\nOK\r\n"
	return []byte(out)
}

func intp(v int) *int { return &v }

// ---- parse ----

func TestParse_AllFieldsPresent(t *testing.T) {
	raw := response(
		"modem-ambient-usr", "30",
		"cpuss-0-usr", "45",
		"modem-lte-sub6-pa1", "20",
	)

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Modem == nil || *set.Modem != 30 {
		t.Fatalf("modem = %v, want 30", set.Modem)
	}
	if set.AP == nil || *set.AP != 45 {
		t.Fatalf("ap = %v, want 45", set.AP)
	}
	if set.PA == nil || *set.PA != 20 {
		t.Fatalf("pa = %v, want 20", set.PA)
	}
}

func TestParse_MissingFieldsTolerated(t *testing.T) {
	raw := response("modem-ambient-usr", "30", "cpuss-0-usr", "45")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.PA != nil {
		t.Fatalf("pa = %v, want absent", *set.PA)
	}
	if set.Modem == nil || set.AP == nil {
		t.Fatalf("expected modem and ap present")
	}
}

func TestParse_NoConfiguredLabels(t *testing.T) {
	raw := response("xo-therm-usr", "33")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Empty() {
		t.Fatalf("expected empty set, got %v", set.Values())
	}
}

func TestParse_MissingMarker(t *testing.T) {
	if _, err := Parse([]byte("\r\nOK\r\n"), testLabels); err == nil {
		t.Fatalf("expected error for reply without marker")
	}
}

func TestParse_ErrorReply(t *testing.T) {
	raw := []byte("+QTEMP:\"modem-ambient-usr\",\"30\"\r\nERROR\r\n")
	if _, err := Parse(raw, testLabels); err == nil {
		t.Fatalf("expected error for ERROR reply")
	}
}

func TestParse_OutOfRangeVoidsEntireMessage(t *testing.T) {
	// One insane field invalidates the whole parse even when the
	// other fields are fine.
	raw := response("modem-ambient-usr", "30", "cpuss-0-usr", "200")

	set, err := Parse(raw, testLabels)
	if err == nil {
		t.Fatalf("expected parse failure, got %v", set.Values())
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if !set.Empty() {
		t.Fatalf("expected no partial result, got %v", set.Values())
	}
}

func TestParse_NegativeValue(t *testing.T) {
	raw := []byte("+QTEMP:\"modem-ambient-usr\",\"-20\"\r\nOK\r\n")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Modem == nil || *set.Modem != -20 {
		t.Fatalf("modem = %v, want -20", set.Modem)
	}
}

func TestParse_LabelOutsideMarkerLineIgnored(t *testing.T) {
	// The label appearing as incidental text elsewhere in the buffer
	// must not be picked up.
	raw := []byte("note \"cpuss-0-usr\" 99\r\n+QTEMP:\"modem-ambient-usr\",\"31\"\r\nOK\r\n")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.AP != nil {
		t.Fatalf("ap = %v, want absent", *set.AP)
	}
	if set.Modem == nil || *set.Modem != 31 {
		t.Fatalf("modem = %v, want 31", set.Modem)
	}
}

func TestParse_AllZeroIsLegal(t *testing.T) {
	raw := response("modem-ambient-usr", "0", "cpuss-0-usr", "0", "modem-lte-sub6-pa1", "0")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.AllZero() {
		t.Fatalf("expected AllZero")
	}
}

// ---- select ----

func TestSelect_MaximumOfPresent(t *testing.T) {
	set := ReadingSet{Modem: intp(30), AP: intp(45), PA: intp(20)}

	got, err := Select(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 45000 {
		t.Fatalf("selected %d, want 45000", got)
	}
}

func TestSelect_SingleReading(t *testing.T) {
	got, err := Select(ReadingSet{PA: intp(-5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -5000 {
		t.Fatalf("selected %d, want -5000", got)
	}
}

func TestSelect_EmptySetIsCallerError(t *testing.T) {
	if _, err := Select(ReadingSet{}); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestSelect_SafetyEnvelopeRejected(t *testing.T) {
	_, err := Select(ReadingSet{Modem: intp(126)})
	if err == nil {
		t.Fatalf("expected rejection above safety envelope")
	}
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %T", err)
	}
	if oor.MilliDeg != 126000 {
		t.Fatalf("MilliDeg = %d, want 126000", oor.MilliDeg)
	}
}

// ---- round trip ----

func TestParseSelect_RoundTrip(t *testing.T) {
	raw := []byte("+QTEMP:\"modem-ambient-usr\",\"30\",\"cpuss-0-usr\",\"45\"\r\nOK\r\n")

	set, err := Parse(raw, testLabels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Modem == nil || *set.Modem != 30 || set.AP == nil || *set.AP != 45 || set.PA != nil {
		t.Fatalf("unexpected set: %+v", set)
	}

	got, err := Select(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 45000 {
		t.Fatalf("selected %d, want 45000", got)
	}
}
