// internal/temperature/parse.go

// Package temperature turns raw AT+QTEMP replies into a validated
// milli-degree value: tolerant per-field extraction, strict
// message-level validation, maximum-of-available selection.
package temperature

import (
	"fmt"
	"strings"
)

// Marker is the fixed prefix identifying a temperature reply line
// within the modem's response grammar.
const Marker = "+QTEMP:"

// Hardware-plausible bounds for a single reading, in °C. A field
// outside this range means the message was mis-segmented, not that
// one sensor is broken, so it voids the whole parse.
const (
	MinPlausibleC = -40
	MaxPlausibleC = 120
)

// Labels configures the three quoted sensor labels to extract.
// An empty label skips that field.
type Labels struct {
	Modem string
	AP    string
	PA    string
}

// ReadingSet holds up to three independently-present Celsius
// readings from one reply.
type ReadingSet struct {
	Modem *int
	AP    *int
	PA    *int
}

// Values returns the present readings in modem, AP, PA order.
func (r ReadingSet) Values() []int {
	var out []int
	for _, p := range []*int{r.Modem, r.AP, r.PA} {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Empty reports whether no field was present.
func (r ReadingSet) Empty() bool {
	return r.Modem == nil && r.AP == nil && r.PA == nil
}

// AllZero reports whether every present field parsed to exactly
// zero. Zero is a legal reading, but three of them at once usually
// means the reply was mangled; callers log it as suspicious.
func (r ReadingSet) AllZero() bool {
	if r.Empty() {
		return false
	}
	for _, v := range r.Values() {
		if v != 0 {
			return false
		}
	}
	return true
}

// ParseError reports a reply that did not match the expected grammar
// or carried an implausible field.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "temperature: invalid response: " + e.Reason
}

// Parse extracts the configured labels from a raw reply.
//
// The reply must contain at least one marker line and no ERROR
// acknowledgment. Each label is extracted independently; absence is
// not an error. Any present field outside the hardware-plausible
// range fails the entire parse.
func Parse(raw []byte, labels Labels) (ReadingSet, error) {
	var set ReadingSet
	s := string(raw)

	if !strings.Contains(s, Marker) {
		return set, &ParseError{Reason: "missing " + Marker + " marker"}
	}
	if strings.Contains(s, "ERROR") {
		return set, &ParseError{Reason: "modem returned ERROR"}
	}

	fields := []struct {
		label string
		dst   **int
		name  string
	}{
		{labels.Modem, &set.Modem, "modem"},
		{labels.AP, &set.AP, "ap"},
		{labels.PA, &set.PA, "pa"},
	}

	for _, f := range fields {
		if f.label == "" {
			continue
		}
		v, ok := extractField(s, f.label)
		if !ok {
			continue
		}
		if v < MinPlausibleC || v > MaxPlausibleC {
			return ReadingSet{}, &ParseError{
				Reason: fmt.Sprintf("%s reading %d°C outside [%d,%d]", f.name, v, MinPlausibleC, MaxPlausibleC),
			}
		}
		val := v
		*f.dst = &val
	}

	return set, nil
}

// extractField locates the quoted label on a marker line and parses
// the integer that follows it. Occurrences outside marker lines are
// incidental substrings and are skipped.
func extractField(s, label string) (int, bool) {
	pattern := `"` + label + `"`

	for from := 0; ; {
		idx := strings.Index(s[from:], pattern)
		if idx < 0 {
			return 0, false
		}
		idx += from
		from = idx + len(pattern)

		if !onMarkerLine(s, idx) {
			continue
		}

		if v, ok := parseIntAfter(s[idx+len(pattern):]); ok {
			return v, true
		}
	}
}

// onMarkerLine reports whether the line containing position idx
// starts with the response marker.
func onMarkerLine(s string, idx int) bool {
	start := idx
	for start > 0 && s[start-1] != '\n' && s[start-1] != '\r' {
		start--
	}
	return strings.HasPrefix(s[start:], Marker)
}

// parseIntAfter skips separators and an optional opening quote, then
// parses an optionally signed run of digits.
func parseIntAfter(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == ',') {
		i++
	}
	if i < len(s) && s[i] == '"' {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}

	start := i
	v := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + int(s[i]-'0')
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
