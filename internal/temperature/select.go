// internal/temperature/select.go
package temperature

import (
	"errors"
	"fmt"
)

// Absolute safety envelope in milli-degrees. A selected value
// outside it is rejected, never clamped.
const (
	MinMilliDeg = -40000
	MaxMilliDeg = 125000
)

// ErrNoReadings means Select was invoked on an empty set, which is a
// caller bug: an empty set must be treated as a parse failure first.
var ErrNoReadings = errors.New("temperature: no readings to select from")

// OutOfRangeError reports a selected value outside the safety
// envelope.
type OutOfRangeError struct {
	MilliDeg int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("temperature: %d m°C outside safety envelope [%d,%d]",
		e.MilliDeg, MinMilliDeg, MaxMilliDeg)
}

// Select picks the representative temperature from a reading set:
// the maximum of the present fields, in milli-degrees. The hottest
// available sensor is the operative signal for thermal protection,
// whichever physical sensor produced it.
func Select(set ReadingSet) (int, error) {
	values := set.Values()
	if len(values) == 0 {
		return 0, ErrNoReadings
	}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}

	milli := max * 1000
	if milli < MinMilliDeg || milli > MaxMilliDeg {
		return 0, &OutOfRangeError{MilliDeg: milli}
	}
	return milli, nil
}
