package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ElapsedMode selects how whole minutes between two events are computed.
type ElapsedMode int

const (
	// ElapsedDuration truncates the true duration between events to minutes.
	ElapsedDuration ElapsedMode = iota
	// ElapsedMinuteOfHour subtracts the minute-of-hour fields of the two
	// instants. It is only correct when both fall in the same hour and can be
	// negative across an hour boundary.
	ElapsedMinuteOfHour
)

// ErrUnknownElapsedMode is returned for unrecognized elapsed mode names.
var ErrUnknownElapsedMode = errors.New("unknown elapsed mode")

// String returns the config name of the mode.
func (m ElapsedMode) String() string {
	switch m {
	case ElapsedDuration:
		return "duration"
	case ElapsedMinuteOfHour:
		return "minute-of-hour"
	default:
		return fmt.Sprintf("ElapsedMode(%d)", int(m))
	}
}

// ParseElapsedMode maps a config name to an ElapsedMode. Empty means duration.
func ParseElapsedMode(name string) (ElapsedMode, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "", "duration":
		return ElapsedDuration, nil
	case "minute-of-hour":
		return ElapsedMinuteOfHour, nil
	default:
		return ElapsedDuration, fmt.Errorf("%w %q (valid: duration, minute-of-hour)", ErrUnknownElapsedMode, name)
	}
}

// ElapsedMinutes returns the whole minutes between first and last.
func ElapsedMinutes(mode ElapsedMode, first, last time.Time) int {
	if mode == ElapsedMinuteOfHour {
		return last.Minute() - first.Minute()
	}
	d := last.Sub(first)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Rate returns events per minute. Below one elapsed minute the raw count is
// reported instead.
func Rate(count, minutes int) float64 {
	if minutes < 1 {
		return float64(count)
	}
	return float64(count) / float64(minutes)
}
