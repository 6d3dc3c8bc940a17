package window

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var hhmmPattern = regexp.MustCompile(`^\d{4}$`)

// ClockTime is a 24-hour wall clock time with minute resolution.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses an HHMM string. Exactly four digits are required and
// the value must be a real clock time (hour 0-23, minute 0-59).
func ParseClockTime(s string) (ClockTime, error) {
	if !hhmmPattern.MatchString(s) {
		return ClockTime{}, fmt.Errorf("invalid time %q: expected four digits HHMM", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[2:])
	ct := ClockTime{Hour: h, Minute: m}
	if err := ct.Validate(); err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ct, nil
}

// MustParseClockTime is ParseClockTime for literals; it panics on error.
func MustParseClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

// Validate checks the hour and minute ranges.
func (c ClockTime) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59", c.Minute)
	}
	return nil
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders HHMM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d%02d", c.Hour, c.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config files and
// control messages can carry "HHMM" strings.
func (c *ClockTime) UnmarshalText(text []byte) error {
	ct, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// Of returns the clock time of t in t's location.
func Of(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}
