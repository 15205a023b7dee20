// Package clock supplies the current time and calendar date in the configured location
package clock

import (
	"fmt"
	"time"
)

// DateLayout storage and wire format of calendar dates
const DateLayout = "2006-01-02"

// Clock time source used to decide which calendar day a request belongs to
type Clock interface {
	Now() time.Time
	Today() string
	Location() *time.Location
}

// LocationClock wall clock pinned to a location
type LocationClock struct {
	loc *time.Location
	now func() time.Time
}

var _ Clock = &LocationClock{}

// NewClock create a clock for the IANA zone name, empty name means server local time
func NewClock(timezone string) (*LocationClock, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	return &LocationClock{loc: loc, now: time.Now}, nil
}

// NewFixedClock returns a clock frozen at t, mainly for tests
func NewFixedClock(t time.Time) *LocationClock {
	return &LocationClock{loc: t.Location(), now: func() time.Time { return t }}
}

// Now current time in the clock location
func (c *LocationClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today current calendar date formatted as YYYY-MM-DD
func (c *LocationClock) Today() string {
	return FormatDate(c.Now())
}

func (c *LocationClock) Location() *time.Location {
	return c.loc
}

// Set moves a fixed clock to t
func (c *LocationClock) Set(t time.Time) {
	c.now = func() time.Time { return t }
}

// ParseDate validates a YYYY-MM-DD string and returns it normalized
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(DateLayout), nil
}

// FormatDate formats t as a calendar date in t's own location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a YYYY-MM-DD date by n days
func AddDays(date string, n int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// Millis unix milliseconds of t
func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FromMillis inverse of Millis in the given location
func FromMillis(ms int64, loc *time.Location) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).In(loc)
}
