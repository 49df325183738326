// Package wallclock holds the naive, timezone-free time values exchanged by
// the agenda API: time-of-day as "HH:mm", calendar dates and combined
// date-times. Dates and date-times are cloud.google.com/go/civil values;
// Clock adds the minute-resolution time-of-day the availability blocks use.
package wallclock

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	ClockLayout    = "15:04"
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"

	minutesPerDay = 24 * 60
)

// Clock is a time of day with minute resolution, stored as minutes after midnight.
type Clock int

// ParseClock parses an "HH:mm" value. "24:00" is rejected; the latest
// representable clock is 23:59.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:mm", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Add returns the clock shifted by the given number of minutes. The result
// may run past midnight; callers compare it against an end-of-window clock.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as HH:mm. Values past midnight wrap.
func (c Clock) String() string {
	m := int(c) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SinceMidnight returns the clock as an offset from midnight.
func (c Clock) SinceMidnight() time.Duration {
	return time.Duration(c) * time.Minute
}

// OffsetOf returns the full-precision time of day of a date-time as an
// offset from midnight. Seconds are kept.
func OffsetOf(dt civil.DateTime) time.Duration {
	return time.Duration(dt.Time.Hour)*time.Hour +
		time.Duration(dt.Time.Minute)*time.Minute +
		time.Duration(dt.Time.Second)*time.Second +
		time.Duration(dt.Time.Nanosecond)
}

// At combines a calendar date with a clock into a date-time with zero seconds.
func At(d civil.Date, c Clock) civil.DateTime {
	return civil.DateTime{
		Date: d,
		Time: civil.Time{Hour: c.Hour(), Minute: c.Minute()},
	}
}

// Weekday returns the day of the week of a calendar date.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// ParseWeekday resolves an English weekday name in any casing.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.TrimSpace(s)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// SameWeekday reports whether a stored weekday name denotes wd, ignoring case.
func SameWeekday(name string, wd time.Weekday) bool {
	return strings.EqualFold(strings.TrimSpace(name), wd.String())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseDateTime accepts "YYYY-MM-DDTHH:MM:SS", "YYYY-MM-DDTHH:MM" and a bare
// "YYYY-MM-DD" (midnight). A trailing zone designator is rejected: the
// agenda works on wall-clock values only.
func ParseDateTime(s string) (civil.DateTime, error) {
	s = strings.TrimSpace(s)
	if dt, err := civil.ParseDateTime(s); err == nil {
		return dt, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return civil.DateTimeOf(t), nil
	}
	if d, err := civil.ParseDate(s); err == nil {
		return civil.DateTime{Date: d}, nil
	}
	return civil.DateTime{}, fmt.Errorf("invalid date-time %q: expected YYYY-MM-DDTHH:MM:SS without timezone", s)
}

// ToTime converts a naive date-time to a time.Time in UTC for storage in a
// TIMESTAMP (without time zone) column.
func ToTime(dt civil.DateTime) time.Time {
	return dt.In(time.UTC)
}

// FromTime reads the wall-clock fields of a stored timestamp.
func FromTime(t time.Time) civil.DateTime {
	return civil.DateTimeOf(t)
}

// DayBounds returns [start of d, start of the next day) as storage times.
func DayBounds(d civil.Date) (time.Time, time.Time) {
	start := d.In(time.UTC)
	return start, d.AddDays(1).In(time.UTC)
}
