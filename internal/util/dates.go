package util

import (
	"errors"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date format (use YYYY-MM-DD or RFC3339)")

// ParseDay parses a YYYY-MM-DD form value. Blank input returns ok=false.
func ParseDay(s string) (t time.Time, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false, ErrInvalidDate
	}
	return t, true, nil
}

// AgeOn returns the number of completed years between birth and day.
func AgeOn(birth, day time.Time) int {
	age := day.Year() - birth.Year()
	if day.Month() < birth.Month() || (day.Month() == birth.Month() && day.Day() < birth.Day()) {
		age--
	}
	return age
}

// ParseDateRange accepts YYYY-MM-DD or RFC3339 bounds. A date-only end is
// widened to the start of the following day so the whole day is included.
// Reversed bounds are swapped.
func ParseDateRange(startStr, endStr *string) (start time.Time, hasStart bool, endExclusive time.Time, hasEnd bool, err error) {
	parse := func(p *string) (t time.Time, ok bool, dateOnly bool, err error) {
		if p == nil {
			return time.Time{}, false, false, nil
		}
		s := strings.TrimSpace(*p)
		if s == "" {
			return time.Time{}, false, false, nil
		}
		if tt, e := time.Parse(time.RFC3339, s); e == nil {
			return tt, true, false, nil
		}
		if tt, e := time.Parse(DayLayout, s); e == nil {
			return tt, true, true, nil
		}
		return time.Time{}, false, false, ErrInvalidDate
	}

	rawStart, startOk, _, err := parse(startStr)
	if err != nil {
		return time.Time{}, false, time.Time{}, false, err
	}
	rawEnd, endOk, endDateOnly, err := parse(endStr)
	if err != nil {
		return time.Time{}, false, time.Time{}, false, err
	}

	if startOk && endOk && rawEnd.Before(rawStart) {
		rawStart, rawEnd = rawEnd, rawStart
	}

	if startOk {
		start, hasStart = rawStart, true
	}
	if endOk {
		endExclusive, hasEnd = rawEnd, true
		if endDateOnly {
			endExclusive = rawEnd.AddDate(0, 0, 1)
		}
	}
	return start, hasStart, endExclusive, hasEnd, nil
}
