// Package datekey turns instants into local calendar-day keys (YYYY-MM-DD)
// and derives month and year keys from them.
//
// Keys are fixed width and zero padded, so lexicographic order equals
// chronological order and range queries can compare them as strings.
package datekey

import (
	"errors"
	"fmt"
	"time"
)

// Key is a calendar-day key in the form YYYY-MM-DD.
type Key string

const layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// LocalDayKey formats the year, month and day of t in t's own location.
// The instant is never converted to UTC, so a late-night entry stays on the
// local day it happened.
func LocalDayKey(t time.Time) (Key, error) {
	if t.IsZero() {
		return "", fmt.Errorf("%w: zero instant", ErrInvalidDate)
	}
	year, month, day := t.Date()
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("%w: year %d out of range", ErrInvalidDate, year)
	}
	return Key(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)), nil
}

// MustLocalDayKey is LocalDayKey for instants known to be valid, such as time.Now().
func MustLocalDayKey(t time.Time) Key {
	key, err := LocalDayKey(t)
	if err != nil {
		panic(err)
	}
	return key
}

// Parse validates s as a calendar-day key.
func Parse(s string) (Key, error) {
	if len(s) != len(layout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if _, err := time.Parse(layout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Key(s), nil
}

func (k Key) String() string {
	return string(k)
}

// Time returns local midnight of the key's day in loc.
func (k Key) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(layout, string(k), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(k))
	}
	return t, nil
}

// MonthKey returns the YYYY-MM prefix of k.
func MonthKey(k Key) string {
	if len(k) < 7 {
		return ""
	}
	return string(k[:7])
}

// YearKey returns the YYYY prefix of k.
func YearKey(k Key) string {
	if len(k) < 4 {
		return ""
	}
	return string(k[:4])
}

// MonthKeyOf formats the year and month of t in t's location.
func MonthKeyOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// AddDays moves t by n calendar days, keeping the wall clock hour so DST
// transitions never skip or repeat a day.
func AddDays(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// FirstOfMonth returns local midnight of the first day of t's month shifted by n months.
func FirstOfMonth(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
}
