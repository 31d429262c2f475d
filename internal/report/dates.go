package report

import (
	"errors"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

var ErrUnknownPreset = errors.New("unknown date preset")

// DateRange is an inclusive range of calendar days. Order timestamps are
// converted to Location before their day is compared, so an order placed at
// 23:30 local time counts on that local day whatever its UTC date is.
type DateRange struct {
	From     time.Time
	To       time.Time
	Location *time.Location
}

// ParseRange reads two YYYY-MM-DD days in loc. A nil loc means time.Local.
func ParseRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	f, err := time.ParseInLocation(dayLayout, from, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse from: %w", err)
	}
	t, err := time.ParseInLocation(dayLayout, to, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse to: %w", err)
	}
	if t.Before(f) {
		return DateRange{}, fmt.Errorf("range ends %s before it starts %s", to, from)
	}
	return DateRange{From: f, To: t, Location: loc}, nil
}

// Contains reports whether t falls on a day within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := dayNumber(t.In(r.location()))
	return d >= dayNumber(r.From) && d <= dayNumber(r.To)
}

func (r DateRange) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Preset returns the named range relative to now: hoy, ayer, semana (the
// last seven days including today) or mes (the first of the month to today).
func Preset(name string, now time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch name {
	case "hoy":
		return DateRange{From: today, To: today, Location: loc}, nil
	case "ayer":
		y := today.AddDate(0, 0, -1)
		return DateRange{From: y, To: y, Location: loc}, nil
	case "semana":
		return DateRange{From: today.AddDate(0, 0, -6), To: today, Location: loc}, nil
	case "mes":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return DateRange{From: first, To: today, Location: loc}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// dayNumber orders calendar days as yyyymmdd of t's own wall clock.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
