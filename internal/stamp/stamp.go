// Package stamp implements the timetable timestamp used by Ank and Abf
// attributes: a calendar date and wall-clock time written as
// "YYYY-MM-DD HH:MM:SS" with no zone.
package stamp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"zsw/internal/failure"
)

// Layout is the textual form of a Stamp.
const Layout = "YYYY-MM-DD HH:MM:SS"

// Representable year range. Four digits keep Format and Parse symmetric.
const (
	MinYear = 0
	MaxYear = 9999
)

var (
	minUnix = Stamp{Year: MinYear, Month: 1, Day: 1}.unix()
	maxUnix = Stamp{Year: MaxYear, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59}.unix()
)

// Stamp is a calendar date and time of day, second precision.
type Stamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Parse reads s in the "YYYY-MM-DD HH:MM:SS" layout.
func Parse(s string) (Stamp, error) {
	date, clock, ok := strings.Cut(s, " ")
	if !ok || strings.Contains(clock, " ") {
		return Stamp{}, failure.Newf(failure.ParseError, s, "expected date and time separated by one space")
	}
	d, err := fields(date, "-")
	if err != nil {
		return Stamp{}, failure.From(failure.ParseError, s, fmt.Errorf("date: %w", err))
	}
	c, err := fields(clock, ":")
	if err != nil {
		return Stamp{}, failure.From(failure.ParseError, s, fmt.Errorf("time: %w", err))
	}
	st := Stamp{Year: d[0], Month: d[1], Day: d[2], Hour: c[0], Minute: c[1], Second: c[2]}
	if err := st.validate(); err != nil {
		return Stamp{}, failure.From(failure.ParseError, s, err)
	}
	return st, nil
}

// fields splits s into exactly three unsigned decimal numbers.
func fields(s, sep string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return out, fmt.Errorf("expected 3 parts separated by %q, got %d", sep, len(parts))
	}
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return out, fmt.Errorf("invalid number %q", p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}

func (s Stamp) validate() error {
	switch {
	case s.Year < MinYear || s.Year > MaxYear:
		return fmt.Errorf("year %d out of range", s.Year)
	case s.Month < 1 || s.Month > 12:
		return fmt.Errorf("month %d out of range", s.Month)
	case s.Day < 1 || s.Day > daysIn(s.Year, s.Month):
		return fmt.Errorf("day %d out of range for %04d-%02d", s.Day, s.Year, s.Month)
	case s.Hour > 23:
		return fmt.Errorf("hour %d out of range", s.Hour)
	case s.Minute > 59:
		return fmt.Errorf("minute %d out of range", s.Minute)
	case s.Second > 59:
		return fmt.Errorf("second %d out of range", s.Second)
	}
	return nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String renders the stamp in Layout, zero-padded.
func (s Stamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", s.Year, s.Month, s.Day, s.Hour, s.Minute, s.Second)
}

func (s Stamp) unix() int64 {
	return time.Date(s.Year, time.Month(s.Month), s.Day, s.Hour, s.Minute, s.Second, 0, time.UTC).Unix()
}

func fromUnix(u int64) Stamp {
	t := time.Unix(u, 0).UTC()
	return Stamp{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// AddSeconds returns s moved by n seconds with full calendar carry.
// Negative n moves backwards. Leaving the representable year range is an
// Overflow failure.
func (s Stamp) AddSeconds(n int64) (Stamp, error) {
	u := s.unix()
	if n > maxUnix-u || n < minUnix-u {
		return Stamp{}, failure.Newf(failure.Overflow, s.String(), "adding %d seconds leaves years %d..%d", n, MinYear, MaxYear)
	}
	return fromUnix(u + n), nil
}

// Sub returns s - t in whole seconds.
func (s Stamp) Sub(t Stamp) int64 {
	return s.unix() - t.unix()
}
