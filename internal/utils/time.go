package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for request, trip and report dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive span of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DateRangeError names the query bound that failed to parse.
type DateRangeError struct {
	Field string
	Err   error
}

func (e DateRangeError) Error() string {
	if e.Err == nil {
		return e.Field + ": invalid date range"
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e DateRangeError) Unwrap() error { return e.Err }

// ParseDateRange reads optional YYYY-MM-DD bounds. Blank means open.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if r.From, err = parseDay(from); err != nil {
		return DateRange{}, DateRangeError{Field: "from", Err: err}
	}
	if r.To, err = parseDay(to); err != nil {
		return DateRange{}, DateRangeError{Field: "to", Err: err}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return DateRange{}, DateRangeError{Field: "to"}
	}
	return r, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// Contains reports whether date (YYYY-MM-DD) falls inside r. Unparseable
// dates are outside any bounded range.
func (r DateRange) Contains(date string) bool {
	if r.From.IsZero() && r.To.IsZero() {
		return true
	}
	d, err := parseDay(date)
	if err != nil || d.IsZero() {
		return false
	}
	return (r.From.IsZero() || !d.Before(r.From)) && (r.To.IsZero() || !d.After(r.To))
}

// FileStamp is the compact UTC day used in export file names.
func FileStamp(t time.Time) string {
	return t.UTC().Format("20060102")
}

// Timestamp renders t for report footers.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
