// Package booking holds the pure pricing and lifecycle rules of the
// reservation engine. Nothing here touches the database or the network;
// handlers and repositories call into this package so that the same
// rules apply on every path.
package booking

import (
	"errors"
	"time"
)

// DateLayout is the wire format for calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

var (
	// ErrBadDate is returned when a date string cannot be parsed.
	ErrBadDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrEndBeforeStart is returned when the requested range is inverted.
	ErrEndBeforeStart = errors.New("end date before start date")
	// ErrDateInPast is returned when the range starts before today.
	ErrDateInPast = errors.New("start date in the past")
)

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return t, nil
}

// RentalDays returns the number of billable days for the inclusive
// range [start, end]. Both the pickup and the return day count, so a
// same-day rental is 1 day. Callers must validate start <= end first.
func RentalDays(start, end time.Time) int64 {
	return int64(end.Sub(start)/(24*time.Hour)) + 1
}

// TotalPrice computes pricePerDay * RentalDays(start, end). Amounts are
// whole MAD, so the multiplication is exact.
func TotalPrice(pricePerDay int64, start, end time.Time) int64 {
	return pricePerDay * RentalDays(start, end)
}

// ValidateRange checks that start <= end and that the range does not
// begin before today (no back-dated bookings). today is passed in so
// the rule stays deterministic under test.
func ValidateRange(start, end, today time.Time) error {
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if start.Before(today) {
		return ErrDateInPast
	}
	return nil
}

// Overlaps reports whether two inclusive date ranges share at least one
// calendar day: aStart <= bEnd && aEnd >= bStart.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
