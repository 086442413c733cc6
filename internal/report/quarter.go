package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuarter reports a quarter label outside Q1-Q4.
var ErrInvalidQuarter = errors.New("report: invalid quarter")

// ResolveQuarter maps a quarter label to an inclusive [start, end] instant
// pair in now's timezone. Q1-Q3 fall in now's year; Q4 always means the
// previous year's Q4, since Q4 reporting happens early in the following year.
func ResolveQuarter(label string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	year := now.Year()

	var startMonth time.Month
	var endMonth time.Month
	var endDay int

	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "Q1":
		startMonth, endMonth, endDay = time.January, time.March, 31
	case "Q2":
		startMonth, endMonth, endDay = time.April, time.June, 30
	case "Q3":
		startMonth, endMonth, endDay = time.July, time.September, 30
	case "Q4":
		year--
		startMonth, endMonth, endDay = time.October, time.December, 31
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q (expected Q1, Q2, Q3 or Q4)", ErrInvalidQuarter, label)
	}

	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, endMonth, endDay, 23, 59, 59, 0, loc)
	return start, end, nil
}
