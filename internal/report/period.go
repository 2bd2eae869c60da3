// Package report summarizes recorded payments over calendar periods.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by ParsePeriod and ParseDayRange.
var (
	ErrUnknownPeriod = errors.New("unknown report period")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("invalid date range")
)

// DateLayout is the day format accepted for explicit ranges.
const DateLayout = "2006-01-02"

// MaxRangeDays caps an explicit range, counting both end days.
const MaxRangeDays = 366

// Period names a reporting window relative to the current day.
type Period string

// Supported periods.
const (
	PeriodToday     Period = "today"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodLastMonth Period = "last-month"
)

// Periods lists the supported periods in display order.
var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodLastMonth}

// ParsePeriod accepts a period name, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "day":
		return PeriodToday, nil
	case "week", "this-week":
		return PeriodWeek, nil
	case "month", "this-month":
		return PeriodMonth, nil
	case "last-month", "lastmonth", "previous-month":
		return PeriodLastMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// Title is the human-readable period name.
func (p Period) Title() string {
	switch p {
	case PeriodToday:
		return "Today"
	case PeriodWeek:
		return "This Week"
	case PeriodMonth:
		return "This Month"
	case PeriodLastMonth:
		return "Last Month"
	default:
		return string(p)
	}
}

// Range returns the half-open window [start, end) for p in now's location.
// The week is the last seven days including today; months are whole
// calendar months.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	today := StartOfDay(now)
	switch p {
	case PeriodWeek:
		return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)
	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0)
	case PeriodLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first.AddDate(0, -1, 0), first
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange returns [midnight of from, midnight after to) so that both
// calendar days are fully included.
func DayRange(from, to time.Time) (time.Time, time.Time) {
	return StartOfDay(from), StartOfDay(to).AddDate(0, 0, 1)
}

// ParseDayRange turns inclusive YYYY-MM-DD bounds into a half-open window in
// loc. A single bound selects that one day. Ranges that run backwards or
// span more than MaxRangeDays days are rejected with ErrInvalidRange.
func ParseDayRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}

	fromDay, err := time.ParseInLocation(DateLayout, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q must be YYYY-MM-DD", ErrInvalidDate, from)
	}
	toDay, err := time.ParseInLocation(DateLayout, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q must be YYYY-MM-DD", ErrInvalidDate, to)
	}
	if toDay.Before(fromDay) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %s is before from %s", ErrInvalidRange, to, from)
	}

	start, end := DayRange(fromDay, toDay)
	if last := start.AddDate(0, 0, MaxRangeDays); end.After(last) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: at most %d days may be listed at once", ErrInvalidRange, MaxRangeDays)
	}
	return start, end, nil
}
