// Package schedule decides whether announcements fall inside the quiet window.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/model"
)

// ErrInvalidClock indicates a time of day that is not HH:MM.
var ErrInvalidClock = errors.New("invalid time of day")

// IsMuted reports whether announcements are suppressed at nowMinute.
// The start minute is inclusive and the end minute exclusive; a window whose
// start is after its end wraps past midnight. An empty window (start == end)
// never mutes.
func IsMuted(s model.MuteSchedule, nowMinute int) bool {
	if !s.Enabled {
		return false
	}

	now := normalize(nowMinute)
	start := normalize(s.StartMinute)
	end := normalize(s.EndMinute)

	if start <= end {
		return start <= now && now < end
	}
	return now >= start || now < end
}

// IsMutedAt is IsMuted evaluated at the wall-clock minute of t.
func IsMutedAt(s model.MuteSchedule, t time.Time) bool {
	return IsMuted(s, MinuteOfDay(t))
}

// MinuteOfDay returns the minutes elapsed since local midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseClock converts "HH:MM" to a minute-of-day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidClock, s)
	}

	return hour*60 + minute, nil
}

// FormatClock renders a minute-of-day as "HH:MM".
func FormatClock(minute int) string {
	minute = normalize(minute)
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// NextChange returns the next minute-of-day at which the muted state flips,
// and false when it never changes.
func NextChange(s model.MuteSchedule, nowMinute int) (int, bool) {
	if !s.Enabled || normalize(s.StartMinute) == normalize(s.EndMinute) {
		return 0, false
	}
	if IsMuted(s, nowMinute) {
		return normalize(s.EndMinute), true
	}
	return normalize(s.StartMinute), true
}

func normalize(minute int) int {
	minute %= model.MinutesPerDay
	if minute < 0 {
		minute += model.MinutesPerDay
	}
	return minute
}
