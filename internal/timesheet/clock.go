package timesheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock parses an "HH:MM" wall-clock value into minutes past midnight.
func ParseClock(s string) (int, error) {
	h, m, err := splitHM(s)
	if err != nil {
		return 0, err
	}
	if h > 23 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return h*60 + m, nil
}

// ParseSpan parses an "HH:MM" length of time (such as a lunch break) into minutes.
func ParseSpan(s string) (int, error) {
	h, m, err := splitHM(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

func splitHM(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	return h, m, nil
}

// FormatClock renders minutes past midnight as "HH:MM".
func FormatClock(minutes int) string {
	minutes = wrapDay(minutes)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ToUTC shifts a local minute-of-day to UTC. offsetMinutes is the submitter's
// offset east of UTC (+720 for NZST). The result stays within a single day;
// no calendar date is involved, so daylight-saving transitions never apply.
func ToUTC(local, offsetMinutes int) int {
	return wrapDay(local - offsetMinutes)
}

func wrapDay(m int) int {
	m %= minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// TotalHours computes worked hours between start and end (minutes past
// midnight) less the lunch break, rounded to two decimals. A non-positive
// span yields 0, as does a lunch longer than the span.
func TotalHours(start, end, lunchMinutes int) float64 {
	elapsed := end - start
	if elapsed <= 0 {
		return 0
	}
	hours := float64(elapsed)/60 - float64(lunchMinutes)/60
	if hours < 0 {
		return 0
	}
	return math.Round(hours*100) / 100
}
