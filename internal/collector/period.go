package collector

import (
	"fmt"
	"slices"
	"time"
)

// Periods are the supported lookback codes, shortest first.
var Periods = []string{"1d", "5d", "1mo", "3mo", "1y", "ytd"}

// intervals lists the sampling intervals each period allows.
var intervals = map[string][]string{
	"1d":  {"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h"},
	"5d":  {"5m", "15m", "30m", "60m", "90m", "1h", "1d"},
	"1mo": {"15m", "30m", "60m", "90m", "1h", "1d"},
	"3mo": {"1h", "1d", "1wk"},
	"1y":  {"1d", "1wk", "1mo"},
	"ytd": {"1d", "1wk", "1mo"},
}

// defaults is the interval used when none is given.
var defaults = map[string]string{
	"1d":  "15m",
	"5d":  "60m",
	"1mo": "1d",
	"3mo": "1d",
	"1y":  "1d",
	"ytd": "1d",
}

// Intervals returns the intervals valid for period, or nil if the period is unknown.
func Intervals(period string) []string {
	return slices.Clone(intervals[period])
}

// DefaultInterval returns the usual interval for period.
func DefaultInterval(period string) string {
	return defaults[period]
}

// ValidateRange checks a period/interval pair.
func ValidateRange(period, interval string) error {
	valid, ok := intervals[period]
	if !ok {
		return fmt.Errorf("unknown period %q, want one of %v", period, Periods)
	}
	if !slices.Contains(valid, interval) {
		return fmt.Errorf("interval %q not available for period %s, want one of %v", interval, period, valid)
	}
	return nil
}

// IntervalDuration returns the length of one candle. Months count as 30 days.
func IntervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "2m":
		return 2 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "60m", "1h":
		return time.Hour, nil
	case "90m":
		return 90 * time.Minute, nil
	case "1d":
		return 24 * time.Hour, nil
	case "1wk":
		return 7 * 24 * time.Hour, nil
	case "1mo":
		return 30 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown interval %q", interval)
}

// PeriodStart returns when the lookback period begins, counted back from now.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("unknown period %q", period)
}
