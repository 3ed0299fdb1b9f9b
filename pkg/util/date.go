package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignFromTo aligns the range to candle boundaries for the timeframe:
// from is rounded down, to is rounded up so the range never shrinks.
func AlignFromTo(from, to time.Time, tf string) (time.Time, time.Time) {
	var d time.Duration
	switch tf {
	case "1m":
		d = time.Minute
	case "5m":
		d = 5 * time.Minute
	case "15m":
		d = 15 * time.Minute
	case "1h":
		d = time.Hour
	case "4h":
		d = 4 * time.Hour
	case "1d":
		d = 24 * time.Hour
	default:
		d = time.Minute
	}
	alignedFrom := from.Truncate(d)
	alignedTo := to.Truncate(d)
	if alignedTo.Before(to) {
		alignedTo = alignedTo.Add(d)
	}
	return alignedFrom, alignedTo
}
