package models

import "time"

// DefaultInterval is the granularity assumed for streamed ticks.
const DefaultInterval = "1m"

// IntervalMinutes maps an interval label to the bar width in minutes, which
// is what the upstream bars endpoints expect. Unknown labels fall back to 1.
func IntervalMinutes(interval string) int {
	switch interval {
	case "1m":
		return 1
	case "5m":
		return 5
	case "15m":
		return 15
	case "30m":
		return 30
	case "1h":
		return 60
	case "4h":
		return 240
	case "1d":
		return 1440
	default:
		return 1
	}
}

// IntervalMaxAge is the staleness policy: the oldest a stored bar of the
// given interval may be before a read triggers an upstream refresh.
func IntervalMaxAge(interval string) time.Duration {
	switch interval {
	case "1m":
		return 5 * time.Minute
	case "5m":
		return 10 * time.Minute
	case "15m":
		return 20 * time.Minute
	case "30m":
		return 40 * time.Minute
	case "1h":
		return 2 * time.Hour
	case "4h":
		return 6 * time.Hour
	case "1d":
		return 48 * time.Hour
	default:
		return 5 * time.Minute
	}
}
