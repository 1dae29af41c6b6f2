// Package timefmt turns durations into the countdown and relative-time strings
// shown on the crossing page.
package timefmt

import (
	"fmt"
	"time"
)

// Milliseconds converts d to whole milliseconds.
func Milliseconds(d time.Duration) int64 {
	return d.Milliseconds()
}

// FormatCountdown renders ms as "1 min, 5 secs" or "2 hrs, 14 mins".
// Negative input is treated as zero. A zero trailing component is dropped,
// so 2h00m is "2 hrs" and 2m00s is "2 mins".
func FormatCountdown(ms int64) string {
	total := wholeSeconds(ms)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		if minutes == 0 {
			return plural(hours, "hr", "hrs")
		}
		return plural(hours, "hr", "hrs") + ", " + plural(minutes, "min", "mins")
	case minutes > 0:
		if seconds == 0 {
			return plural(minutes, "min", "mins")
		}
		return plural(minutes, "min", "mins") + ", " + plural(seconds, "sec", "secs")
	default:
		return plural(seconds, "sec", "secs")
	}
}

// FormatRelative renders ms as a looser phrase such as "3 minutes and 20 seconds".
// Anything below one whole second is "now".
func FormatRelative(ms int64) string {
	total := wholeSeconds(ms)
	if total == 0 {
		return "now"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		if minutes == 0 {
			return plural(hours, "hour", "hours")
		}
		return plural(hours, "hour", "hours") + " and " + plural(minutes, "minute", "minutes")
	case minutes > 0:
		if seconds == 0 {
			return plural(minutes, "minute", "minutes")
		}
		return plural(minutes, "minute", "minutes") + " and " + plural(seconds, "second", "seconds")
	default:
		return plural(seconds, "second", "seconds")
	}
}

// FormatAge renders how old a cached payload is, e.g. "42s", "3m 5s", "1h 2m".
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	if total < 3600 {
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	}
	return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
}

func wholeSeconds(ms int64) int64 {
	if ms <= 0 {
		return 0
	}
	return ms / 1000
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
