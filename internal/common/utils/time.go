// Package utils provides small helpers shared across the limiter: retry with
// backoff for backend connections and millisecond time arithmetic.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// ParseDuration parses a duration string, additionally accepting whole days
// ("7d") and weeks ("2w").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	var days int
	if n, err := fmt.Sscanf(s, "%dd", &days); err == nil && n == 1 && strings.HasSuffix(s, "d") {
		return time.Duration(days) * 24 * time.Hour, nil
	}

	var weeks int
	if n, err := fmt.Sscanf(s, "%dw", &weeks); err == nil && n == 1 && strings.HasSuffix(s, "w") {
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return 0, fmt.Errorf("invalid duration: %s", s)
}

// FormatDuration formats a duration using the largest sensible unit.
//
//	FormatDuration(30 * time.Second) // "30s"
//	FormatDuration(90 * time.Minute) // "90m"
//	FormatDuration(36 * time.Hour)   // "1.5d"
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1fh", d.Hours())
	}
	return fmt.Sprintf("%.1fd", d.Hours()/24)
}

// CeilSeconds converts milliseconds to whole seconds, rounding up.
// Non-positive input yields 0.
func CeilSeconds(ms int64) int {
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

// DurationMillis returns d in milliseconds, with any positive sub-millisecond
// duration rounded up to 1.
func DurationMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		return 1
	}
	return ms
}
