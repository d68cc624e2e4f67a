package util

import (
	"math"
	"time"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// RefreshSeconds returns the whole seconds until deadline, never less than one.
func RefreshSeconds(now, deadline time.Time) int {
	return int(math.Max(1, math.Ceil(deadline.Sub(now).Seconds())))
}
