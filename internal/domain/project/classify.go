package project

import "time"

const msPerDay = 86_400_000

// Thresholds are the inclusive upper bounds, in days, of the active and idle tiers.
type Thresholds struct {
	ActiveDays float64
	IdleDays   float64
}

// DefaultThresholds returns the 7/30 day tiers.
func DefaultThresholds() Thresholds {
	return Thresholds{ActiveDays: 7, IdleDays: 30}
}

// Classify maps the last activity timestamp (epoch ms) to a status. A project
// with no recorded activity is stale.
func Classify(last *int64, now time.Time, th Thresholds) Status {
	if last == nil {
		return StatusStale
	}
	days := float64(now.UnixMilli()-*last) / msPerDay
	switch {
	case days <= th.ActiveDays:
		return StatusActive
	case days <= th.IdleDays:
		return StatusIdle
	default:
		return StatusStale
	}
}
