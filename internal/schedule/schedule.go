// Package schedule holds the pure time math for daily automation runs. The
// actual trigger (cron loop, HTTP endpoint) lives outside; it just asks these
// two functions.
package schedule

import "time"

// NextRunAt returns the next occurrence of hour:00 strictly after now, in
// now's location. A run at 09:00 sharp reschedules to tomorrow, not today.
func NextRunAt(now time.Time, hour int) time.Time {
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if now.Hour() >= hour {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// IsDue reports whether an automation with the given nextRunAt should run now.
// Paused automations carry a nil nextRunAt and are never due.
func IsDue(now time.Time, nextRunAt *time.Time) bool {
	return nextRunAt != nil && !nextRunAt.After(now)
}
