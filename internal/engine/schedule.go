package engine

import (
	"sort"
	"time"

	"muralis/internal/config"
)

// scheduleEntry is a parsed [[schedules]] row.
type scheduleEntry struct {
	minute int
	tags   []string
}

// parseSchedule converts the validated config entries into minute-of-day
// order.
func parseSchedule(entries []config.ScheduleEntry) []scheduleEntry {
	parsed := make([]scheduleEntry, 0, len(entries))
	for _, entry := range entries {
		minute, err := config.ParseClock(entry.At)
		if err != nil {
			continue
		}
		parsed = append(parsed, scheduleEntry{minute: minute, tags: entry.Tags})
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].minute < parsed[j].minute })
	return parsed
}

// activeEntry returns the entry covering now: the latest entry whose time of
// day is not after now. Before the first entry of the day the schedule wraps
// to yesterday's last entry.
func activeEntry(entries []scheduleEntry, now time.Time) (scheduleEntry, bool) {
	if len(entries) == 0 {
		return scheduleEntry{}, false
	}
	minute := now.Hour()*60 + now.Minute()
	active := entries[len(entries)-1]
	for _, entry := range entries {
		if entry.minute <= minute {
			active = entry
		}
	}
	return active, true
}

// nextBoundary returns the duration until the next schedule entry becomes
// active, wrapping past midnight when needed.
func nextBoundary(entries []scheduleEntry, now time.Time) (time.Duration, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	minute := now.Hour()*60 + now.Minute()

	next := -1
	for _, entry := range entries {
		if entry.minute > minute {
			next = entry.minute
			break
		}
	}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if next >= 0 {
		target := startOfDay.Add(time.Duration(next) * time.Minute)
		return target.Sub(now), true
	}

	// Wrap to tomorrow's first entry.
	target := startOfDay.Add(24 * time.Hour).Add(time.Duration(entries[0].minute) * time.Minute)
	return target.Sub(now), true
}
