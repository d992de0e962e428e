// Package scheduler runs the bridge's background jobs: built-in cron
// tasks, durable reminders, hot-reloaded custom heartbeats and
// automations, manual triggers, and condition evaluation (spec.md §4.8).
package scheduler

import (
	"fmt"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions plus descriptors
// ("@daily", "@every 1h"), the same option set beeper-ai-bridge's
// pkg/cron/schedule.go uses for its "cron" Kind.
var cronParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor)

// dailySchedule fires once per day at a fixed local hour:minute —
// cron.Cron's Schedule interface implemented directly rather than
// building a "H M * * *" string, since the hour/minute come from parsed
// config ints (the configuration document's "HH:MM" fields), not a cron
// expression.
type dailySchedule struct{ hour, minute int }

func (d dailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), d.hour, d.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// intervalSchedule fires every `every`, anchored at `first` — used for
// fixed-interval jobs and to stagger custom-heartbeat start times so
// concurrently-configured heartbeats don't all fire in the same instant
// (scheduler.py _setup_custom_heartbeats' 30s-per-task stagger).
type intervalSchedule struct {
	every time.Duration
	first time.Time
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	if s.every <= 0 {
		return t.Add(time.Minute)
	}
	steps := t.Sub(s.first)/s.every + 1
	return s.first.Add(steps * s.every)
}

// onceSchedule fires exactly once at `at`. After it has fired, Next
// returns the zero time; the registry removes the entry from inside the
// job itself so the zero time is never asked for again.
type onceSchedule struct{ at time.Time }

func (s onceSchedule) Next(t time.Time) time.Time {
	if s.at.After(t) {
		return s.at
	}
	return time.Time{}
}

// parseHHMM splits a "HH:MM" string into hour and minute, defaulting to
// 0:0 if malformed (mirrors the original's unchecked `map(int, s.split(':'))`
// but never panics).
func parseHHMM(hhmm string) (hour, minute int) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, 0
	}
	return h, m
}
