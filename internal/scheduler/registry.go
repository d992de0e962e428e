package scheduler

import (
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Registry is one robfig/cron/v3 Cron instance driving every job by a
// stable string id — built-in tasks, custom heartbeats, automations, and
// one-shot reminders all share the same entry table, so the reload loops
// can diff against it instead of juggling separate timers per kind
// (grounded on beeper-ai-bridge's pkg/cron/schedule.go Kind
// discriminator, generalized from a Next-run computation into live
// cron.Schedule implementations).
type Registry struct {
	cron *cronlib.Cron

	mu      sync.Mutex
	entries map[string]cronlib.EntryID
}

// NewRegistry creates a stopped registry; call Start to begin firing jobs.
func NewRegistry() *Registry {
	return &Registry{
		cron:    cronlib.New(cronlib.WithParser(cronParser)),
		entries: make(map[string]cronlib.EntryID),
	}
}

func (r *Registry) Start() { r.cron.Start() }
func (r *Registry) Stop()  { r.cron.Stop() }

// Has reports whether id is currently scheduled.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Remove cancels id's job, if any.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) {
	if entryID, ok := r.entries[id]; ok {
		r.cron.Remove(entryID)
		delete(r.entries, id)
	}
}

func (r *Registry) schedule(id string, sched cronlib.Schedule, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
	r.entries[id] = r.cron.Schedule(sched, cronlib.FuncJob(fn))
}

// AddCron schedules fn on a standard cron expression (or descriptor, e.g.
// "@every 1h").
func (r *Registry) AddCron(id, expr string, fn func()) error {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return err
	}
	r.schedule(id, sched, fn)
	return nil
}

// AddDaily schedules fn once per day at hour:minute local time.
func (r *Registry) AddDaily(id string, hour, minute int, fn func()) {
	r.schedule(id, dailySchedule{hour: hour, minute: minute}, fn)
}

// AddInterval schedules fn on a fixed period, first firing after one
// interval plus an optional stagger (custom-heartbeat thundering-herd
// avoidance).
func (r *Registry) AddInterval(id string, every, stagger time.Duration, fn func()) {
	r.schedule(id, intervalSchedule{every: every, first: time.Now().Add(every + stagger)}, fn)
}

// AddOnce schedules fn to run exactly once at `at`; the entry removes
// itself from the registry immediately after firing.
func (r *Registry) AddOnce(id string, at time.Time, fn func()) {
	wrapped := func() {
		fn()
		r.Remove(id)
	}
	r.schedule(id, onceSchedule{at: at}, wrapped)
}

// IDsWithPrefix returns the currently scheduled ids starting with prefix,
// used by the heartbeat/automation reload loops to find stale entries.
func (r *Registry) IDsWithPrefix(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for id := range r.entries {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			out = append(out, id)
		}
	}
	return out
}
