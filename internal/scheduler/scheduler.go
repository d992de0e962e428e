package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/backup"
	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/compose"
	"github.com/rotoslider/choom-bridge/internal/config"
)

// userActiveWindow is how recently the owner must have messaged a
// companion for a heartbeat/automation targeting it to be deferred
// (spec.md §3 "User-activity map").
const userActiveWindow = 120 * time.Second

// heartbeatStagger is the per-job startup delay added when registering
// custom heartbeats, so N heartbeats configured with the same interval
// don't all fire in the same instant (spec.md §4.8 "stagger start times
// by 30s per job").
const heartbeatStagger = 30 * time.Second

// Scheduler owns the job registry and every built-in, heartbeat, and
// automation task body (spec.md §4.8).
type Scheduler struct {
	registry   *Registry
	store      *config.Store
	companion  *companion.Client
	composer   *compose.Composer
	sender     compose.Sender
	speaker    compose.Speaker
	conditions *ConditionEvaluator
	http       *http.Client
	log        zerolog.Logger

	ownerRecipient   string
	ownerName        string
	defaultCompanion string
	tempDir          string

	backupStorage backup.Storage
	backupSources []backup.SourceFile
	backupKeep    int
}

// Options configures a Scheduler's fixed identity and collaborators.
type Options struct {
	OwnerRecipient   string
	OwnerName        string
	DefaultCompanion string
	TempDir          string

	BackupStorage backup.Storage
	BackupSources []backup.SourceFile
	BackupKeep    int // default 5
}

// New wires a Scheduler. companionClient, composer, sender, and speaker
// all target the same underlying collaborators the bridge orchestrator
// uses for live turns; the scheduler reuses them rather than opening
// parallel connections.
func New(
	store *config.Store,
	companionClient *companion.Client,
	composer *compose.Composer,
	sender compose.Sender,
	speaker compose.Speaker,
	conditions *ConditionEvaluator,
	log zerolog.Logger,
	opts Options,
) *Scheduler {
	keep := opts.BackupKeep
	if keep <= 0 {
		keep = 5
	}
	return &Scheduler{
		registry:         NewRegistry(),
		store:            store,
		companion:        companionClient,
		composer:         composer,
		sender:           sender,
		speaker:          speaker,
		conditions:       conditions,
		http:             &http.Client{Timeout: 30 * time.Second},
		log:              log,
		ownerRecipient:   opts.OwnerRecipient,
		ownerName:        opts.OwnerName,
		defaultCompanion: opts.DefaultCompanion,
		tempDir:          opts.TempDir,
		backupStorage:    opts.BackupStorage,
		backupSources:    opts.BackupSources,
		backupKeep:       keep,
	}
}

// Start loads the configuration document, registers every built-in and
// hot-reloaded job, and starts firing (spec.md §4.8 _setup_default_tasks).
func (s *Scheduler) Start(ctx context.Context) error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	s.setupBuiltinTasks(doc)
	s.restoreReminders(ctx)
	s.registry.AddInterval("check_new_reminders", time.Minute, 0, func() { s.checkNewReminders(context.Background()) })
	s.registry.AddInterval("check_notifications", 15*time.Second, 0, func() { s.checkNotifications(context.Background()) })
	s.setupCustomHeartbeats(doc)
	s.registry.AddInterval("reload_custom_heartbeats", time.Minute, 0, func() { s.reloadCustomHeartbeats(context.Background()) })
	s.setupAutomations(doc)
	s.registry.AddInterval("reload_automations", time.Minute, 0, func() { s.reloadAutomations(context.Background()) })
	s.registry.AddInterval("trigger_poll", 10*time.Second, 0, func() { s.checkTriggers(context.Background()) })

	s.registry.Start()
	s.log.Info().Msg("scheduler: started")
	return nil
}

// Stop halts the job registry.
func (s *Scheduler) Stop() {
	s.registry.Stop()
	s.log.Info().Msg("scheduler: stopped")
}

func (s *Scheduler) setupBuiltinTasks(doc *config.Document) {
	if t, ok := doc.Tasks["morning_briefing"]; ok && t.Enabled {
		hour, minute := parseHHMM(defaultIfEmpty(t.Time, "07:00"))
		s.registry.AddDaily("morning_briefing", hour, minute, func() { s.morningBriefing(context.Background()) })
	}
	if t, ok := doc.Tasks["weather_checks"]; ok && t.Enabled {
		hour, minute := parseHHMM(defaultIfEmpty(t.Time, "12:00"))
		s.registry.AddDaily("weather_checks", hour, minute, func() { s.weatherCheck(context.Background()) })
	}
	if t, ok := doc.Tasks["aurora_forecast"]; ok && t.Enabled {
		hour, minute := parseHHMM(defaultIfEmpty(t.Time, "20:00"))
		s.registry.AddDaily("aurora_forecast", hour, minute, func() { s.auroraCheck(context.Background()) })
	}
	if t, ok := doc.Tasks["health_check"]; ok && t.Enabled {
		interval := t.IntervalMinutes
		if interval <= 0 {
			interval = 15
		}
		s.registry.AddInterval("system_health", time.Duration(interval)*time.Minute, 0, func() { s.systemHealthCheck(context.Background()) })
	}
	if t, ok := doc.Tasks["database_backup"]; ok && t.Enabled && s.backupStorage != nil {
		hour, minute := parseHHMM(defaultIfEmpty(t.Time, "03:00"))
		s.registry.AddDaily("database_backup", hour, minute, func() { s.backupDatabases(context.Background()) })
	}
}

func defaultIfEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// customHeartbeatJobID and automationJobID give hot-reloaded jobs a
// stable, prefixed id so reconciliation can recognize "mine" entries
// among the registry's full set (spec.md §4.8 prefixes "custom_hb_"/"auto_").
func customHeartbeatJobID(id string) string { return "custom_hb_" + id }
func automationJobID(id string) string      { return "auto_" + id }

// newID mints an xid, used for anything not already carrying a
// caller-assigned id (teacher's identifiers.go precedent).
func newID() string { return xid.New().String() }
