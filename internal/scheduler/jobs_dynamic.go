package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/config"
)

// runBuiltinTask re-invokes a named built-in job body on demand, used by
// the manual-trigger drain (spec.md §4.8 "built-in" trigger type;
// scheduler.py _run_cron_task's task_map).
func (s *Scheduler) runBuiltinTask(ctx context.Context, id string) bool {
	switch id {
	case "morning_briefing":
		s.morningBriefing(ctx)
	case "weather_checks":
		s.weatherCheck(ctx)
	case "aurora_forecast":
		s.auroraCheck(ctx)
	case "system_health", "health_check":
		s.systemHealthCheck(ctx)
	case "database_backup":
		s.backupDatabases(ctx)
	default:
		return false
	}
	return true
}

// --- Reminders ---------------------------------------------------------

// restoreReminders re-registers every pending reminder as a one-shot job
// after a restart, firing immediately anything already past due
// (scheduler.py _restore_reminders).
func (s *Scheduler) restoreReminders(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	now := time.Now()
	restored := 0
	for _, r := range doc.GetReminders() {
		remindAt, err := time.Parse(time.RFC3339, r.RemindAt)
		if err != nil {
			s.removeReminder(r.ID)
			continue
		}
		if !remindAt.After(now) {
			s.fireReminder(ctx, r.ID, r.Text)
			continue
		}
		id, text := r.ID, r.Text
		s.registry.AddOnce(id, remindAt, func() { s.fireReminder(context.Background(), id, text) })
		restored++
	}
	if restored > 0 {
		s.log.Info().Int("count", restored).Msg("scheduler: restored pending reminders")
	}
}

// checkNewReminders polls for reminders the command interpreter has
// persisted since Start and schedules any not already registered
// (scheduler.py _check_new_reminders).
func (s *Scheduler) checkNewReminders(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	now := time.Now()
	for _, r := range doc.GetReminders() {
		if r.ID == "" || s.registry.Has(r.ID) {
			continue
		}
		remindAt, err := time.Parse(time.RFC3339, r.RemindAt)
		if err != nil {
			s.log.Warn().Str("id", r.ID).Err(err).Msg("scheduler: malformed reminder, dropping")
			s.removeReminder(r.ID)
			continue
		}
		if !remindAt.After(now) {
			s.fireReminder(ctx, r.ID, r.Text)
			continue
		}
		id, text := r.ID, r.Text
		s.registry.AddOnce(id, remindAt, func() { s.fireReminder(context.Background(), id, text) })
	}
}

func (s *Scheduler) fireReminder(ctx context.Context, id, text string) {
	s.sendToOwner(ctx, "Reminder: "+text, s.defaultCompanion, true)
	s.removeReminder(id)
}

func (s *Scheduler) removeReminder(id string) {
	if _, err := s.store.Update(func(doc *config.Document) { doc.RemoveReminder(id) }); err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("scheduler: failed to remove reminder")
	}
}

// --- Notifications ------------------------------------------------------

// checkNotifications drains the companion service's queued, user-
// initiated notifications. Quiet period does not apply: only autonomous
// heartbeats/automations respect it (spec.md §4.8).
func (s *Scheduler) checkNotifications(ctx context.Context) {
	notifications, err := s.companion.FetchNotifications(ctx)
	if err != nil || len(notifications) == 0 {
		return
	}

	var delivered []string
	for _, n := range notifications {
		if n.Message == "" {
			delivered = append(delivered, n.ID)
			continue
		}
		companionName := s.defaultCompanion
		if comp, ok := s.companion.GetByID(ctx, n.ChoomID); ok {
			companionName = comp.Name
		}
		s.sendToOwner(ctx, n.Message, companionName, n.IncludeAudio)
		delivered = append(delivered, n.ID)
	}
	if err := s.companion.DeleteNotifications(ctx, delivered); err != nil {
		s.log.Warn().Err(err).Msg("scheduler: failed to mark notifications delivered")
	}
}

// --- Custom heartbeats ---------------------------------------------------

// setupCustomHeartbeats registers every enabled custom heartbeat at
// startup, staggering start times by heartbeatStagger per job
// (scheduler.py _setup_custom_heartbeats).
func (s *Scheduler) setupCustomHeartbeats(doc *config.Document) {
	stagger := 0
	for _, task := range doc.GetCustomHeartbeats() {
		if !task.Enabled || task.ID == "" || task.ChoomName == "" || task.Prompt == "" {
			continue
		}
		interval := task.IntervalMinutes
		if interval < 5 {
			interval = 5
		}
		t := task
		s.registry.AddInterval(customHeartbeatJobID(t.ID), time.Duration(interval)*time.Minute,
			time.Duration(stagger)*heartbeatStagger, func() {
				s.executeCustomHeartbeat(context.Background(), t.ID, t.ChoomName, t.Prompt, t.RespectQuiet)
			})
		stagger++
	}
}

// reloadCustomHeartbeats reconciles the registry against the
// configuration store: new entries scheduled, disabled entries removed,
// stale entries (no longer present in the file) removed (scheduler.py
// _reload_custom_heartbeats).
func (s *Scheduler) reloadCustomHeartbeats(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	current := make(map[string]bool)
	for _, task := range doc.GetCustomHeartbeats() {
		if task.ID == "" {
			continue
		}
		jobID := customHeartbeatJobID(task.ID)
		current[jobID] = true

		if !task.Enabled {
			s.registry.Remove(jobID)
			continue
		}
		if task.ChoomName == "" || task.Prompt == "" || s.registry.Has(jobID) {
			continue
		}
		interval := task.IntervalMinutes
		if interval < 5 {
			interval = 5
		}
		t := task
		s.registry.AddInterval(jobID, time.Duration(interval)*time.Minute, 0, func() {
			s.executeCustomHeartbeat(context.Background(), t.ID, t.ChoomName, t.Prompt, t.RespectQuiet)
		})
	}
	for _, jobID := range s.registry.IDsWithPrefix("custom_hb_") {
		if !current[jobID] {
			s.registry.Remove(jobID)
			s.log.Info().Str("job", jobID).Msg("scheduler: removed stale custom heartbeat")
		}
	}
}

// executeCustomHeartbeat runs a single heartbeat prompt, forwarding the
// companion's response and any images to the owner (scheduler.py
// _execute_custom_heartbeat).
func (s *Scheduler) executeCustomHeartbeat(ctx context.Context, id, companionName, prompt string, respectQuiet bool) {
	if respectQuiet && s.quietNow() {
		s.log.Debug().Str("id", id).Msg("scheduler: custom heartbeat suppressed (quiet period)")
		return
	}
	if s.companion.IsUserActive(companionName, userActiveWindow) {
		s.log.Info().Str("id", id).Str("companion", companionName).Msg("scheduler: custom heartbeat deferred, user active")
		return
	}

	resp, err := s.companion.SendMessage(ctx, companionName, prompt, companion.SendOptions{})
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("scheduler: custom heartbeat failed")
		return
	}
	if resp.Text == "" && len(resp.Images) == 0 {
		s.log.Warn().Str("id", id).Msg("scheduler: custom heartbeat: no response")
		return
	}
	voice := s.voiceFor(ctx, companionName)
	if err := s.composer.Send(ctx, s.ownerRecipient, resp.Text, companionName, voice, resp.Images); err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("scheduler: failed to deliver heartbeat response")
		return
	}
	s.log.Info().Str("id", id).Msg("scheduler: custom heartbeat delivered")
}

func (s *Scheduler) quietNow() bool {
	doc, err := s.store.Load()
	if err != nil {
		return false
	}
	return doc.IsQuietPeriod(time.Now())
}

// --- Automations ---------------------------------------------------------

// setupAutomations registers every enabled automation at startup
// (scheduler.py _setup_automations).
func (s *Scheduler) setupAutomations(doc *config.Document) {
	for i := range doc.Automations {
		auto := doc.Automations[i]
		if !auto.Enabled || auto.ID == "" || len(auto.Steps) == 0 {
			continue
		}
		s.scheduleAutomation(auto)
	}
}

// reloadAutomations reconciles the registry against the store, same
// shape as reloadCustomHeartbeats (scheduler.py _reload_automations).
func (s *Scheduler) reloadAutomations(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	current := make(map[string]bool)
	for i := range doc.Automations {
		auto := doc.Automations[i]
		if auto.ID == "" {
			continue
		}
		jobID := automationJobID(auto.ID)
		current[jobID] = true

		if !auto.Enabled {
			s.registry.Remove(jobID)
			continue
		}
		if len(auto.Steps) == 0 || s.registry.Has(jobID) {
			continue
		}
		s.scheduleAutomation(auto)
	}
	for _, jobID := range s.registry.IDsWithPrefix("auto_") {
		if !current[jobID] {
			s.registry.Remove(jobID)
			s.log.Info().Str("job", jobID).Msg("scheduler: removed stale automation")
		}
	}
}

func (s *Scheduler) scheduleAutomation(auto config.Automation) {
	jobID := automationJobID(auto.ID)
	run := func() { s.executeAutomation(context.Background(), auto.ID, nil) }

	switch auto.Schedule.Kind {
	case "interval":
		minutes := auto.Schedule.IntervalMinutes
		if minutes < 5 {
			minutes = 5
		}
		s.registry.AddInterval(jobID, time.Duration(minutes)*time.Minute, 0, run)
	case "cron", "":
		if auto.Schedule.Expr == "" {
			s.log.Warn().Str("id", auto.ID).Msg("scheduler: automation has no cron expression")
			return
		}
		if err := s.registry.AddCron(jobID, auto.Schedule.Expr, run); err != nil {
			s.log.Warn().Err(err).Str("id", auto.ID).Msg("scheduler: failed to parse automation cron")
			return
		}
	default:
		s.log.Warn().Str("id", auto.ID).Str("kind", auto.Schedule.Kind).Msg("scheduler: unknown automation schedule kind")
		return
	}
	s.log.Info().Str("id", auto.ID).Str("name", auto.Name).Msg("scheduler: automation scheduled")
}

// runAutomationTask re-runs an automation on demand, bypassing quiet
// period (manual trigger override).
func (s *Scheduler) runAutomationTask(ctx context.Context, id string) bool {
	doc, err := s.store.Load()
	if err != nil {
		return false
	}
	if doc.FindAutomation(id) == nil {
		return false
	}
	respectQuiet := false
	s.executeAutomation(ctx, id, &respectQuiet)
	return true
}

// runHeartbeatTask re-runs a custom heartbeat on demand, bypassing quiet
// period.
func (s *Scheduler) runHeartbeatTask(ctx context.Context, id string) bool {
	doc, err := s.store.Load()
	if err != nil {
		return false
	}
	for _, task := range doc.GetCustomHeartbeats() {
		if task.ID == id && task.ChoomName != "" && task.Prompt != "" {
			s.executeCustomHeartbeat(ctx, task.ID, task.ChoomName, task.Prompt, false)
			return true
		}
	}
	return false
}

// executeAutomation builds the structured step prompt, evaluates
// conditions, runs the turn with fresh_chat=true, and persists
// lastRun/lastResult (scheduler.py _execute_automation).
// respectQuietOverride, when non-nil, overrides the automation's own
// RespectQuiet flag (used by manual triggers, which always bypass it).
func (s *Scheduler) executeAutomation(ctx context.Context, id string, respectQuietOverride *bool) {
	doc, err := s.store.Load()
	if err != nil {
		return
	}
	auto := doc.FindAutomation(id)
	if auto == nil {
		return
	}
	automation := *auto

	respectQuiet := automation.RespectQuiet
	if respectQuietOverride != nil {
		respectQuiet = *respectQuietOverride
	}
	if respectQuiet && doc.IsQuietPeriod(time.Now()) {
		s.log.Debug().Str("id", id).Msg("scheduler: automation suppressed (quiet period)")
		return
	}
	companionName := automation.ChoomName
	if companionName == "" {
		companionName = s.defaultCompanion
	}
	if s.companion.IsUserActive(companionName, userActiveWindow) {
		s.log.Info().Str("id", id).Msg("scheduler: automation deferred, user active")
		return
	}
	if !s.conditions.Evaluate(ctx, automation.Conditions, automation.ConditionLogic) {
		s.log.Info().Str("id", id).Msg("scheduler: automation conditions not met, skipping")
		return
	}

	now := time.Now()
	if automation.Cooldown.Minutes > 0 && automation.LastConditionMet != "" {
		if lastMet, err := time.Parse(time.RFC3339, automation.LastConditionMet); err == nil {
			if now.Sub(lastMet) < time.Duration(automation.Cooldown.Minutes)*time.Minute {
				s.log.Info().Str("id", id).Msg("scheduler: automation within cooldown, skipping")
				return
			}
		}
	}

	stepLines := make([]string, len(automation.Steps))
	for i, step := range automation.Steps {
		stepLines[i] = fmt.Sprintf("Step %d: Use the `%s` tool with %s", i+1, step.ToolName, formatStepArgs(step.Arguments))
	}
	prompt := fmt.Sprintf("Execute this automation: %q\n\n%s\n\n"+
		"Execute each step in order. If a step fails, note the error and continue with remaining steps. "+
		"After all steps, provide a brief summary of what was done.",
		automation.Name, strings.Join(stepLines, "\n"))

	resp, err := s.companion.SendMessage(ctx, companionName, prompt, companion.SendOptions{FreshChat: true})

	result := "success"
	if err != nil || resp.Text == "" {
		result = "failed"
	} else {
		lower := strings.ToLower(resp.Text)
		for _, indicator := range []string{"failed", "error", "could not", "unable to"} {
			if strings.Contains(lower, indicator) {
				result = "partial"
				break
			}
		}
		if automation.NotifyOnComplete {
			s.sendToOwner(ctx, fmt.Sprintf("Automation %q completed:\n\n%s", automation.Name, resp.Text), companionName, false)
		}
		if len(resp.Images) > 0 {
			if err := s.composer.Send(ctx, s.ownerRecipient, "", companionName, "", resp.Images); err != nil {
				s.log.Warn().Err(err).Str("id", id).Msg("scheduler: failed to deliver automation images")
			}
		}
	}

	if _, updateErr := s.store.Update(func(d *config.Document) {
		if a := d.FindAutomation(id); a != nil {
			a.LastRun = now.Format(time.RFC3339)
			a.LastResult = result
			a.LastConditionMet = now.Format(time.RFC3339)
		}
	}); updateErr != nil {
		s.log.Warn().Err(updateErr).Str("id", id).Msg("scheduler: failed to persist automation status")
	}
	s.log.Info().Str("id", id).Str("result", result).Msg("scheduler: automation completed")
}

func formatStepArgs(args map[string]any) string {
	if len(args) == 0 {
		return "no arguments"
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok {
			parts = append(parts, fmt.Sprintf("%s=%q", k, str))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, ", ")
}

// --- Manual triggers -------------------------------------------------

// checkTriggers drains pending_triggers written by an external UI,
// dispatching each to its built-in/heartbeat/automation handler with
// quiet-period suppression disabled (spec.md §4.8).
func (s *Scheduler) checkTriggers(ctx context.Context) {
	doc, err := s.store.Load()
	if err != nil || len(doc.PendingTriggers) == 0 {
		return
	}
	for _, trigger := range doc.PendingTriggers {
		s.log.Info().Str("task_id", trigger.TaskID).Str("type", trigger.TaskType).Msg("scheduler: processing manual trigger")
		var ok bool
		switch trigger.TaskType {
		case "builtin", "cron":
			ok = s.runBuiltinTask(ctx, trigger.TaskID)
		case "heartbeat":
			ok = s.runHeartbeatTask(ctx, trigger.TaskID)
		case "automation":
			ok = s.runAutomationTask(ctx, trigger.TaskID)
		}
		if !ok {
			s.log.Warn().Str("task_id", trigger.TaskID).Str("type", trigger.TaskType).Msg("scheduler: trigger not found or unknown type")
		}
	}
	if _, err := s.store.Update(func(d *config.Document) { d.PendingTriggers = nil }); err != nil {
		s.log.Warn().Err(err).Msg("scheduler: failed to clear processed triggers")
	}
}
