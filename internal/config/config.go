// Package config implements the bridge's single JSON configuration
// document: task toggles, quiet-period bounds, custom heartbeats,
// automations, reminders, and provider settings (SPEC_FULL.md §3, §4.7).
package config

// Document is the root configuration object.
type Document struct {
	Version int `json:"_version"`

	Tasks     map[string]TaskConfig `json:"tasks"`
	Heartbeat HeartbeatConfig       `json:"heartbeat"`

	Automations []Automation `json:"automations"`
	Reminders   []Reminder   `json:"reminders"`

	// PendingTriggers is written by an external UI and drained by the
	// scheduler's trigger-drain job.
	PendingTriggers []PendingTrigger `json:"pending_triggers"`

	Providers ProvidersConfig `json:"providers"`
}

// TaskConfig toggles and times a built-in scheduled task.
type TaskConfig struct {
	Enabled         bool   `json:"enabled"`
	Time            string `json:"time,omitempty"`             // "HH:MM" for cron-like jobs
	IntervalMinutes int    `json:"interval_minutes,omitempty"` // for fixed-interval jobs
}

// HeartbeatConfig holds the quiet-period bounds and user-authored custom
// heartbeats.
type HeartbeatConfig struct {
	QuietStart   string            `json:"quiet_start"`
	QuietEnd     string            `json:"quiet_end"`
	CustomTasks  []CustomHeartbeat `json:"custom_tasks"`
}

// CustomHeartbeat is a user-defined periodic autonomous prompt.
type CustomHeartbeat struct {
	ID              string `json:"id"`
	ChoomName       string `json:"choom_name"`
	IntervalMinutes int    `json:"interval_minutes"`
	Prompt          string `json:"prompt"`
	Enabled         bool   `json:"enabled"`
	RespectQuiet    bool   `json:"respect_quiet"`
}

// PendingTrigger is a manual-fire request queued by an external UI.
type PendingTrigger struct {
	ID       string `json:"id"`
	TaskType string `json:"task_type"` // "builtin" | "heartbeat" | "automation"
	TaskID   string `json:"task_id"`
}

// Reminder is a durable one-shot reminder (spec.md §3 Reminder).
type Reminder struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	RemindAt  string `json:"remind_at"` // ISO-8601
	CreatedAt string `json:"created_at"`
}

// ProvidersConfig nests the settings of provider-specific collaborators,
// merged into per-turn LLM settings by the companion client.
type ProvidersConfig struct {
	Weather        map[string]any `json:"weather,omitempty"`
	Search         map[string]any `json:"search,omitempty"`
	ImageGen       map[string]any `json:"image_gen,omitempty"`
	Vision         map[string]any `json:"vision,omitempty"`
	HomeAutomation HomeAutomationConfig `json:"home_automation,omitempty"`
}

// HomeAutomationConfig configures the Home Assistant collaborator used by
// condition evaluation (SPEC_FULL.md §4.11).
type HomeAutomationConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	Token   string `json:"token,omitempty"`
}
