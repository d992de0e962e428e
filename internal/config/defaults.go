package config

// Defaults returns the compiled-in default document. Load deep-merges any
// on-disk document over a fresh copy of this so newly introduced keys
// appear without a manual edit (spec.md §4.7).
func Defaults() *Document {
	return &Document{
		Version: 1,
		Tasks: map[string]TaskConfig{
			"morning_briefing": {Enabled: true, Time: "07:00"},
			"weather_checks":   {Enabled: false},
			"aurora_forecast":  {Enabled: false},
			"health_check":     {Enabled: true, IntervalMinutes: 15},
			"database_backup":  {Enabled: true, Time: "03:00"},
		},
		Heartbeat: HeartbeatConfig{
			QuietStart:  "21:00",
			QuietEnd:    "06:00",
			CustomTasks: []CustomHeartbeat{},
		},
		Automations:     []Automation{},
		Reminders:       []Reminder{},
		PendingTriggers: []PendingTrigger{},
		Providers:       ProvidersConfig{},
	}
}
