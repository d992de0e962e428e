package config

import (
	"encoding/json"
	"fmt"
)

// Automation is a scheduled, conditional sequence of tool calls a
// companion runs on the owner's behalf (spec.md §3 Automation).
type Automation struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	ChoomName       string      `json:"choomName"`
	Steps           []ToolStep  `json:"steps"`
	Schedule        Schedule    `json:"schedule"`
	Enabled         bool        `json:"enabled"`
	RespectQuiet    bool        `json:"respectQuiet"`
	NotifyOnComplete bool       `json:"notifyOnComplete"`
	Conditions      []Condition `json:"conditions"`
	ConditionLogic  string      `json:"conditionLogic"` // "all" | "any"
	Cooldown        Cooldown    `json:"cooldown"`

	LastConditionMet string `json:"lastConditionMet,omitempty"`
	LastRun          string `json:"lastRun,omitempty"`
	LastResult       string `json:"lastResult,omitempty"` // success | partial | failed
}

// ToolStep is one step of an automation: a named tool and its arguments.
type ToolStep struct {
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
}

// Cooldown suppresses re-firing an automation too soon after its
// condition was last satisfied.
type Cooldown struct {
	Minutes int `json:"minutes"`
}

// Schedule is either a cron expression or a fixed interval, mirroring
// beeper-ai-bridge's cron.CronSchedule "kind" discriminator
// (pkg/cron/schedule.go) generalized to two shapes instead of three.
type Schedule struct {
	Kind            string `json:"-"`
	Expr            string `json:"-"` // cron expression, when Kind == "cron"
	IntervalMinutes int    `json:"-"` // when Kind == "interval"
}

// scheduleWire is the on-disk shape: either a bare cron string or an
// object {"type":"interval","intervalMinutes":N}.
type scheduleWire struct {
	Type            string `json:"type"`
	IntervalMinutes int    `json:"intervalMinutes"`
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case "interval":
		return json.Marshal(scheduleWire{Type: "interval", IntervalMinutes: s.IntervalMinutes})
	case "cron", "":
		return json.Marshal(s.Expr)
	default:
		return nil, fmt.Errorf("config: unknown schedule kind %q", s.Kind)
	}
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Kind = "cron"
		s.Expr = str
		return nil
	}
	var wire scheduleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("config: invalid schedule: %w", err)
	}
	if wire.Type != "interval" {
		return fmt.Errorf("config: unsupported schedule type %q", wire.Type)
	}
	s.Kind = "interval"
	s.IntervalMinutes = wire.IntervalMinutes
	return nil
}

// Condition is a tagged variant; exactly one of its payload fields is
// populated depending on Kind. See spec.md §3 Condition.
type Condition struct {
	Kind string `json:"kind"`

	Weather      *WeatherCondition      `json:"weather,omitempty"`
	TimeRange    *TimeRangeCondition    `json:"time_range,omitempty"`
	DayOfWeek    *DayOfWeekCondition    `json:"day_of_week,omitempty"`
	Calendar     *CalendarCondition     `json:"calendar,omitempty"`
	HomeAssistant *HomeAssistantCondition `json:"home_assistant,omitempty"`
}

const (
	ConditionNone          = "no_condition"
	ConditionWeather       = "weather"
	ConditionTimeRange     = "time_range"
	ConditionDayOfWeek     = "day_of_week"
	ConditionCalendar      = "calendar"
	ConditionHomeAssistant = "home_assistant"
)

// WeatherCondition compares a current-weather field against a value.
type WeatherCondition struct {
	Field string  `json:"field"` // temperature | windSpeed | humidity
	Op    string  `json:"op"`    // <, >, <=, >=, ==
	Value float64 `json:"value"`
}

// TimeRangeCondition is satisfied when the current time of day falls in
// [After, Before], both minutes included, wrapping past midnight when
// After > Before.
type TimeRangeCondition struct {
	After  string `json:"after"`  // "HH:MM"
	Before string `json:"before"` // "HH:MM"
}

// DayOfWeekCondition is satisfied on the listed days, Sunday == 0.
type DayOfWeekCondition struct {
	Days []int `json:"days"`
}

// CalendarCondition checks for events matching an optional keyword and/or
// the mere presence of events today.
type CalendarCondition struct {
	HasEvents *bool  `json:"has_events,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
}

// HomeAssistantCondition compares a Home Assistant entity's state.
type HomeAssistantCondition struct {
	EntityID string `json:"entity_id"`
	Op       string `json:"op"` // <, >, <=, >=, ==, !=
	Value    string `json:"ha_value"`
}
