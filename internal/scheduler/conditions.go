package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotoslider/choom-bridge/internal/calendar"
	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/config"
	"github.com/rotoslider/choom-bridge/internal/homeauto"
)

// ConditionEvaluator checks an automation's condition list against live
// weather, calendar, and Home Assistant state (spec.md §4.8, grounded on
// scheduler.py's _evaluate_single_condition and its five per-kind
// evaluators, lines 1024-1255).
type ConditionEvaluator struct {
	companion *companion.Client
	calendar  calendar.Client
	homeauto  homeauto.Client
}

// NewConditionEvaluator wires the three live collaborators a Condition
// may need. calendar/homeauto may be nil if unconfigured — any condition
// needing them then evaluates false rather than panicking.
func NewConditionEvaluator(comp *companion.Client, cal calendar.Client, ha homeauto.Client) *ConditionEvaluator {
	return &ConditionEvaluator{companion: comp, calendar: cal, homeauto: ha}
}

// Evaluate reports whether conditions are satisfied under the given
// logic ("all" default, or "any"). An empty condition list is always
// satisfied (spec.md §4.8 automation execution).
func (e *ConditionEvaluator) Evaluate(ctx context.Context, conditions []config.Condition, logic string) bool {
	if len(conditions) == 0 {
		return true
	}
	if logic == "any" {
		for _, c := range conditions {
			if e.evalOne(ctx, c) {
				return true
			}
		}
		return false
	}
	for _, c := range conditions {
		if !e.evalOne(ctx, c) {
			return false
		}
	}
	return true
}

func (e *ConditionEvaluator) evalOne(ctx context.Context, c config.Condition) bool {
	switch c.Kind {
	case config.ConditionNone, "":
		return true
	case config.ConditionWeather:
		return e.evalWeather(ctx, c.Weather)
	case config.ConditionTimeRange:
		return e.evalTimeRange(c.TimeRange)
	case config.ConditionDayOfWeek:
		return e.evalDayOfWeek(c.DayOfWeek)
	case config.ConditionCalendar:
		return e.evalCalendar(ctx, c.Calendar)
	case config.ConditionHomeAssistant:
		return e.evalHomeAssistant(ctx, c.HomeAssistant)
	default:
		return false
	}
}

func (e *ConditionEvaluator) evalWeather(ctx context.Context, cond *config.WeatherCondition) bool {
	if cond == nil || e.companion == nil {
		return false
	}
	reading, err := e.companion.GetWeather(ctx, "")
	if err != nil {
		return false
	}
	var actual float64
	switch cond.Field {
	case "temperature":
		actual = reading.Temperature
	case "windSpeed":
		actual = reading.WindSpeed
	case "humidity":
		actual = reading.Humidity
	default:
		return false
	}
	return compareNumeric(actual, cond.Op, cond.Value)
}

// evalTimeRange reuses config.IsQuietPeriod's overnight-wraparound math
// for the [after, before) part of the range and also accepts the before
// minute itself, so the condition is the inclusive [after, before].
func (e *ConditionEvaluator) evalTimeRange(cond *config.TimeRangeCondition) bool {
	if cond == nil {
		return false
	}
	now := time.Now()
	if config.IsQuietPeriod(cond.After, cond.Before, now) {
		return true
	}
	_, errAfter := time.Parse("15:04", strings.TrimSpace(cond.After))
	end, errBefore := time.Parse("15:04", strings.TrimSpace(cond.Before))
	return errAfter == nil && errBefore == nil && now.Hour() == end.Hour() && now.Minute() == end.Minute()
}

// evalDayOfWeek checks today against the configured days. Go's
// time.Weekday is already Sunday==0, the same convention the original
// converts to from Python's native Monday==0 — no conversion needed here.
func (e *ConditionEvaluator) evalDayOfWeek(cond *config.DayOfWeekCondition) bool {
	if cond == nil {
		return false
	}
	today := int(time.Now().Weekday())
	for _, d := range cond.Days {
		if d == today {
			return true
		}
	}
	return false
}

func (e *ConditionEvaluator) evalCalendar(ctx context.Context, cond *config.CalendarCondition) bool {
	if cond == nil || e.calendar == nil {
		return false
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	events, err := e.calendar.ListEvents(ctx, calendar.Window{Start: start, End: end})
	if err != nil {
		return false
	}
	if cond.Keyword != "" {
		kw := strings.ToLower(cond.Keyword)
		for _, ev := range events {
			if strings.Contains(strings.ToLower(ev.Summary), kw) {
				return true
			}
		}
		return false
	}
	if cond.HasEvents != nil {
		return (len(events) > 0) == *cond.HasEvents
	}
	return len(events) > 0
}

func (e *ConditionEvaluator) evalHomeAssistant(ctx context.Context, cond *config.HomeAssistantCondition) bool {
	if cond == nil || e.homeauto == nil {
		return false
	}
	state, err := e.homeauto.GetState(ctx, cond.EntityID)
	if err != nil || state.Unavailable() {
		return false
	}
	if actual, errA := strconv.ParseFloat(state.Value, 64); errA == nil {
		if target, errT := strconv.ParseFloat(cond.Value, 64); errT == nil {
			return compareNumeric(actual, cond.Op, target)
		}
	}
	switch cond.Op {
	case "==":
		return state.Value == cond.Value
	case "!=":
		return state.Value != cond.Value
	default:
		return false
	}
}

func compareNumeric(actual float64, op string, target float64) bool {
	switch op {
	case "<":
		return actual < target
	case ">":
		return actual > target
	case "<=":
		return actual <= target
	case ">=":
		return actual >= target
	case "==":
		return actual == target
	case "!=":
		return actual != target
	default:
		return false
	}
}
