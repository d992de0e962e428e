package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/calendar"
	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/config"
	"github.com/rotoslider/choom-bridge/internal/homeauto"
)

type fakeHomeAuto struct {
	state homeauto.State
	err   error
}

func (f fakeHomeAuto) GetState(ctx context.Context, entityID string) (homeauto.State, error) {
	return f.state, f.err
}

func testCompanionClient(t *testing.T, temperature float64) *companion.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"weather": map[string]any{"location": "here", "temperature": temperature, "description": "clear"},
		})
	}))
	t.Cleanup(srv.Close)
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	return companion.New(srv.URL, store, zerolog.Nop())
}

func TestEvaluateWeatherCondition(t *testing.T) {
	comp := testCompanionClient(t, 72)
	e := NewConditionEvaluator(comp, nil, nil)

	conditions := []config.Condition{{Kind: config.ConditionWeather, Weather: &config.WeatherCondition{
		Field: "temperature", Op: ">", Value: 60,
	}}}
	if !e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected weather condition to be satisfied")
	}

	conditions[0].Weather.Op = "<"
	if e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected weather condition to fail")
	}
}

func TestEvaluateTimeRangeSpansWholeDay(t *testing.T) {
	e := NewConditionEvaluator(nil, nil, nil)
	conditions := []config.Condition{{Kind: config.ConditionTimeRange, TimeRange: &config.TimeRangeCondition{
		After: "00:00", Before: "23:59",
	}}}
	if !e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected a whole-day range to always be satisfied")
	}
}

func TestEvaluateEmptyConditionList(t *testing.T) {
	e := NewConditionEvaluator(nil, nil, nil)
	if !e.Evaluate(context.Background(), nil, "all") {
		t.Fatal("empty condition list must always be satisfied")
	}
}

func TestEvaluateDayOfWeek(t *testing.T) {
	e := NewConditionEvaluator(nil, nil, nil)
	today := int(time.Now().Weekday())
	conditions := []config.Condition{{Kind: config.ConditionDayOfWeek, DayOfWeek: &config.DayOfWeekCondition{
		Days: []int{today},
	}}}
	if !e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected today to match")
	}
	other := (today + 1) % 7
	conditions[0].DayOfWeek.Days = []int{other}
	if e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected today not to match a different day")
	}
}

func TestEvaluateCalendarKeyword(t *testing.T) {
	cal := calendar.NewMemoryClient()
	cal.SeedEvents([]calendar.Event{{Summary: "Dentist appointment", Start: time.Now()}})
	e := NewConditionEvaluator(nil, cal, nil)

	conditions := []config.Condition{{Kind: config.ConditionCalendar, Calendar: &config.CalendarCondition{
		Keyword: "dentist",
	}}}
	if !e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected keyword match")
	}
	conditions[0].Calendar.Keyword = "vacation"
	if e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected no match for unrelated keyword")
	}
}

func TestEvaluateHomeAssistantNumericCompare(t *testing.T) {
	ha := fakeHomeAuto{state: homeauto.State{EntityID: "sensor.temp", Value: "21.5"}}
	e := NewConditionEvaluator(nil, nil, ha)

	conditions := []config.Condition{{Kind: config.ConditionHomeAssistant, HomeAssistant: &config.HomeAssistantCondition{
		EntityID: "sensor.temp", Op: ">", Value: "20",
	}}}
	if !e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected numeric compare to match")
	}
}

func TestEvaluateHomeAssistantUnavailable(t *testing.T) {
	ha := fakeHomeAuto{state: homeauto.State{EntityID: "sensor.temp", Value: "unavailable"}}
	e := NewConditionEvaluator(nil, nil, ha)

	conditions := []config.Condition{{Kind: config.ConditionHomeAssistant, HomeAssistant: &config.HomeAssistantCondition{
		EntityID: "sensor.temp", Op: "==", Value: "21",
	}}}
	if e.Evaluate(context.Background(), conditions, "all") {
		t.Fatal("expected unavailable state to fail the condition")
	}
}

func TestEvaluateAnyLogic(t *testing.T) {
	e := NewConditionEvaluator(nil, nil, nil)
	conditions := []config.Condition{
		{Kind: config.ConditionDayOfWeek, DayOfWeek: &config.DayOfWeekCondition{Days: []int{99}}}, // never matches
		{Kind: config.ConditionNone},
	}
	if !e.Evaluate(context.Background(), conditions, "any") {
		t.Fatal("expected any-logic to be satisfied by the no_condition entry")
	}
}
