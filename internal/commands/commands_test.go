package commands

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rotoslider/choom-bridge/internal/calendar"
	"github.com/rotoslider/choom-bridge/internal/config"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *calendar.MemoryClient, *config.Store) {
	t.Helper()
	cal := calendar.NewMemoryClient()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	return New(cal, store), cal, store
}

func TestNormalizeQuotes(t *testing.T) {
	in := normalizeQuotes("‘hi’ “there”…")
	if in != "'hi' \"there\"..." {
		t.Fatalf("got %q", in)
	}
}

func TestListAllTaskLists(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	cal.AddItem(context.Background(), "groceries", "milk")
	reply, ok := interp.Interpret(context.Background(), "my lists")
	if !ok {
		t.Fatalf("expected match")
	}
	if !strings.Contains(reply, "groceries") {
		t.Fatalf("expected groceries in reply, got %q", reply)
	}
}

func TestAddToListColonForm(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "add to groceries: milk")
	if !ok || !strings.Contains(reply, "Added 'milk' to groceries") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
	items, _ := cal.ListItems(context.Background(), "groceries")
	if len(items) != 1 || items[0].Title != "milk" {
		t.Fatalf("expected item persisted, got %+v", items)
	}
}

func TestAddToListNaturalFormResolvesAlias(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "add eggs to the grocery list")
	if !ok || !strings.Contains(reply, "groceries") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
	items, _ := cal.ListItems(context.Background(), "groceries")
	if len(items) != 1 || items[0].Title != "eggs" {
		t.Fatalf("expected alias resolved to groceries, got %+v", items)
	}
}

func TestRemoveFromList(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	cal.AddItem(context.Background(), "groceries", "butter")
	reply, ok := interp.Interpret(context.Background(), "remove butter from groceries")
	if !ok || !strings.Contains(reply, "Removed 'butter'") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestRemoveFromListNotFound(t *testing.T) {
	interp, _, _ := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "remove butter from groceries")
	if !ok || !strings.Contains(reply, "not found") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestShowListPendingOnly(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	cal.AddItem(context.Background(), "groceries", "milk")
	reply, ok := interp.Interpret(context.Background(), "show groceries")
	if !ok || !strings.Contains(reply, "milk") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestInlineListMutationOnLLMRoutedText(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	reply, mutated := interp.InlineListMutation(context.Background(), "remember to buy bread please")
	if !mutated || !strings.Contains(reply, "bread") {
		t.Fatalf("got (%q, %v)", reply, mutated)
	}
	items, _ := cal.ListItems(context.Background(), "groceries")
	if len(items) != 1 || items[0].Title != "bread please" {
		t.Fatalf("expected bread item, got %+v", items)
	}
}

func TestTodayCalendarCommand(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	now := time.Now()
	cal.SeedEvents([]calendar.Event{{ID: "1", Summary: "Dentist", Start: now.Add(time.Hour)}})
	reply, ok := interp.Interpret(context.Background(), "what's happening today")
	if !ok || !strings.Contains(reply, "Dentist") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestTodayCalendarSuppressedByWeatherWords(t *testing.T) {
	interp, _, _ := newTestInterpreter(t)
	_, ok := interp.Interpret(context.Background(), "what's the weather today")
	if ok {
		t.Fatalf("expected weather phrasing not to match calendar grammar")
	}
}

func TestBirthdaySearch(t *testing.T) {
	interp, cal, _ := newTestInterpreter(t)
	now := time.Now()
	cal.SeedEvents([]calendar.Event{
		{ID: "1", Summary: "Mom's Birthday", Start: now.AddDate(0, 1, 0)},
		{ID: "2", Summary: "Dentist", Start: now.AddDate(0, 0, 3)},
	})
	reply, ok := interp.Interpret(context.Background(), "any birthdays coming up")
	if !ok || !strings.Contains(reply, "Mom's Birthday") || strings.Contains(reply, "Dentist") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestRelativeReminderInMinutes(t *testing.T) {
	interp, _, store := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "remind me in 30 minutes to check the oven")
	if !ok || !strings.Contains(reply, "30 minutes") || !strings.Contains(reply, "check the oven") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
	doc, _ := store.Load()
	if len(doc.Reminders) != 1 || doc.Reminders[0].Text != "check the oven" {
		t.Fatalf("expected persisted reminder, got %+v", doc.Reminders)
	}
}

func TestRelativeReminderReversedOrder(t *testing.T) {
	interp, _, _ := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "remind me to call mom in 15 minutes")
	if !ok || !strings.Contains(reply, "call mom") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestRelativeReminderWordNumber(t *testing.T) {
	interp, _, _ := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "remind me in thirty minutes to stretch")
	if !ok || !strings.Contains(reply, "30 minutes") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
}

func TestRelativeReminderAnHour(t *testing.T) {
	interp, _, store := newTestInterpreter(t)
	reply, ok := interp.Interpret(context.Background(), "remind me in an hour to feed a cat")
	if !ok || !strings.Contains(reply, "1 hour") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
	doc, _ := store.Load()
	if len(doc.Reminders) != 1 || doc.Reminders[0].Text != "feed a cat" {
		t.Fatalf("expected reminder text left untouched outside the quantity position, got %+v", doc.Reminders)
	}
}

func TestAbsoluteReminderRollsToTomorrow(t *testing.T) {
	interp, _, store := newTestInterpreter(t)
	past := time.Now().Add(-time.Hour)
	hour := past.Hour()
	ampm := "am"
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	if hour >= 12 {
		ampm = "pm"
	}
	reply, ok := interp.Interpret(context.Background(), "remind me at "+strconv.Itoa(h12)+" "+ampm+" to call mom")
	if !ok || !strings.Contains(reply, "call mom") {
		t.Fatalf("got (%q, %v)", reply, ok)
	}
	doc, _ := store.Load()
	if len(doc.Reminders) != 1 {
		t.Fatalf("expected one persisted reminder, got %+v", doc.Reminders)
	}
	remindAt, err := time.Parse(time.RFC3339, doc.Reminders[0].RemindAt)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !remindAt.After(time.Now()) {
		t.Fatalf("expected reminder to be scheduled in the future, got %v", remindAt)
	}
}
