package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/compose"
	"github.com/rotoslider/choom-bridge/internal/config"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, recipient, message string, attachments []string) error {
	f.sent = append(f.sent, message)
	return nil
}

type fakeSpeaker struct{}

func (fakeSpeaker) Synthesize(ctx context.Context, text, voice, outputPath string) error { return nil }

func testScheduler(t *testing.T) (*Scheduler, *config.Store, *fakeSender) {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))
	comp := companion.New("http://127.0.0.1:0", store, zerolog.Nop())
	sender := &fakeSender{}
	composer := compose.New(sender, fakeSpeaker{}, comp, t.TempDir(), zerolog.Nop())
	conditions := NewConditionEvaluator(comp, nil, nil)
	s := New(store, comp, composer, sender, fakeSpeaker{}, conditions, zerolog.Nop(), Options{
		OwnerRecipient:   "+15555550100",
		OwnerName:        "Jamie",
		DefaultCompanion: "Genesis",
		TempDir:          t.TempDir(),
	})
	return s, store, sender
}

func TestSetupBuiltinTasksRegistersEnabledOnly(t *testing.T) {
	s, store, _ := testScheduler(t)
	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	s.setupBuiltinTasks(doc)

	if !s.registry.Has("morning_briefing") {
		t.Error("expected morning_briefing registered (enabled by default)")
	}
	if s.registry.Has("weather_checks") {
		t.Error("weather_checks is disabled by default and must not be registered")
	}
	if !s.registry.Has("system_health") {
		t.Error("expected system_health registered (health_check enabled by default)")
	}
	if s.registry.Has("database_backup") {
		t.Error("database_backup must not register without backup storage configured")
	}
}

func TestReloadCustomHeartbeatsAddsAndRemovesStale(t *testing.T) {
	s, store, _ := testScheduler(t)

	_, err := store.Update(func(d *config.Document) {
		d.Heartbeat.CustomTasks = []config.CustomHeartbeat{
			{ID: "a", ChoomName: "Genesis", IntervalMinutes: 10, Prompt: "check in", Enabled: true},
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	s.reloadCustomHeartbeats(context.Background())
	if !s.registry.Has("custom_hb_a") {
		t.Fatal("expected custom_hb_a registered")
	}

	_, err = store.Update(func(d *config.Document) {
		d.Heartbeat.CustomTasks = nil
	})
	if err != nil {
		t.Fatal(err)
	}
	s.reloadCustomHeartbeats(context.Background())
	if s.registry.Has("custom_hb_a") {
		t.Fatal("expected custom_hb_a removed after disappearing from config")
	}
}

func TestReloadCustomHeartbeatsRemovesDisabled(t *testing.T) {
	s, store, _ := testScheduler(t)
	_, err := store.Update(func(d *config.Document) {
		d.Heartbeat.CustomTasks = []config.CustomHeartbeat{
			{ID: "a", ChoomName: "Genesis", IntervalMinutes: 10, Prompt: "check in", Enabled: true},
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	s.reloadCustomHeartbeats(context.Background())
	if !s.registry.Has("custom_hb_a") {
		t.Fatal("expected custom_hb_a registered")
	}

	_, err = store.Update(func(d *config.Document) {
		d.Heartbeat.CustomTasks[0].Enabled = false
	})
	if err != nil {
		t.Fatal(err)
	}
	s.reloadCustomHeartbeats(context.Background())
	if s.registry.Has("custom_hb_a") {
		t.Fatal("expected custom_hb_a removed once disabled")
	}
}

func TestCheckTriggersDispatchesBuiltinAndClears(t *testing.T) {
	s, store, sender := testScheduler(t)
	_, err := store.Update(func(d *config.Document) {
		d.PendingTriggers = []config.PendingTrigger{{ID: "t1", TaskType: "builtin", TaskID: "weather_checks"}}
	})
	if err != nil {
		t.Fatal(err)
	}

	s.checkTriggers(context.Background())

	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.PendingTriggers) != 0 {
		t.Fatalf("expected pending triggers cleared, got %v", doc.PendingTriggers)
	}
	_ = sender // weatherCheck only logs; nothing to assert on sent messages here
}

func TestRestoreRemindersFiresPastDueImmediately(t *testing.T) {
	s, store, sender := testScheduler(t)
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	_, err := store.Update(func(d *config.Document) {
		d.Reminders = []config.Reminder{{ID: "r1", Text: "take out the trash", RemindAt: past, CreatedAt: past}}
	})
	if err != nil {
		t.Fatal(err)
	}

	s.restoreReminders(context.Background())

	if len(sender.sent) == 0 {
		t.Fatal("expected a reminder message to be sent immediately")
	}
	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.GetReminders()) != 0 {
		t.Fatal("expected past-due reminder removed after firing")
	}
}

func TestRestoreRemindersSchedulesFutureOnes(t *testing.T) {
	s, store, _ := testScheduler(t)
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	_, err := store.Update(func(d *config.Document) {
		d.Reminders = []config.Reminder{{ID: "r2", Text: "call back", RemindAt: future, CreatedAt: future}}
	})
	if err != nil {
		t.Fatal(err)
	}

	s.restoreReminders(context.Background())

	if !s.registry.Has("r2") {
		t.Fatal("expected future reminder scheduled as a one-shot job")
	}
}
