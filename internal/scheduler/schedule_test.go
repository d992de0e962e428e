package scheduler

import (
	"testing"
	"time"
)

func TestDailyScheduleRollsToTomorrow(t *testing.T) {
	sched := dailySchedule{hour: 7, minute: 0}

	before := time.Date(2026, 7, 31, 6, 0, 0, 0, time.UTC)
	got := sched.Next(before)
	want := time.Date(2026, 7, 31, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next(%v) = %v, want %v", before, got, want)
	}

	after := time.Date(2026, 7, 31, 7, 0, 0, 0, time.UTC)
	got = sched.Next(after)
	want = time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next(%v) = %v, want %v", after, got, want)
	}
}

func TestIntervalScheduleAnchorsToFirst(t *testing.T) {
	first := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	sched := intervalSchedule{every: 15 * time.Minute, first: first}

	if got := sched.Next(first.Add(-time.Minute)); !got.Equal(first) {
		t.Fatalf("Next before first = %v, want %v", got, first)
	}

	now := first.Add(20 * time.Minute)
	got := sched.Next(now)
	want := first.Add(30 * time.Minute)
	if !got.Equal(want) {
		t.Fatalf("Next(%v) = %v, want %v", now, got, want)
	}
}

func TestOnceScheduleFiresThenGoesZero(t *testing.T) {
	at := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	sched := onceSchedule{at: at}

	if got := sched.Next(at.Add(-time.Hour)); !got.Equal(at) {
		t.Fatalf("Next before at = %v, want %v", got, at)
	}
	if got := sched.Next(at.Add(time.Hour)); !got.IsZero() {
		t.Fatalf("Next after at = %v, want zero", got)
	}
}

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in         string
		hour, minute int
	}{
		{"07:30", 7, 30},
		{"23:59", 23, 59},
		{"garbage", 0, 0},
		{"", 0, 0},
	}
	for _, c := range cases {
		h, m := parseHHMM(c.in)
		if h != c.hour || m != c.minute {
			t.Errorf("parseHHMM(%q) = %d:%d, want %d:%d", c.in, h, m, c.hour, c.minute)
		}
	}
}
