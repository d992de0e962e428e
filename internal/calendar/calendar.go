// Package calendar defines the narrow collaborator interface the command
// interpreter and condition evaluator depend on for calendar/tasks
// operations (SPEC_FULL.md §4.10). The real backend (Google
// Calendar/Tasks, per original_source/) is an authenticated third-party
// integration and out of scope; this package also ships a deterministic
// in-memory stub so the bridge is runnable standalone.
package calendar

import (
	"context"
	"time"
)

// Event is one calendar event in the owner's calendar.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	AllDay  bool
}

// TaskList is a named list of task items (e.g. "groceries").
type TaskList struct {
	ID    string
	Title string
}

// TaskItem is one item on a task list.
type TaskItem struct {
	ID        string
	Title     string
	Completed bool
}

// Window is the time range to query events over: an event is in the
// window when its start is at or after Start and before End.
type Window struct {
	Start time.Time
	End   time.Time
}

// Client is the interface the command interpreter (spec.md §4.4) and the
// condition evaluator's "calendar" condition (spec.md §4.8) depend on.
type Client interface {
	ListEvents(ctx context.Context, window Window) ([]Event, error)
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	ListItems(ctx context.Context, listTitle string) ([]TaskItem, error)
	AddItem(ctx context.Context, listTitle, item string) error
	RemoveItem(ctx context.Context, listTitle, item string) (bool, error)
}
