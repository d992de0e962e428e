// Package commands implements the deterministic pattern-matching grammar
// that runs before LLM routing: list/task, calendar, and reminder
// commands the owner expects to be instantaneous (spec.md §4.4).
package commands

import (
	"context"
	"strings"

	"github.com/rotoslider/choom-bridge/internal/calendar"
	"github.com/rotoslider/choom-bridge/internal/config"
)

// Result is the outcome of a matched command.
type Result struct {
	Text string
}

// Interpreter owns the collaborators the grammar needs: a calendar/tasks
// client and the configuration store (for reminder persistence).
type Interpreter struct {
	cal   calendar.Client
	store *config.Store
}

// New creates an Interpreter.
func New(cal calendar.Client, store *config.Store) *Interpreter {
	return &Interpreter{cal: cal, store: store}
}

// normalizeQuotes replaces Signal's smart-quote and ellipsis variants with
// their ASCII equivalents before any pattern matching runs (spec.md §4.4).
func normalizeQuotes(s string) string {
	r := strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", "\"", "”", "\"",
		"…", "...",
	)
	return r.Replace(s)
}

// Interpret runs the full grammar against message and returns the matched
// response, or ok=false if nothing matched and the orchestrator should
// fall through to the LLM path.
func (in *Interpreter) Interpret(ctx context.Context, message string) (reply string, ok bool) {
	normalized := normalizeQuotes(message)
	lower := strings.ToLower(strings.TrimSpace(normalized))
	if lower == "" {
		return "", false
	}

	if reply, ok := in.matchListCommand(ctx, lower); ok {
		return reply, true
	}
	if reply, ok := in.matchCalendarCommand(ctx, lower); ok {
		return reply, true
	}
	if reply, ok := in.matchReminderCommand(normalized, lower); ok {
		return reply, true
	}
	return "", false
}

// InlineListMutation is the secondary pass: for messages that fell through
// to the LLM, detect "add X to Y" / "put X on Y" / "remember to buy X" and
// perform the list mutation as a side effect alongside the LLM reply.
func (in *Interpreter) InlineListMutation(ctx context.Context, message string) (reply string, mutated bool) {
	lower := strings.ToLower(normalizeQuotes(message))
	listName, item, found := extractListMutation(lower)
	if !found {
		return "", false
	}
	listName = ResolveListAlias(listName)
	if err := in.cal.AddItem(ctx, listName, item); err != nil {
		return "", false
	}
	return "Added '" + item + "' to " + listName, true
}
