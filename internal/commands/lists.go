package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// listAliases maps casual list names to the canonical title used by the
// backing task-list service.
var listAliases = map[string]string{
	"grocery":   "groceries",
	"groceries": "groceries",
	"shopping":  "groceries",
	"to buy":    "to buy",
	"tobuy":     "to buy",
	"hardware":  "hardware store",
	"todo":      "to do",
	"to do":     "to do",
}

// ResolveListAlias resolves a casual list name to its canonical title,
// returning name unchanged if it carries no alias.
func ResolveListAlias(name string) string {
	if canonical, ok := listAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

var (
	listAllPattern = regexp.MustCompile(`^(?:my lists|task lists|lists|show lists)$`)

	addWithColonPattern = regexp.MustCompile(`^add\s+to\s+(?:the\s+)?(\w+)(?:\s+list)?:\s*(.+)$`)
	addPattern          = regexp.MustCompile(`^add\s+(.+?)\s+to\s+(?:the\s+)?(\w+)(?:\s+list)?$`)
	putPattern          = regexp.MustCompile(`^put\s+(.+?)\s+on\s+(?:the\s+)?(\w+)(?:\s+list)?$`)
	rememberPattern     = regexp.MustCompile(`^remember\s+to\s+(?:buy|get|pick up)\s+(.+)$`)

	removePattern = regexp.MustCompile(`^(?:remove|delete|take off)\s+(.+?)\s+(?:from|off)\s+(?:the\s+)?(\w+)(?:\s+list)?$`)

	showListPattern1 = regexp.MustCompile(`^(?:show|whats (?:on|in)|what's (?:on|in)|what (?:is|was) (?:on|in))\s+(?:my\s+)?(?:the\s+)?(\w+)(?:\s+list)?`)
	showListPattern2 = regexp.MustCompile(`^(\w+)\s+list$`)
	showListPattern3 = regexp.MustCompile(`(?:on|in)\s+(?:my\s+)?(?:the\s+)?(\w+)\s+list`)
)

func (in *Interpreter) matchListCommand(ctx context.Context, lower string) (string, bool) {
	if listAllPattern.MatchString(lower) {
		lists, err := in.cal.ListTaskLists(ctx)
		if err != nil || len(lists) == 0 {
			return "No task lists found.", true
		}
		var b strings.Builder
		b.WriteString("Your task lists:\n")
		for i, l := range lists {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- " + l.Title)
		}
		return b.String(), true
	}

	if listName, item, found := extractAdd(lower); found {
		listName = ResolveListAlias(listName)
		if err := in.cal.AddItem(ctx, listName, item); err != nil {
			return fmt.Sprintf("Couldn't add to '%s'. Check if the list exists.", listName), true
		}
		return fmt.Sprintf("Added '%s' to %s", item, listName), true
	}

	if m := removePattern.FindStringSubmatch(lower); m != nil {
		item := strings.TrimSpace(m[1])
		listName := ResolveListAlias(strings.TrimSpace(m[2]))
		removed, err := in.cal.RemoveItem(ctx, listName, item)
		if err != nil {
			return fmt.Sprintf("Failed to remove '%s' from %s", item, listName), true
		}
		if removed {
			return fmt.Sprintf("Removed '%s' from %s", item, listName), true
		}
		return fmt.Sprintf("'%s' not found in %s", item, listName), true
	}

	if listName, found := extractShowList(lower); found {
		return in.showList(ctx, listName), true
	}

	return "", false
}

func (in *Interpreter) showList(ctx context.Context, rawListName string) string {
	listName := ResolveListAlias(rawListName)
	items, err := in.cal.ListItems(ctx, listName)
	if err == nil && len(items) > 0 {
		var lines []string
		for _, it := range items {
			if !it.Completed {
				lines = append(lines, "- "+it.Title)
			}
		}
		if len(lines) > 0 {
			return capitalize(listName) + " list:\n" + strings.Join(lines, "\n")
		}
		return "No pending items in " + listName
	}

	lists, err := in.cal.ListTaskLists(ctx)
	if err == nil {
		for _, l := range lists {
			if strings.EqualFold(l.Title, listName) {
				return "No items in " + listName
			}
		}
	}
	return fmt.Sprintf("List '%s' not found. Say 'my lists' to see available lists.", listName)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// extractAdd matches the colon form first, then the natural-language form.
func extractAdd(lower string) (listName, item string, found bool) {
	if m := addWithColonPattern.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := addPattern.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1]), true
	}
	return "", "", false
}

func extractShowList(lower string) (listName string, found bool) {
	if m := showListPattern1.FindStringSubmatch(lower); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "task" && name != "my" && name != "the" {
			return name, true
		}
	}
	if m := showListPattern2.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := showListPattern3.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// extractListMutation implements the secondary inline pass (spec.md §4.4):
// "add X to Y" / "put X on Y" / "remember to buy X", defaulting to
// groceries for the remember form.
func extractListMutation(lower string) (listName, item string, found bool) {
	if m := addPattern.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1]), true
	}
	if m := putPattern.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1]), true
	}
	if m := rememberPattern.FindStringSubmatch(lower); m != nil {
		return "groceries", strings.TrimSpace(m[1]), true
	}
	return "", "", false
}
