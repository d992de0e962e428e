package commands

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rotoslider/choom-bridge/internal/config"
)

// wordToNum normalizes the small set of spelled-out numbers the grammar
// accepts in a reminder's amount, so "remind me in thirty minutes" parses
// the same as "remind me in 30 minutes".
var wordToNum = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"fifteen": "15", "twenty": "20", "thirty": "30", "forty-five": "45",
}

var numberWordPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(wordToNum))
	for word := range wordToNum {
		out[word] = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return out
}()

// aAnQuantityPattern anchors "a"/"an" substitution to the quantity
// position only (immediately before a time unit), so ordinary text like
// "feed a cat" isn't corrupted into "feed 1 cat".
var aAnQuantityPattern = regexp.MustCompile(`\b(?:a|an)\b(\s+(?:minute|minutes|hour|hours|min|mins|hr|hrs)\b)`)

func normalizeNumberWords(s string) string {
	// Longest words first, so "forty-five" is replaced before "five" can
	// match inside it.
	words := make([]string, 0, len(wordToNum))
	for word := range wordToNum {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	for _, word := range words {
		s = numberWordPatterns[word].ReplaceAllString(s, wordToNum[word])
	}
	s = aAnQuantityPattern.ReplaceAllString(s, "1$1")
	return s
}

var (
	remindInPattern  = regexp.MustCompile(`^remind\s+me\s+in\s+(\d+)\s+(minute|minutes|hour|hours|min|mins|hr|hrs)\s+(?:to\s+)?(.+)$`)
	remindInRevPattern = regexp.MustCompile(`^remind\s+me\s+(?:to\s+)?(.+?)\s+in\s+(\d+)\s+(minute|minutes|hour|hours|min|mins|hr|hrs)\.?$`)
	remindAtPattern  = regexp.MustCompile(`^remind\s+me\s+at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s+(?:to\s+)?(.+)$`)
)

func isHourUnit(unit string) bool {
	switch unit {
	case "hour", "hours", "hr", "hrs":
		return true
	default:
		return false
	}
}

// matchReminderCommand recognizes relative ("in N minutes/hours") and
// absolute ("at H[:MM] am/pm") reminders, persists a Reminder, and returns
// the owner-facing confirmation (spec.md §4.4).
func (in *Interpreter) matchReminderCommand(original, lower string) (string, bool) {
	normalized := normalizeNumberWords(lower)

	if m := remindInPattern.FindStringSubmatch(normalized); m != nil {
		return in.scheduleRelativeReminder(m[1], m[2], m[3])
	}
	if m := remindInRevPattern.FindStringSubmatch(normalized); m != nil {
		return in.scheduleRelativeReminder(m[2], m[3], m[1])
	}
	if m := remindAtPattern.FindStringSubmatch(normalized); m != nil {
		return in.scheduleAbsoluteReminder(m[1], m[2], m[3], m[4])
	}
	return "", false
}

func (in *Interpreter) scheduleRelativeReminder(amountStr, unit, text string) (string, bool) {
	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)

	var delta time.Duration
	var timeStr string
	if isHourUnit(unit) {
		delta = time.Duration(amount) * time.Hour
		timeStr = pluralize(amount, "hour")
	} else {
		delta = time.Duration(amount) * time.Minute
		timeStr = pluralize(amount, "minute")
	}

	remindAt := time.Now().Add(delta)
	in.persistReminder(text, remindAt)
	return "Got it! I'll remind you in " + timeStr + ": " + text, true
}

func (in *Interpreter) scheduleAbsoluteReminder(hourStr, minuteStr, ampm, text string) (string, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return "", false
	}
	minute := 0
	if minuteStr != "" {
		minute, err = strconv.Atoi(minuteStr)
		if err != nil {
			return "", false
		}
	}
	text = strings.TrimSpace(text)

	switch ampm {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	now := time.Now()
	remindAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !remindAt.After(now) {
		remindAt = remindAt.AddDate(0, 0, 1)
	}

	in.persistReminder(text, remindAt)
	return "Got it! I'll remind you at " + remindAt.Format("3:04 PM") + ": " + text, true
}

func (in *Interpreter) persistReminder(text string, remindAt time.Time) {
	reminder := config.Reminder{
		ID:        "reminder_" + uuid.NewString(),
		Text:      text,
		RemindAt:  remindAt.Format(time.RFC3339),
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	in.store.Update(func(doc *config.Document) {
		doc.AddReminder(reminder)
	})
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return strconv.Itoa(n) + " " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
