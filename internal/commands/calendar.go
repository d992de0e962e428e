package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotoslider/choom-bridge/internal/calendar"
)

var weatherWords = []string{"weather", "forecast", "temperature", "rain", "snow", "wind", "cold", "hot", "warm", "humid"}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var (
	todayExact = map[string]bool{
		"today": true, "today's calendar": true, "whats today": true, "what's today": true,
		"events today": true, "calendar today": true, "check the calendar": true, "check my calendar": true,
		"meetings today": true, "any meetings today": true, "any meetings": true, "meetings": true,
		"what's happening today": true, "whats happening today": true, "schedule today": true,
		"schedule for today": true, "today's schedule": true,
	}
	todayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`whats on.*calendar`),
		regexp.MustCompile(`what's on.*calendar`),
		regexp.MustCompile(`check.*calendar`),
		regexp.MustCompile(`(?:any|check|do i have).*meeting`),
		regexp.MustCompile(`meeting.*today`),
		regexp.MustCompile(`what.*meeting.*today`),
		regexp.MustCompile(`check about.*meeting`),
		regexp.MustCompile(`(?:any|what).*(?:event|appointment).*today`),
		regexp.MustCompile(`do i have anything.*today`),
		regexp.MustCompile(`what's (?:on|happening|going on).*today`),
		regexp.MustCompile(`(?:any|what).*on (?:the |my )?schedule`),
		regexp.MustCompile(`anything (?:on|going on).*today`),
	}

	genericMeetingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:when\s+is\s+)?(?:my\s+)?next\s+meeting`),
		regexp.MustCompile(`upcoming\s+meeting`),
		regexp.MustCompile(`(?:do\s+i\s+have\s+)?(?:any\s+)?meetings?\s+(?:coming\s+up|this\s+month|scheduled)`),
		regexp.MustCompile(`(?:what|when)\s+(?:are|is)\s+my\s+(?:next\s+)?meetings?`),
	}

	birthdayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:who(?:'?s|se)\s+)?birthday\s+(?:is\s+)?(?:up\s+)?next`),
		regexp.MustCompile(`next\s+birthday`),
		regexp.MustCompile(`upcoming\s+birthday`),
		regexp.MustCompile(`(?:look\s+up|find|search\s+for|check)\s+(?:the\s+)?birthdays?`),
		regexp.MustCompile(`(?:any|when\s+(?:are|is))\s+(?:the\s+)?(?:next\s+)?birthdays?`),
		regexp.MustCompile(`birthdays?\s+(?:coming\s+up|this\s+month|this\s+year)`),
	}

	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`when\s+is\s+(.+?)(?:'s)?\s*(?:birthday|bday|party|appointment|event)?\??$`),
		regexp.MustCompile(`(?:check|search)\s+(?:the\s+)?calendar\s+(?:for|and\s+(?:tell|find)\s+(?:me\s+)?(?:when)?)\s+(.+?)\??$`),
		regexp.MustCompile(`(?:find|look\s+for)\s+(.+?)\s+(?:on|in)\s+(?:the\s+)?calendar`),
	}
	searchStripWords = regexp.MustCompile(`\b(the|a|an|is|on|for|my|calendar)\b`)

	weekendPattern     = regexp.MustCompile(`(?:this|next)\s+weekend`)
	specificDayPattern = regexp.MustCompile(`(?:do i have anything|what.?s (?:on|happening)|schedule for|anything on)\s+(?:next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)

	dayNames = map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
	}
)

func formatEventLine(e calendar.Event, layout string) string {
	if e.AllDay {
		return fmt.Sprintf("- %s (All day)", e.Summary)
	}
	return fmt.Sprintf("- %s (%s)", e.Summary, e.Start.Format(layout))
}

func (in *Interpreter) eventsInWindow(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	return in.cal.ListEvents(ctx, calendar.Window{Start: start, End: end})
}

func (in *Interpreter) matchCalendarCommand(ctx context.Context, lower string) (string, bool) {
	now := time.Now()

	if lower == "calendar" || lower == "events" || lower == "my calendar" || lower == "upcoming" ||
		lower == "whats on my calendar" || lower == "what's on my calendar" {
		return in.formatEvents(ctx, now, now.AddDate(0, 0, 3), "Upcoming events", "No upcoming events in the next 3 days.", "Mon 01/02 03:04 PM"), true
	}

	if strings.Contains(lower, "calendar this week") || (strings.Contains(lower, "week") && strings.Contains(lower, "calendar")) {
		return in.formatEvents(ctx, now, now.AddDate(0, 0, 7), "This week's events", "No events scheduled this week.", "Mon 01/02 03:04 PM"), true
	}

	if matchesAny(genericMeetingPatterns, lower) {
		return in.formatEvents(ctx, now, now.AddDate(0, 0, 60), "Upcoming events (next 60 days)", "No upcoming events in the next 60 days.", "Mon 01/02 03:04 PM"), true
	}

	if matchesAny(birthdayPatterns, lower) {
		return in.birthdays(ctx, now), true
	}

	if reply, ok := in.keywordSearch(ctx, lower, now); ok {
		return reply, true
	}

	if weekendPattern.MatchString(lower) && !containsAny(lower, weatherWords) {
		return in.weekend(ctx, lower, now), true
	}

	if m := specificDayPattern.FindStringSubmatch(lower); m != nil && !containsAny(lower, weatherWords) {
		return in.specificDay(ctx, dayNames[m[1]], strings.Contains(lower, "next"), now), true
	}

	isTomorrow := strings.Contains(lower, "tomorrow") && !containsAny(lower, weatherWords)
	if isTomorrow {
		return in.dayWindow(ctx, now.AddDate(0, 0, 1), "Tomorrow's events", "Nothing on the calendar for tomorrow."), true
	}

	isToday := todayExact[lower] || matchesAny(todayPatterns, lower)
	if strings.Contains(lower, "week") || strings.Contains(lower, "tomorrow") {
		isToday = false
	}
	if containsAny(lower, weatherWords) {
		isToday = false
	}
	if isToday {
		return in.dayWindow(ctx, now, "Today's events", "Nothing on the calendar today."), true
	}

	return "", false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (in *Interpreter) formatEvents(ctx context.Context, start, end time.Time, header, empty, layout string) string {
	events, err := in.eventsInWindow(ctx, start, end)
	if err != nil || len(events) == 0 {
		return empty
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, formatEventLine(e, layout))
	}
	return header + ":\n" + strings.Join(lines, "\n")
}

func (in *Interpreter) dayWindow(ctx context.Context, day time.Time, header, empty string) string {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return in.formatEvents(ctx, start, start.AddDate(0, 0, 1), header, empty, "03:04 PM")
}

func (in *Interpreter) birthdays(ctx context.Context, now time.Time) string {
	events, err := in.eventsInWindow(ctx, now, now.AddDate(1, 0, 0))
	if err != nil {
		return "No birthdays found in the calendar for the next year."
	}
	var matched []calendar.Event
	for _, e := range events {
		name := strings.ToLower(e.Summary)
		if strings.Contains(name, "birthday") || strings.Contains(name, "bday") {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return "No birthdays found in the calendar for the next year."
	}
	lines := make([]string, 0, len(matched))
	for _, e := range matched {
		lines = append(lines, fmt.Sprintf("- %s: %s", e.Summary, e.Start.Format("Monday, January 2")))
	}
	return fmt.Sprintf("Found %d upcoming birthday(s):\n%s", len(matched), strings.Join(lines, "\n"))
}

func (in *Interpreter) keywordSearch(ctx context.Context, lower string, now time.Time) (string, bool) {
	var term string
	matched := false
	for _, p := range searchPatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			term = strings.TrimSpace(m[1])
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	term = strings.TrimSpace(searchStripWords.ReplaceAllString(term, ""))
	term = strings.Join(strings.Fields(term), " ")

	daysAhead := 60
	if containsAny(lower, []string{"birthday", "bday", "anniversary", "annual"}) {
		daysAhead = 365
	}

	events, err := in.eventsInWindow(ctx, now, now.AddDate(0, 0, daysAhead))
	if err != nil {
		return fmt.Sprintf("No events found matching '%s' in the next %d days.", term, daysAhead), true
	}

	var matches []calendar.Event
	if term != "" {
		for _, e := range events {
			if strings.Contains(strings.ToLower(e.Summary), term) {
				matches = append(matches, e)
			}
		}
	}
	if len(matches) == 0 {
		words := searchWords(term)
		if len(words) > 0 {
			for _, e := range events {
				if allWordsMatch(words, strings.ToLower(e.Summary)) {
					matches = append(matches, e)
				}
			}
		}
	}
	matches = dedupeByID(matches)

	if len(matches) == 0 {
		return fmt.Sprintf("No events found matching '%s' in the next %d days.", term, daysAhead), true
	}
	lines := make([]string, 0, len(matches))
	for _, e := range matches {
		layout := "Monday, January 2 at 3:04 PM"
		if e.AllDay {
			layout = "Monday, January 2"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", e.Summary, e.Start.Format(layout)))
	}
	return fmt.Sprintf("Found %d event(s) matching '%s':\n%s", len(matches), term, strings.Join(lines, "\n")), true
}

func searchWords(term string) []string {
	var out []string
	for _, w := range strings.Fields(term) {
		w = strings.TrimSuffix(w, "'s")
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// allWordsMatch requires every search word to either substring-match the
// event title or prefix-match (first 4 chars) one of its words.
func allWordsMatch(words []string, eventName string) bool {
	eventWords := strings.Fields(strings.ReplaceAll(eventName, "'s", ""))
	for _, w := range words {
		if strings.Contains(eventName, w) {
			continue
		}
		found := false
		for _, ew := range eventWords {
			if len(w) >= 4 && len(ew) >= 4 && w[:4] == ew[:4] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func dedupeByID(events []calendar.Event) []calendar.Event {
	seen := make(map[string]bool, len(events))
	out := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func (in *Interpreter) weekend(ctx context.Context, lower string, now time.Time) string {
	daysUntilSat := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
	if daysUntilSat == 0 && now.Weekday() != time.Saturday {
		daysUntilSat = 7
	}
	if strings.Contains(lower, "next") && now.Weekday() < time.Saturday {
		daysUntilSat += 7
	}
	saturday := now.AddDate(0, 0, daysUntilSat)
	sunday := saturday.AddDate(0, 0, 1)

	events, err := in.eventsInWindow(ctx, now, now.AddDate(0, 0, daysUntilSat+2))
	if err != nil {
		events = nil
	}
	var weekendEvents []calendar.Event
	for _, e := range events {
		d := e.Start
		if sameDate(d, saturday) || sameDate(d, sunday) {
			weekendEvents = append(weekendEvents, e)
		}
	}
	rangeLabel := fmt.Sprintf("%s-%s", saturday.Format("Jan 2"), sunday.Format("Jan 2"))
	if len(weekendEvents) == 0 {
		return fmt.Sprintf("Nothing on the calendar for the weekend (%s).", rangeLabel)
	}
	lines := make([]string, 0, len(weekendEvents))
	for _, e := range weekendEvents {
		layout := "Monday 3:04 PM"
		if e.AllDay {
			layout = "Monday (all day)"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", e.Summary, e.Start.Format(layout)))
	}
	return fmt.Sprintf("Weekend events (%s):\n%s", rangeLabel, strings.Join(lines, "\n"))
}

func (in *Interpreter) specificDay(ctx context.Context, target time.Weekday, next bool, now time.Time) string {
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	if next {
		daysAhead += 7
	}
	targetDate := now.AddDate(0, 0, daysAhead)
	return in.dayWindow(ctx, targetDate, fmt.Sprintf("Events for %s", targetDate.Format("Monday, January 2")), fmt.Sprintf("Nothing on the calendar for %s.", targetDate.Format("Monday, January 2")))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
