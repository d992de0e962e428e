// Package intent extracts an optional companion name from the start of
// an inbound message and tracks the sticky "active companion" (spec.md
// §4.3, §9). The variant table is data loaded from an embedded YAML
// file, the way beeper-ai-bridge embeds its example-config.yaml.
package intent

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var variantsYAML []byte

type variantTable struct {
	Variants    map[string]string `yaml:"variants"`
	FillerWords []string          `yaml:"filler_words"`
}

var (
	tableOnce sync.Once
	table     variantTable
	fillerSet map[string]struct{}
)

func loadTable() {
	tableOnce.Do(func() {
		if err := yaml.Unmarshal(variantsYAML, &table); err != nil {
			table = variantTable{}
		}
		fillerSet = make(map[string]struct{}, len(table.FillerWords))
		for _, w := range table.FillerWords {
			fillerSet[strings.ToLower(w)] = struct{}{}
		}
	})
}

// matchName looks a candidate token/prefix up in the variant table,
// case-insensitively, after stripping trailing punctuation.
func matchName(candidate string) (string, bool) {
	loadTable()
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(candidate), ",:.!?"))
	canonical, ok := table.Variants[normalized]
	return canonical, ok
}

func isFiller(word string) bool {
	loadTable()
	_, ok := fillerSet[strings.ToLower(strings.Trim(word, ",:.!?"))]
	return ok
}

// Extract pulls an optional companion name from the start of message,
// following spec.md §4.3's four-step algorithm, and returns the
// canonical name (if any) plus the cleaned remainder.
func Extract(message string) (name string, remainder string) {
	message = strings.TrimSpace(message)

	// Step 1: "Name: message" or "Name, message" — try ":" first and then
	// ",", whatever their positions in the message, as original_source's
	// MessageParser.extract_choom_name tries ":" then "," in order.
	for _, sep := range []string{":", ","} {
		if idx := strings.Index(message, sep); idx >= 0 {
			candidate := message[:idx]
			if canonical, ok := matchName(candidate); ok {
				return canonical, strings.TrimSpace(message[idx+1:])
			}
		}
	}

	// Step 2: "@Name message"
	if strings.HasPrefix(message, "@") {
		fields := strings.Fields(message[1:])
		if len(fields) > 0 {
			if canonical, ok := matchName(fields[0]); ok {
				rest := strings.Join(fields[1:], " ")
				return canonical, rest
			}
		}
	}

	// Step 3: scan up to the first five tokens, skipping filler words.
	words := strings.Fields(message)
	limit := len(words)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		clean := strings.Trim(words[i], ",:.!?")
		if canonical, ok := matchName(clean); ok {
			return canonical, strings.Join(words[i+1:], " ")
		}
		if !isFiller(clean) {
			break
		}
	}

	// Step 4: no extraction.
	return "", message
}
