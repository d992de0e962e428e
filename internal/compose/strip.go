package compose

import (
	"regexp"
	"strings"
)

var thinkTagPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)

// StripThinking removes balanced <think>...</think> reasoning blocks.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkTagPattern.ReplaceAllString(text, ""))
}

// workingNarrationPattern matches paragraph-leading tool-narration and
// past-tense completion echoes that read badly as speech (spec.md §4.5).
var workingNarrationPattern = regexp.MustCompile(`(?i)^(Now let me|Let me|I'll |I'm going to|I will |I need to|` +
	`First,? (?:let me|I'll)|Next,? (?:let me|I'll)|` +
	`(?:Now )?(?:creating|checking|searching|looking|reading|writing|uploading|downloading|updating|fetching|generating)|` +
	`(?:I've |I have )(?:created|updated|written|uploaded|added|set up))`)

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+`)
	markdownDecoPattern = regexp.MustCompile("[*_~`#]+")
	whitespacePattern   = regexp.MustCompile(`\s+`)
	emojiPattern        = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}` +
		`\x{1F1E0}-\x{1F1FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{FE00}-\x{FE0F}` +
		`\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{200D}\x{20E3}\x{E0020}-\x{E007F}]+`)
)

// SpeechVariant derives the text actually worth speaking aloud: working
// narration paragraphs are dropped, Markdown/URLs/emoji are stripped, and
// if every paragraph was narration the last one is kept so TTS never goes
// silent on a real answer (spec.md §4.5 step 2).
func SpeechVariant(text string) string {
	stripped := StripThinking(text)
	if stripped == "" {
		return ""
	}

	paragraphs := strings.Split(stripped, "\n\n")
	var spoken []string
	for _, p := range paragraphs {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if !workingNarrationPattern.MatchString(trimmed) {
			spoken = append(spoken, trimmed)
		}
	}
	if len(spoken) == 0 && len(paragraphs) > 0 {
		spoken = []string{strings.TrimSpace(paragraphs[len(paragraphs)-1])}
	}

	result := strings.Join(spoken, "\n\n")
	result = markdownLinkPattern.ReplaceAllString(result, "$1")
	result = bareURLPattern.ReplaceAllString(result, "")
	result = markdownDecoPattern.ReplaceAllString(result, "")
	result = emojiPattern.ReplaceAllString(result, "")
	result = whitespacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// FormatAttributed prefixes text with a "[Name]" attribution line when
// companionName is known (spec.md §4.5 step 5).
func FormatAttributed(companionName, text string) string {
	if companionName == "" {
		return text
	}
	return "[" + companionName + "]\n\n" + text
}
