package aioracle

import (
	"fmt"
	"regexp"
	"strings"
)

// injectionSignal is one recognizable prompt-injection pattern, tagged with
// the short name that appears in a redacted envelope's signal list (§4.2,
// scenario 6 in §8 names the exact tags: ignore_instructions,
// reveal_system_prompt, developer_message).
type injectionSignal struct {
	tag     string
	pattern *regexp.Regexp
}

var injectionSignals = []injectionSignal{
	{tag: "ignore_instructions", pattern: regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`)},
	{tag: "reveal_system_prompt", pattern: regexp.MustCompile(`(?i)(reveal|print|show|repeat)\s+(your\s+)?(system|initial)\s+prompt`)},
	{tag: "developer_message", pattern: regexp.MustCompile(`(?i)(assume|act as|you are now)\s+(the\s+)?(developer|admin|system)\s*(role|mode)?`)},
	{tag: "jailbreak_marker", pattern: regexp.MustCompile(`(?i)\b(DAN|do anything now|jailbreak)\b`)},
	{tag: "exfiltration", pattern: regexp.MustCompile(`(?i)(exfiltrate|send|leak|post)\s+(this|the)\s+(data|conversation|prompt)\s+to`)},
}

// defaultMaxMessageChars caps an individual message's length before the
// [TRUNCATED] sentinel is appended (§4.2, §6's AI_MAX_MESSAGE_CHARS).
const defaultMaxMessageChars = 25000

// Harden re-labels every non-system message as untrusted input, scans it
// for injection signals, redacts messages with two or more distinct
// signals, and truncates anything over maxChars. maxChars<=0 uses the
// §6 default of 25000.
func Harden(messages []Message, maxChars int) []Message {
	if maxChars <= 0 {
		maxChars = defaultMaxMessageChars
	}

	hardened := make([]Message, len(messages))
	for i, m := range messages {
		if m.Role == roleSystem {
			hardened[i] = m
			continue
		}

		signals := detectSignals(m.Content)
		content := m.Content
		if len(signals) >= 2 {
			content = redactedEnvelope(len(m.Content), signals)
		}
		content = truncate(content, maxChars)

		hardened[i] = Message{Role: m.Role, Content: content}
	}
	return hardened
}

func detectSignals(content string) []string {
	var found []string
	for _, sig := range injectionSignals {
		if sig.pattern.MatchString(content) {
			found = append(found, sig.tag)
		}
	}
	return found
}

func redactedEnvelope(originalLen int, signals []string) string {
	return fmt.Sprintf(`{"redacted":true,"originalLength":%d,"signals":[%s]}`, originalLen, quoteJoin(signals))
}

func quoteJoin(signals []string) string {
	quoted := make([]string, len(signals))
	for i, s := range signals {
		quoted[i] = `"` + s + `"`
	}
	return strings.Join(quoted, ",")
}

const truncationSentinel = "[TRUNCATED]"

func truncate(content string, maxChars int) string {
	if len(content) <= maxChars {
		return content
	}
	cut := maxChars - len(truncationSentinel)
	if cut < 0 {
		cut = 0
	}
	return content[:cut] + truncationSentinel
}
