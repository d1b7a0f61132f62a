package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const excerptMaxChars = 100

// Excerpt renders the last n messages as "role: content" lines for prompt
// embedding, truncating long messages so the excerpt stays compact.
func Excerpt(history []Message, n int) string {
	if len(history) == 0 {
		return "No previous conversation."
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		content := m.Content
		if len(content) > excerptMaxChars {
			// Back up to a rune boundary so truncation never splits a
			// multi-byte character.
			cut := excerptMaxChars
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, content))
	}
	return strings.Join(lines, "\n")
}
