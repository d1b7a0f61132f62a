package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt_Empty(t *testing.T) {
	if got := Excerpt(nil, 5); got != "No previous conversation." {
		t.Errorf("Excerpt(nil) = %q", got)
	}
}

func TestExcerpt_LastN(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "second"},
		{Role: RoleUser, Content: "third"},
		{Role: RoleAssistant, Content: "fourth"},
	}

	got := Excerpt(history, 3)
	want := "assistant: second\nuser: third\nassistant: fourth"
	if got != want {
		t.Errorf("Excerpt() = %q, want %q", got, want)
	}
}

func TestExcerpt_TruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", 500)

	got := Excerpt([]Message{{Role: RoleUser, Content: long}}, 3)
	if len(got) > len("user: ")+excerptMaxChars {
		t.Errorf("excerpt length = %d, want content truncated to %d chars", len(got), excerptMaxChars)
	}
}

func TestExcerpt_TruncatesOnRuneBoundary(t *testing.T) {
	// 99 ASCII bytes followed by a 3-byte rune straddling the cutoff.
	long := strings.Repeat("x", 99) + strings.Repeat("日", 20)

	got := Excerpt([]Message{{Role: RoleUser, Content: long}}, 3)
	if !utf8.ValidString(got) {
		t.Errorf("excerpt contains invalid UTF-8: %q", got)
	}
	if len(got) > len("user: ")+excerptMaxChars {
		t.Errorf("excerpt length = %d, want at most %d content bytes", len(got), excerptMaxChars)
	}
	if !strings.HasSuffix(got, "x") {
		t.Errorf("expected the partial rune dropped, got %q", got)
	}
}
