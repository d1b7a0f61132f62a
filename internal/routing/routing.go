// Package routing decides which tools apply to an incoming message. The
// decision comes from the generation backend as JSON embedded in free text;
// it is treated as untrusted and any failure degrades to the empty decision
// so the turn always proceeds.
package routing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/tools"
)

const decisionTimeout = 15 * time.Second

// Low variability maximizes the chance of well-formed JSON.
const decisionTemperature = 0.2

// Decision is the validated coordination result for one turn. Tools holds a
// duplicate-free subset of the fixed registry in the order the backend
// selected them; an empty list routes the turn to the direct-reply path.
type Decision struct {
	Tools     []tools.Name
	Rationale string
	Context   string

	// Degraded marks a decision substituted after a coordination failure.
	Degraded bool
}

// Degraded is the safe default substituted when coordination fails for any
// reason. The turn proceeds with zero tools.
func Degraded() Decision {
	return Decision{Tools: nil, Rationale: "parsing error", Context: "none", Degraded: true}
}

// Coordinator asks the generation backend to select tools for a message.
type Coordinator struct {
	client llm.Client
}

// NewCoordinator creates a Coordinator using the given generation client.
func NewCoordinator(client llm.Client) *Coordinator {
	return &Coordinator{client: client}
}

// rawDecision mirrors the JSON contract the backend is instructed to emit.
// Tools is a pointer so a missing field is distinguishable from an empty list.
type rawDecision struct {
	Tools        *[]string `json:"tools"`
	Reasoning    string    `json:"reasoning"`
	ContextAware string    `json:"context_aware"`
}

// Decide selects the tools for one message. On any failure (backend error,
// timeout, absent or malformed JSON, missing required field) it returns the
// degraded decision; coordination never fails a turn.
func (c *Coordinator) Decide(ctx context.Context, p profile.Profile, message string, recent []llm.Message) Decision {
	ctx, cancel := context.WithTimeout(ctx, decisionTimeout)
	defer cancel()

	messages := BuildPrompt(p, message, recent)

	raw, err := c.client.Complete(ctx, messages, decisionTemperature)
	if err != nil {
		slog.Warn("coordination call failed", "error", err)
		return Degraded()
	}

	span, ok := extractJSON(raw)
	if !ok {
		slog.Warn("coordination response contained no JSON object", "response", truncate(raw, 200))
		return Degraded()
	}

	var parsed rawDecision
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		slog.Warn("failed to unmarshal coordination decision", "error", err, "span", truncate(span, 200))
		return Degraded()
	}
	if parsed.Tools == nil {
		slog.Warn("coordination decision missing tools field", "span", truncate(span, 200))
		return Degraded()
	}

	return Decision{
		Tools:     validateTools(*parsed.Tools),
		Rationale: parsed.Reasoning,
		Context:   parsed.ContextAware,
	}
}

// validateTools drops identifiers outside the fixed registry and collapses
// duplicates, preserving selection order. Unknown tools are never executed.
func validateTools(names []string) []tools.Name {
	var out []tools.Name
	seen := make(map[tools.Name]bool)
	for _, s := range names {
		name, ok := tools.Parse(s)
		if !ok {
			slog.Warn("dropping unknown tool from coordination decision", "tool", s)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// extractJSON returns the first balanced top-level {...} span in the text.
// Braces inside JSON strings are ignored; backslash escapes are honored.
func extractJSON(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
