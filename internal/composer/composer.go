// Package composer fuses tool outcomes into one coherent reply, or holds a
// plain conversation when the coordinator selected no tools. This is the one
// step where a generation failure is fatal for the turn: without it there is
// no reply to return.
package composer

import (
	"context"
	"fmt"
	"strings"

	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/tools"
)

const (
	// How much recent conversation the direct-reply path sees.
	directHistoryWindow = 5

	synthesisTemperature = 0.7
)

// Synthesizer produces the final reply for one turn.
type Synthesizer struct {
	client llm.Client
}

// New creates a Synthesizer using the given generation client.
func New(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Compose merges the tool outcomes into a single natural-language reply.
// With no outcomes it falls back to a direct conversational reply built from
// profile and recent history. Outcomes are rendered in the order given,
// which is the coordinator's selection order; error outcomes are embedded
// verbatim so the reply can acknowledge a degraded tool gracefully.
func (s *Synthesizer) Compose(ctx context.Context, p profile.Profile, message string, history []llm.Message, outcomes []tools.Outcome) (string, error) {
	if len(outcomes) == 0 {
		return s.directReply(ctx, p, message, history)
	}

	var outputs strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			outputs.WriteString("\n\n")
		}
		fmt.Fprintf(&outputs, "=== %s ===\n", o.Tool)
		if o.Err != nil {
			fmt.Fprintf(&outputs, "Error: %v", o.Err)
		} else {
			outputs.WriteString(o.Text)
		}
	}

	prompt := fmt.Sprintf(`You are a friendly fitness coach. Combine the info below into a natural response.

USER: %s
THEIR GOAL: %s

They asked: "%s"

Tool outputs:
%s

Write a natural response that:
1. Directly answers their question
2. Uses the tool outputs but sounds human
3. Feels personal, not robotic
4. Ends with a question or next step

Be warm and encouraging!`,
		p.NameLabel(), p.GoalLabelOr("general fitness"), message, outputs.String(),
	)

	reply, err := s.client.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, synthesisTemperature)
	if err != nil {
		return "", fmt.Errorf("synthesizing reply: %w", err)
	}
	return reply, nil
}

// directReply handles purely conversational turns. The instruction carries
// the full profile so the model can answer simple numeric questions (BMI,
// calories) without any tool.
func (s *Synthesizer) directReply(ctx context.Context, p profile.Profile, message string, history []llm.Message) (string, error) {
	instruction := fmt.Sprintf(`You are a friendly fitness coach having a conversation.

USER PROFILE:
- Name: %s
- Age: %s
- Weight: %s
- Height: %s
- Goal: %s
- Activity Level: %s
- Preferences: %s
- Dietary Restrictions: %s

RECENT CONVERSATION:
%s

Chat naturally! Remember what you've talked about before. If they ask for BMI or calories and you have their data, do the math for them.`,
		p.NameLabel(), p.AgeLabel(), p.WeightLabel(), p.HeightLabel(),
		p.GoalLabelOr("not set yet"), p.ActivityLabelOr("not set yet"),
		p.PreferencesLabel(), p.DietLabel(),
		llm.Excerpt(history, directHistoryWindow),
	)

	reply, err := s.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instruction},
		{Role: llm.RoleUser, Content: message},
	}, synthesisTemperature)
	if err != nil {
		return "", fmt.Errorf("composing direct reply: %w", err)
	}
	return reply, nil
}
