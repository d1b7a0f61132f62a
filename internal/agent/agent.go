// Package agent sequences one coaching turn: mine signals from history, ask
// the coordinator which tools apply, run them concurrently, and synthesize a
// single reply. Everything up to synthesis tolerates failure; only a failed
// synthesis fails the turn.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coachd/internal/composer"
	"coachd/internal/llm"
	"coachd/internal/mining"
	"coachd/internal/profile"
	"coachd/internal/routing"
	"coachd/internal/tools"
)

// TurnMetadata describes how a turn was handled, for logging and API clients.
type TurnMetadata struct {
	Tools      []tools.Name `json:"tools"`
	Rationale  string       `json:"rationale,omitempty"`
	Degraded   bool         `json:"degraded,omitempty"`
	Failed     []tools.Name `json:"failed,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

// Agent is the orchestrator for coaching turns.
type Agent struct {
	coordinator *routing.Coordinator
	registry    *tools.Registry
	synthesizer *composer.Synthesizer
}

// New wires an Agent around a single generation client.
func New(client llm.Client) *Agent {
	return &Agent{
		coordinator: routing.NewCoordinator(client),
		registry:    tools.NewRegistry(client),
		synthesizer: composer.New(client),
	}
}

// HandleMessage runs one full turn. History is the prior conversation, oldest
// first, not including the incoming message. An empty tool selection skips
// dispatch entirely and answers conversationally.
func (a *Agent) HandleMessage(ctx context.Context, p profile.Profile, history []llm.Message, message string) (string, TurnMetadata, error) {
	start := time.Now()

	signals := mining.Mine(history)
	decision := a.coordinator.Decide(ctx, p, message, history)

	slog.Info("turn coordinated",
		"user", p.UserID,
		"tools", decision.Tools,
		"degraded", decision.Degraded,
		"sentiment", signals.Sentiment,
	)

	var outcomes []tools.Outcome
	if len(decision.Tools) > 0 {
		outcomes = dispatch(ctx, a.registry, decision.Tools, p, message, signals)
	}

	reply, err := a.synthesizer.Compose(ctx, p, message, history, outcomes)
	if err != nil {
		return "", TurnMetadata{}, fmt.Errorf("handling message: %w", err)
	}

	meta := TurnMetadata{
		Tools:      decision.Tools,
		Rationale:  decision.Rationale,
		Degraded:   decision.Degraded,
		DurationMS: time.Since(start).Milliseconds(),
	}
	for _, o := range outcomes {
		if o.Err != nil {
			meta.Failed = append(meta.Failed, o.Tool)
		}
	}
	return reply, meta, nil
}
