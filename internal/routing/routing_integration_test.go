//go:build integration

package routing

import (
	"context"
	"testing"
	"time"

	"coachd/internal/llm"
	"coachd/internal/profile"
)

func TestDecide_RealOllama(t *testing.T) {
	client := llm.NewOllama("http://localhost:11434", "llama3.1")
	if !client.IsRunning(context.Background()) {
		t.Skip("Ollama is not running, skipping integration test")
	}

	c := NewCoordinator(client)
	p := profile.Profile{UserID: "it", Name: "Alex", Goal: profile.GoalGainMuscle}

	start := time.Now()
	d := c.Decide(context.Background(), p, "Put together a workout plan for this week", nil)
	elapsed := time.Since(start)

	if d.Degraded {
		t.Errorf("decision degraded: rationale = %q", d.Rationale)
	}
	if len(d.Tools) == 0 {
		t.Error("expected at least one tool for a planning request")
	}

	t.Logf("decision: %+v (took %v)", d, elapsed)
}
