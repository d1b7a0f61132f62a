package agent

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"coachd/internal/mining"
	"coachd/internal/profile"
	"coachd/internal/tools"
)

// Bound concurrency so a wide selection cannot flood the backend.
const dispatchLimit = 4

// dispatch runs the selected tools concurrently and collects one outcome per
// tool, in selection order. A failing tool produces an Outcome with Err set;
// it never aborts its siblings or the turn.
func dispatch(ctx context.Context, registry *tools.Registry, selected []tools.Name, p profile.Profile, message string, signals mining.Signals) []tools.Outcome {
	outcomes := make([]tools.Outcome, len(selected))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchLimit)

	for i, name := range selected {
		i, name := i, name
		g.Go(func() error {
			handler, ok := registry.Lookup(name)
			if !ok {
				// Validation upstream should make this unreachable.
				outcomes[i] = tools.Outcome{Tool: name, Err: fmt.Errorf("no handler registered for %q", name)}
				return nil
			}
			text, err := handler.Run(gCtx, p, message, signals)
			if err != nil {
				slog.Warn("tool failed", "tool", name, "error", err)
				outcomes[i] = tools.Outcome{Tool: name, Err: err}
				return nil
			}
			outcomes[i] = tools.Outcome{Tool: name, Text: text}
			return nil
		})
	}

	// Workers only ever return nil; failures travel inside outcomes.
	_ = g.Wait()
	return outcomes
}
