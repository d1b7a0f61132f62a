// Package tools holds the fixed set of coach capabilities the coordinator
// can select. The set is closed and known at build time; adding a tool means
// adding one handler and one registry entry.
package tools

import (
	"context"

	"coachd/internal/llm"
	"coachd/internal/mining"
	"coachd/internal/profile"
)

// Name identifies one registered tool. Only the constants below are valid;
// anything else fails Parse and is never executed.
type Name string

const (
	CreateWorkoutPlan Name = "create_workout_plan"
	CreateMealPlan    Name = "create_meal_plan"
	AnalyzeProgress   Name = "analyze_progress"
	GiveMotivation    Name = "give_motivation"
	CalculateCalories Name = "calculate_calories"
	InjuryPrevention  Name = "injury_prevention"
)

// All lists every tool in registry order, used for prompt listings and
// iteration. Order is stable.
var All = []Name{
	CreateWorkoutPlan,
	CreateMealPlan,
	AnalyzeProgress,
	GiveMotivation,
	CalculateCalories,
	InjuryPrevention,
}

var descriptions = map[Name]string{
	CreateWorkoutPlan: "Creates personalized workout routines based on goals",
	CreateMealPlan:    "Creates personalized meal/nutrition plans",
	AnalyzeProgress:   "Analyzes fitness journey, identifies patterns and improvements",
	GiveMotivation:    "Provides encouragement and motivational support",
	CalculateCalories: "Calculates daily calorie needs and macros based on goals",
	InjuryPrevention:  "Provides injury prevention advice and safe exercise guidance",
}

// Parse validates a raw tool identifier against the closed set.
func Parse(s string) (Name, bool) {
	n := Name(s)
	_, ok := descriptions[n]
	return n, ok
}

// Description returns the one-line purpose shown to the coordinator.
func (n Name) Description() string {
	return descriptions[n]
}

// Handler produces domain-specific generated text for one capability.
// Handlers never mutate the profile or signals they receive; they fail only
// when the generation backend fails.
type Handler interface {
	Name() Name
	Run(ctx context.Context, p profile.Profile, message string, signals mining.Signals) (string, error)
}

// Outcome is the result of running one selected tool: generated text or the
// error that prevented it. One Outcome exists per selection.
type Outcome struct {
	Tool Name
	Text string
	Err  error
}

// Registry maps the closed tool set to handler implementations. Built once
// at construction; lookups of unknown names are an explicit, testable miss.
type Registry struct {
	handlers map[Name]Handler
}

// NewRegistry wires all six handlers to the given generation client.
func NewRegistry(client llm.Client) *Registry {
	handlers := []Handler{
		&workoutPlanner{client: client},
		&mealPlanner{client: client},
		&progressAnalyst{client: client},
		&motivator{client: client},
		&calorieCalculator{client: client},
		&injuryAdvisor{client: client},
	}
	m := make(map[Name]Handler, len(handlers))
	for _, h := range handlers {
		m[h.Name()] = h
	}
	return &Registry{handlers: m}
}

// Lookup returns the handler for the given name, or false for names outside
// the registry.
func (r *Registry) Lookup(n Name) (Handler, bool) {
	h, ok := r.handlers[n]
	return h, ok
}
