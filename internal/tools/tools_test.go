package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"coachd/internal/llm"
	"coachd/internal/mining"
	"coachd/internal/profile"
)

// mockClient implements llm.Client, recording the last request.
type mockClient struct {
	response string
	err      error

	lastMessages    []llm.Message
	lastTemperature float64
	calls           int
}

func (m *mockClient) Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error) {
	m.calls++
	m.lastMessages = messages
	m.lastTemperature = temperature
	return m.response, m.err
}

func (m *mockClient) systemPrompt(t *testing.T) string {
	t.Helper()
	if len(m.lastMessages) == 0 || m.lastMessages[0].Role != llm.RoleSystem {
		t.Fatalf("first message is not a system instruction: %+v", m.lastMessages)
	}
	return m.lastMessages[0].Content
}

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		want  Name
		valid bool
	}{
		{"create_workout_plan", CreateWorkoutPlan, true},
		{"calculate_calories", CalculateCalories, true},
		{"injury_prevention", InjuryPrevention, true},
		{"delete_database", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := Parse(c.in)
		if ok != c.valid {
			t.Errorf("Parse(%q) valid = %v, want %v", c.in, ok, c.valid)
		}
		if c.valid && got != c.want {
			t.Errorf("Parse(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRegistry_AllToolsRegistered(t *testing.T) {
	reg := NewRegistry(&mockClient{})

	for _, name := range All {
		h, ok := reg.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missing", name)
			continue
		}
		if h.Name() != name {
			t.Errorf("handler for %q reports name %q", name, h.Name())
		}
	}
}

func TestRegistry_UnknownLookupMisses(t *testing.T) {
	reg := NewRegistry(&mockClient{})

	if _, ok := reg.Lookup(Name("make_coffee")); ok {
		t.Error("Lookup(make_coffee) = true, want false")
	}
}

func TestDescriptions_Present(t *testing.T) {
	for _, name := range All {
		if name.Description() == "" {
			t.Errorf("tool %q has no description", name)
		}
	}
}

func TestWorkoutPlanner_EmbedsSignals(t *testing.T) {
	mock := &mockClient{response: "plan"}
	h := &workoutPlanner{client: mock}

	p := profile.Profile{Goal: profile.GoalLoseWeight, ActivityLevel: profile.ActivityModerate}
	signals := mining.Signals{
		Likes:    []string{"weightlifting"},
		Dislikes: []string{"running"},
	}

	if _, err := h.Run(context.Background(), p, "plan my week", signals); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	if !strings.Contains(sys, "User LIKES: weightlifting") {
		t.Error("instruction does not embed liked activities")
	}
	if !strings.Contains(sys, "User DISLIKES: running") {
		t.Error("instruction does not embed disliked activities")
	}
	if !strings.Contains(sys, "NEVER include exercises the user dislikes") {
		t.Error("instruction does not carry the dislike rule")
	}
	if !strings.Contains(sys, "lose_weight") {
		t.Error("instruction does not embed the goal")
	}
	if mock.lastTemperature != defaultTemperature {
		t.Errorf("temperature = %v, want %v", mock.lastTemperature, defaultTemperature)
	}
}

func TestWorkoutPlanner_MissingFieldsRenderPlaceholders(t *testing.T) {
	mock := &mockClient{response: "plan"}
	h := &workoutPlanner{client: mock}

	if _, err := h.Run(context.Background(), profile.Profile{}, "plan", mining.Signals{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	if !strings.Contains(sys, "Age: unknown") {
		t.Error("missing age not rendered as unknown")
	}
	if !strings.Contains(sys, "Goal: general fitness") {
		t.Error("missing goal not rendered with fallback")
	}
	if !strings.Contains(sys, "User LIKES: none detected") {
		t.Error("empty like set not rendered as none detected")
	}
}

func TestMealPlanner_EmbedsRestrictions(t *testing.T) {
	mock := &mockClient{response: "meals"}
	h := &mealPlanner{client: mock}

	p := profile.Profile{DietaryRestrictions: "vegetarian, no peanuts"}
	if _, err := h.Run(context.Background(), p, "what should I eat", mining.Signals{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	if !strings.Contains(sys, "vegetarian, no peanuts") {
		t.Error("instruction does not embed dietary restrictions")
	}
	if !strings.Contains(sys, "Respect ALL dietary restrictions") {
		t.Error("instruction does not carry the restriction rule")
	}
}

func TestProgressAnalyst_EmbedsStats(t *testing.T) {
	mock := &mockClient{response: "analysis"}
	h := &progressAnalyst{client: mock}

	signals := mining.Signals{
		WorkoutMentions: 4,
		Observations:    []string{"User noted improvement"},
	}
	if _, err := h.Run(context.Background(), profile.Profile{}, "how am I doing", signals); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	if !strings.Contains(sys, "4 workout mentions") {
		t.Error("instruction does not embed the workout mention count")
	}
	if !strings.Contains(sys, "User noted improvement") {
		t.Error("instruction does not embed observations")
	}
}

func TestMotivator_SentimentContext(t *testing.T) {
	cases := []struct {
		sentiment mining.Sentiment
		want      string
	}{
		{mining.SentimentStruggling, "struggling, needs encouragement"},
		{mining.SentimentPositive, "positive, reinforce success"},
		{mining.SentimentNeutral, "EMOTIONAL CONTEXT: neutral"},
	}

	for _, c := range cases {
		mock := &mockClient{response: "you got this"}
		h := &motivator{client: mock}

		if _, err := h.Run(context.Background(), profile.Profile{}, "help", mining.Signals{Sentiment: c.sentiment}); err != nil {
			t.Fatalf("Run(%s): %v", c.sentiment, err)
		}
		if sys := mock.systemPrompt(t); !strings.Contains(sys, c.want) {
			t.Errorf("sentiment %s: instruction missing %q", c.sentiment, c.want)
		}
		if mock.lastTemperature != motivationTemperature {
			t.Errorf("temperature = %v, want %v", mock.lastTemperature, motivationTemperature)
		}
	}
}

func TestCalorieCalculator_SpellsOutFormula(t *testing.T) {
	mock := &mockClient{response: "numbers"}
	h := &calorieCalculator{client: mock}

	p := profile.Profile{Age: 30, WeightLb: 180, HeightFt: 5.9}
	if _, err := h.Run(context.Background(), p, "how many calories", mining.Signals{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	for _, want := range []string{
		"Mifflin-St Jeor",
		"(10 * weight_kg) + (6.25 * height_cm) - (5 * age) + 5",
		"weight_kg = weight_lb / 2.205",
		"Sedentary: 1.2",
		"180 lb",
	} {
		if !strings.Contains(sys, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	if mock.lastTemperature != calorieTemperature {
		t.Errorf("temperature = %v, want %v", mock.lastTemperature, calorieTemperature)
	}
}

func TestInjuryAdvisor_EmbedsContext(t *testing.T) {
	mock := &mockClient{response: "be careful"}
	h := &injuryAdvisor{client: mock}

	signals := mining.Signals{
		Exercises:      []string{"squat", "deadlift"},
		PainIndicators: []string{"mentioned 'sore'"},
	}
	if _, err := h.Run(context.Background(), profile.Profile{}, "my back aches", signals); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sys := mock.systemPrompt(t)
	if !strings.Contains(sys, "squat, deadlift") {
		t.Error("instruction does not embed mentioned exercises")
	}
	if !strings.Contains(sys, "mentioned 'sore'") {
		t.Error("instruction does not embed pain indicators")
	}
	if mock.lastTemperature != injuryTemperature {
		t.Errorf("temperature = %v, want %v", mock.lastTemperature, injuryTemperature)
	}
}

func TestHandlers_PropagateBackendFailure(t *testing.T) {
	mock := &mockClient{err: fmt.Errorf("%w: 503", llm.ErrUnavailable)}
	reg := NewRegistry(mock)

	for _, name := range All {
		h, _ := reg.Lookup(name)
		_, err := h.Run(context.Background(), profile.Profile{}, "hi", mining.Signals{})
		if err == nil {
			t.Errorf("%s: err = nil, want backend failure", name)
		}
	}
}

func TestHandlers_UserMessagePassedThrough(t *testing.T) {
	mock := &mockClient{response: "ok"}
	h := &workoutPlanner{client: mock}

	if _, err := h.Run(context.Background(), profile.Profile{}, "three days a week please", mining.Signals{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	last := mock.lastMessages[len(mock.lastMessages)-1]
	if last.Role != llm.RoleUser || last.Content != "three days a week please" {
		t.Errorf("last message = %+v, want the literal user message", last)
	}
}
