package composer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/tools"
)

type mockClient struct {
	reply        string
	err          error
	lastMessages []llm.Message
	lastTemp     float64
}

func (m *mockClient) Complete(_ context.Context, messages []llm.Message, temperature float64) (string, error) {
	m.lastMessages = messages
	m.lastTemp = temperature
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestComposeFusesOutcomesInOrder(t *testing.T) {
	mock := &mockClient{reply: "here is your plan"}
	s := New(mock)

	outcomes := []tools.Outcome{
		{Tool: tools.CreateWorkoutPlan, Text: "3-day split"},
		{Tool: tools.CalculateCalories, Text: "2100 kcal/day"},
	}
	p := profile.Profile{UserID: "u1", Name: "Sam", Goal: profile.GoalGainMuscle}

	reply, err := s.Compose(context.Background(), p, "plan my week", nil, outcomes)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if reply != "here is your plan" {
		t.Errorf("reply = %q", reply)
	}

	if len(mock.lastMessages) != 1 {
		t.Fatalf("expected single fusion message, got %d", len(mock.lastMessages))
	}
	prompt := mock.lastMessages[0].Content
	for _, want := range []string{
		"Sam",
		"gain_muscle",
		`They asked: "plan my week"`,
		"=== create_workout_plan ===",
		"3-day split",
		"=== calculate_calories ===",
		"2100 kcal/day",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("fusion prompt missing %q", want)
		}
	}

	workoutAt := strings.Index(prompt, "=== create_workout_plan ===")
	caloriesAt := strings.Index(prompt, "=== calculate_calories ===")
	if workoutAt > caloriesAt {
		t.Error("tool outputs not rendered in selection order")
	}
	if mock.lastTemp != synthesisTemperature {
		t.Errorf("temperature = %v, want %v", mock.lastTemp, synthesisTemperature)
	}
}

func TestComposeEmbedsToolErrors(t *testing.T) {
	mock := &mockClient{reply: "partial answer"}
	s := New(mock)

	outcomes := []tools.Outcome{
		{Tool: tools.CreateWorkoutPlan, Text: "3-day split"},
		{Tool: tools.CreateMealPlan, Err: errors.New("backend timed out")},
	}

	if _, err := s.Compose(context.Background(), profile.Profile{}, "help", nil, outcomes); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	prompt := mock.lastMessages[0].Content
	if !strings.Contains(prompt, "Error: backend timed out") {
		t.Error("failed tool outcome not embedded verbatim")
	}
	if !strings.Contains(prompt, "3-day split") {
		t.Error("successful outcome missing alongside failed one")
	}
}

func TestComposeDirectPathWhenNoOutcomes(t *testing.T) {
	mock := &mockClient{reply: "hey there"}
	s := New(mock)

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "first"},
		{Role: llm.RoleAssistant, Content: "second"},
		{Role: llm.RoleUser, Content: "third"},
	}
	p := profile.Profile{UserID: "u1", Name: "Ana", Age: 30, WeightLb: 150, HeightFt: 5.5}

	reply, err := s.Compose(context.Background(), p, "how are you", history, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if reply != "hey there" {
		t.Errorf("reply = %q", reply)
	}

	if len(mock.lastMessages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(mock.lastMessages))
	}
	system := mock.lastMessages[0]
	if system.Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	for _, want := range []string{"Ana", "30", "150 lb", "5.5 ft", "user: third"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("direct instruction missing %q", want)
		}
	}
	if mock.lastMessages[1].Content != "how are you" {
		t.Errorf("user message = %q", mock.lastMessages[1].Content)
	}
}

func TestComposeDirectPathEmptyHistory(t *testing.T) {
	mock := &mockClient{reply: "hello"}
	s := New(mock)

	if _, err := s.Compose(context.Background(), profile.Profile{}, "hi", nil, nil); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(mock.lastMessages[0].Content, "No previous conversation.") {
		t.Error("empty history placeholder missing")
	}
}

func TestComposeGenerationFailureIsFatal(t *testing.T) {
	mock := &mockClient{err: llm.ErrUnavailable}
	s := New(mock)

	if _, err := s.Compose(context.Background(), profile.Profile{}, "hi", nil, nil); !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("direct path error = %v, want ErrUnavailable", err)
	}

	outcomes := []tools.Outcome{{Tool: tools.GiveMotivation, Text: "you got this"}}
	if _, err := s.Compose(context.Background(), profile.Profile{}, "hi", nil, outcomes); !errors.Is(err, llm.ErrUnavailable) {
		t.Errorf("fusion path error = %v, want ErrUnavailable", err)
	}
}
