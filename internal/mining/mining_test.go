package mining

import (
	"reflect"
	"testing"

	"coachd/internal/llm"
)

func user(texts ...string) []llm.Message {
	var msgs []llm.Message
	for _, t := range texts {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t})
	}
	return msgs
}

func TestMine_EmptyHistory(t *testing.T) {
	s := Mine(nil)

	if len(s.Likes) != 0 || len(s.Dislikes) != 0 {
		t.Errorf("likes/dislikes = %v/%v, want empty", s.Likes, s.Dislikes)
	}
	if s.Sentiment != SentimentNeutral {
		t.Errorf("Sentiment = %q, want neutral", s.Sentiment)
	}
	if len(s.Exercises) != 0 || len(s.PainIndicators) != 0 {
		t.Errorf("exercises/pain = %v/%v, want empty", s.Exercises, s.PainIndicators)
	}
	if s.WorkoutMentions != 0 {
		t.Errorf("WorkoutMentions = %d, want 0", s.WorkoutMentions)
	}
	if len(s.Observations) != 0 {
		t.Errorf("Observations = %v, want empty", s.Observations)
	}
}

func TestMine_NoMatchesStillValid(t *testing.T) {
	s := Mine(user("hello there", "what's the weather like in Oslo"))

	if s.LikesLabel() != "none detected" {
		t.Errorf("LikesLabel() = %q, want none detected", s.LikesLabel())
	}
	if s.DislikesLabel() != "none detected" {
		t.Errorf("DislikesLabel() = %q, want none detected", s.DislikesLabel())
	}
	if s.ExercisesLabel() != "none mentioned yet" {
		t.Errorf("ExercisesLabel() = %q, want none mentioned yet", s.ExercisesLabel())
	}
	if s.PainLabel() != "none reported" {
		t.Errorf("PainLabel() = %q, want none reported", s.PainLabel())
	}
}

func TestPreferences_Likes(t *testing.T) {
	likes, dislikes := Preferences(user("I really like running and yoga"), PreferenceWindow)

	want := []string{"running", "yoga"}
	if !reflect.DeepEqual(likes, want) {
		t.Errorf("likes = %v, want %v", likes, want)
	}
	if len(dislikes) != 0 {
		t.Errorf("dislikes = %v, want empty", dislikes)
	}
}

func TestPreferences_Dislikes(t *testing.T) {
	likes, dislikes := Preferences(user("I don't want any cardio or gym sessions"), PreferenceWindow)

	want := []string{"cardio", "gym workouts"}
	if !reflect.DeepEqual(dislikes, want) {
		t.Errorf("dislikes = %v, want %v", dislikes, want)
	}
	if len(likes) != 0 {
		t.Errorf("likes = %v, want empty", likes)
	}
}

// A message negating one activity while praising another must tag each
// correctly: negation binds to its own clause.
func TestPreferences_MixedMessage(t *testing.T) {
	likes, dislikes := Preferences(user("I don't like running but I love lifting weights"), PreferenceWindow)

	if !reflect.DeepEqual(dislikes, []string{"running"}) {
		t.Errorf("dislikes = %v, want [running]", dislikes)
	}
	if !reflect.DeepEqual(likes, []string{"weightlifting"}) {
		t.Errorf("likes = %v, want [weightlifting]", likes)
	}
}

// Negation precedence: when the same activity is both liked and negated in
// one message, only the dislike survives.
func TestPreferences_NegationShadowsLike(t *testing.T) {
	likes, dislikes := Preferences(user("I like running, although I don't want to run this month"), PreferenceWindow)

	if !reflect.DeepEqual(dislikes, []string{"running"}) {
		t.Errorf("dislikes = %v, want [running]", dislikes)
	}
	for _, tag := range likes {
		if tag == "running" {
			t.Errorf("likes = %v, running must not appear", likes)
		}
	}
}

// "don't like" contains the substring "like"; the negation check must win.
func TestPreferences_DontLikeIsNotALike(t *testing.T) {
	likes, dislikes := Preferences(user("I don't like the gym"), PreferenceWindow)

	if len(likes) != 0 {
		t.Errorf("likes = %v, want empty", likes)
	}
	if !reflect.DeepEqual(dislikes, []string{"gym workouts"}) {
		t.Errorf("dislikes = %v, want [gym workouts]", dislikes)
	}
}

func TestPreferences_MultipleLikesInOneMessage(t *testing.T) {
	likes, _ := Preferences(user("I prefer swimming and cardio and yoga"), PreferenceWindow)

	want := []string{"cardio", "yoga", "swimming"}
	if len(likes) != len(want) {
		t.Fatalf("likes = %v, want %d tags", likes, len(want))
	}
	got := make(map[string]bool)
	for _, tag := range likes {
		got[tag] = true
	}
	for _, tag := range want {
		if !got[tag] {
			t.Errorf("likes = %v, missing %q", likes, tag)
		}
	}
}

func TestPreferences_Window(t *testing.T) {
	// 11 user messages; the oldest (a like) must fall outside the window of 10.
	msgs := user("I love swimming")
	for range 10 {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "just checking in"})
	}

	likes, _ := Preferences(msgs, PreferenceWindow)
	if len(likes) != 0 {
		t.Errorf("likes = %v, want empty (outside window)", likes)
	}
}

func TestPreferences_IgnoresAssistantMessages(t *testing.T) {
	msgs := []llm.Message{
		{Role: llm.RoleAssistant, Content: "You said you like running"},
		{Role: llm.RoleUser, Content: "morning"},
	}

	likes, _ := Preferences(msgs, PreferenceWindow)
	if len(likes) != 0 {
		t.Errorf("likes = %v, want empty (assistant text must not be mined)", likes)
	}
}

func TestSentiment_Struggling(t *testing.T) {
	got := SentimentOf(user("this week was really hard, I'm so tired"), SentimentWindow)
	if got != SentimentStruggling {
		t.Errorf("sentiment = %q, want struggling", got)
	}
}

func TestSentiment_Positive(t *testing.T) {
	got := SentimentOf(user("feeling great, workouts are going well"), SentimentWindow)
	if got != SentimentPositive {
		t.Errorf("sentiment = %q, want positive", got)
	}
}

func TestSentiment_Neutral(t *testing.T) {
	got := SentimentOf(user("what should I eat before a workout"), SentimentWindow)
	if got != SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral", got)
	}
}

// Distress is checked first and wins ties.
func TestSentiment_DistressBeatsSuccess(t *testing.T) {
	got := SentimentOf(user("I made great progress but it was so difficult"), SentimentWindow)
	if got != SentimentStruggling {
		t.Errorf("sentiment = %q, want struggling", got)
	}
}

func TestSentiment_Window(t *testing.T) {
	// The distress message is the 6th-newest user message; window is 5.
	msgs := user("so tired today", "ok", "ok", "ok", "ok", "ok")

	got := SentimentOf(msgs, SentimentWindow)
	if got != SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral (distress outside window)", got)
	}
}

func TestInjuryContext(t *testing.T) {
	exercises, pains := InjuryContext(user(
		"my squat form feels off and my knee hurts",
		"also some pain after deadlift, squat again today",
	), InjuryWindow)

	wantEx := []string{"squat", "deadlift"}
	if !reflect.DeepEqual(exercises, wantEx) {
		t.Errorf("exercises = %v, want %v", exercises, wantEx)
	}

	wantPain := []string{"mentioned 'hurt'", "mentioned 'pain'"}
	if !reflect.DeepEqual(pains, wantPain) {
		t.Errorf("pains = %v, want %v", pains, wantPain)
	}
}

func TestProgressStats(t *testing.T) {
	msgs := user(
		"did my workout this morning",
		"ran 5k yesterday",
		"feeling tired but good",
		"everything is getting easier",
		"lifted at the gym, sore all over",
	)

	mentions, obs := ProgressStats(msgs)
	if mentions != 3 {
		t.Errorf("workout mentions = %d, want 3", mentions)
	}
	if len(obs) != 3 {
		t.Fatalf("observations = %v, want exactly 3 (capped)", obs)
	}
}

func TestProgressStats_WholeHistoryNotWindowed(t *testing.T) {
	// Old mentions beyond any window must still count.
	msgs := user("I trained hard")
	for range 20 {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: "hello"})
	}

	mentions, _ := ProgressStats(msgs)
	if mentions != 1 {
		t.Errorf("workout mentions = %d, want 1", mentions)
	}
}

func TestSignalsLabels(t *testing.T) {
	s := Signals{
		Likes:          []string{"running", "yoga"},
		Dislikes:       []string{"cardio"},
		Exercises:      []string{"squat"},
		PainIndicators: []string{"mentioned 'sore'"},
	}

	if got := s.LikesLabel(); got != "running, yoga" {
		t.Errorf("LikesLabel() = %q", got)
	}
	if got := s.DislikesLabel(); got != "cardio" {
		t.Errorf("DislikesLabel() = %q", got)
	}
	if got := s.ExercisesLabel(); got != "squat" {
		t.Errorf("ExercisesLabel() = %q", got)
	}
	if got := s.PainLabel(); got != "mentioned 'sore'" {
		t.Errorf("PainLabel() = %q", got)
	}
}
