// Package mining extracts durable signals (preferences, sentiment, injury
// context, progress counters) from unstructured conversation history. All
// functions are pure and total: they never fail, never call out, and an
// empty history yields a valid zero-signal result.
package mining

import (
	"strings"

	"coachd/internal/llm"
)

// Default scan windows, counted in user-authored messages.
const (
	PreferenceWindow = 10
	SentimentWindow  = 5
	InjuryWindow     = 10
)

const maxObservations = 3

// Sentiment is the coarse emotional bucket mined from recent messages.
type Sentiment string

const (
	SentimentNeutral    Sentiment = "neutral"
	SentimentStruggling Sentiment = "struggling"
	SentimentPositive   Sentiment = "positive"
)

// Signals holds everything mined from one history snapshot. Recomputed every
// turn; never persisted.
type Signals struct {
	Likes           []string
	Dislikes        []string
	Sentiment       Sentiment
	Exercises       []string
	PainIndicators  []string
	WorkoutMentions int
	Observations    []string
}

// LikesLabel renders the like set for prompt embedding.
func (s Signals) LikesLabel() string { return joinOrNone(s.Likes) }

// DislikesLabel renders the dislike set for prompt embedding.
func (s Signals) DislikesLabel() string { return joinOrNone(s.Dislikes) }

// ExercisesLabel renders mentioned exercises for prompt embedding.
func (s Signals) ExercisesLabel() string {
	if len(s.Exercises) == 0 {
		return "none mentioned yet"
	}
	return strings.Join(s.Exercises, ", ")
}

// PainLabel renders pain indicators for prompt embedding.
func (s Signals) PainLabel() string {
	if len(s.PainIndicators) == 0 {
		return "none reported"
	}
	return strings.Join(s.PainIndicators, "; ")
}

func joinOrNone(tags []string) string {
	if len(tags) == 0 {
		return "none detected"
	}
	return strings.Join(tags, ", ")
}

// Keyword rule tables. Matching is case-insensitive substring search, so a
// rule keyed "run" also fires on "running". Kept as package vars so the rule
// set is independently testable and extensible.

type keywordRule struct {
	keyword string
	tag     string
}

// negationPhrases shadow positive-preference matching within a clause:
// a clause containing one contributes only dislikes, never likes. Checked
// first because "don't like" itself contains the like trigger "like".
var negationPhrases = []string{"don't want", "don't like"}

// clauseBreaks split a message into independently mined clauses, so
// "I don't like running but I love lifting" negates only running.
var clauseBreaks = []string{" but ", " however ", " although "}

var dislikeRules = []keywordRule{
	{"lift", "weightlifting"},
	{"weight", "weightlifting"},
	{"run", "running"},
	{"cardio", "cardio"},
	{"gym", "gym workouts"},
}

var likeTriggers = []string{"like", "love", "prefer", "enjoy", "want to"}

var likeRules = []keywordRule{
	{"run", "running"},
	{"lift", "weightlifting"},
	{"weight", "weightlifting"},
	{"cardio", "cardio"},
	{"yoga", "yoga"},
	{"swim", "swimming"},
}

// Distress is checked before success and wins ties.
var distressWords = []string{"tired", "hard", "difficult", "struggle", "cant"}
var successWords = []string{"good", "great", "better", "progress"}

var exerciseVocab = []string{"squat", "deadlift", "bench", "run", "lunge", "press", "curl", "row"}
var painVocab = []string{"pain", "hurt", "sore", "injury", "strain", "ache"}

var workoutVocab = []string{"workout", "exercise", "ran", "lifted", "trained"}
var fatigueWords = []string{"tired", "sore"}
var improvementWords = []string{"easier", "better"}

// Mine runs every extraction with its standard window and assembles the
// combined signal set for one turn.
func Mine(history []llm.Message) Signals {
	likes, dislikes := Preferences(history, PreferenceWindow)
	exercises, pains := InjuryContext(history, InjuryWindow)
	mentions, observations := ProgressStats(history)
	return Signals{
		Likes:           likes,
		Dislikes:        dislikes,
		Sentiment:       SentimentOf(history, SentimentWindow),
		Exercises:       exercises,
		PainIndicators:  pains,
		WorkoutMentions: mentions,
		Observations:    observations,
	}
}

// Preferences scans the last window user messages for liked and disliked
// activity tags. Each message is mined clause by clause: a clause with a
// negation phrase contributes only dislikes, and positive matching runs only
// in clauses where no negation fired. Within one message a disliked activity
// can never also appear as liked.
func Preferences(history []llm.Message, window int) (likes, dislikes []string) {
	likeSet := newTagSet()
	dislikeSet := newTagSet()

	for _, text := range lastUserTexts(history, window) {
		msgLikes, msgDislikes := minePreferenceMessage(text)
		for _, tag := range msgDislikes {
			dislikeSet.add(tag)
		}
		for _, tag := range msgLikes {
			likeSet.add(tag)
		}
	}

	return likeSet.tags, dislikeSet.tags
}

func minePreferenceMessage(text string) (likes, dislikes []string) {
	likeSet := newTagSet()
	dislikeSet := newTagSet()

	for _, clause := range splitClauses(text) {
		if containsAny(clause, negationPhrases) {
			for _, r := range dislikeRules {
				if strings.Contains(clause, r.keyword) {
					dislikeSet.add(r.tag)
				}
			}
			continue
		}
		if containsAny(clause, likeTriggers) {
			for _, r := range likeRules {
				if strings.Contains(clause, r.keyword) {
					likeSet.add(r.tag)
				}
			}
		}
	}

	// Negation wins: an activity disliked anywhere in the message cannot
	// also be liked from another clause of the same message.
	for _, tag := range likeSet.tags {
		if !dislikeSet.seen[tag] {
			likes = append(likes, tag)
		}
	}
	return likes, dislikeSet.tags
}

// splitClauses breaks a lower-cased message on punctuation and contrastive
// conjunctions. Coordinating "and" is intentionally not a break so that
// "I like running and swimming" keeps both activities under one trigger.
func splitClauses(text string) []string {
	for _, b := range clauseBreaks {
		text = strings.ReplaceAll(text, b, "|")
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '|', '.', ',', ';', '!', '?':
			return true
		}
		return false
	})
}

// SentimentOf buckets the user's recent mood from the last window user
// messages. Distress vocabulary wins over success vocabulary.
func SentimentOf(history []llm.Message, window int) Sentiment {
	text := strings.Join(lastUserTexts(history, window), " ")
	if containsAny(text, distressWords) {
		return SentimentStruggling
	}
	if containsAny(text, successWords) {
		return SentimentPositive
	}
	return SentimentNeutral
}

// InjuryContext scans the last window user messages for mentioned exercises
// and pain indicators. Both results are duplicate-free.
func InjuryContext(history []llm.Message, window int) (exercises, pains []string) {
	exerciseSet := newTagSet()
	painSet := newTagSet()

	for _, text := range lastUserTexts(history, window) {
		for _, ex := range exerciseVocab {
			if strings.Contains(text, ex) {
				exerciseSet.add(ex)
			}
		}
		for _, w := range painVocab {
			if strings.Contains(text, w) {
				painSet.add("mentioned '" + w + "'")
			}
		}
	}

	return exerciseSet.tags, painSet.tags
}

// ProgressStats scans the entire history (not windowed) counting messages
// that mention workout activity and collecting up to three free-text
// observations triggered by fatigue or improvement vocabulary.
func ProgressStats(history []llm.Message) (workoutMentions int, observations []string) {
	for _, m := range history {
		if m.Role != llm.RoleUser {
			continue
		}
		text := strings.ToLower(m.Content)

		if containsAny(text, workoutVocab) {
			workoutMentions++
		}
		if len(observations) < maxObservations && containsAny(text, fatigueWords) {
			observations = append(observations, "User mentioned physical fatigue (good sign of activity)")
		}
		if len(observations) < maxObservations && containsAny(text, improvementWords) {
			observations = append(observations, "User noted improvement")
		}
	}
	return workoutMentions, observations
}

// lastUserTexts returns the lower-cased contents of the last window
// user-authored messages, oldest first.
func lastUserTexts(history []llm.Message, window int) []string {
	var texts []string
	for _, m := range history {
		if m.Role == llm.RoleUser {
			texts = append(texts, strings.ToLower(m.Content))
		}
	}
	if window > 0 && len(texts) > window {
		texts = texts[len(texts)-window:]
	}
	return texts
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// tagSet collects tags preserving first-seen order, collapsing duplicates.
type tagSet struct {
	seen map[string]bool
	tags []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]bool)}
}

func (s *tagSet) add(tag string) {
	if s.seen[tag] {
		return
	}
	s.seen[tag] = true
	s.tags = append(s.tags, tag)
}
