package profile

import "strconv"

// Goal is the user's fitness goal. The set is closed; unknown input parses
// to GoalUnset.
type Goal string

const (
	GoalUnset            Goal = ""
	GoalLoseWeight       Goal = "lose_weight"
	GoalGainMuscle       Goal = "gain_muscle"
	GoalMaintain         Goal = "maintain"
	GoalImproveEndurance Goal = "improve_endurance"
)

// ParseGoal maps a raw string onto the closed goal set.
func ParseGoal(s string) (Goal, bool) {
	switch Goal(s) {
	case GoalLoseWeight, GoalGainMuscle, GoalMaintain, GoalImproveEndurance:
		return Goal(s), true
	case GoalUnset:
		return GoalUnset, true
	}
	return GoalUnset, false
}

// ActivityLevel is the user's self-reported activity level. The set is
// closed; unknown input parses to ActivityUnset.
type ActivityLevel string

const (
	ActivityUnset      ActivityLevel = ""
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ParseActivityLevel maps a raw string onto the closed activity set.
func ParseActivityLevel(s string) (ActivityLevel, bool) {
	switch ActivityLevel(s) {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		return ActivityLevel(s), true
	case ActivityUnset:
		return ActivityUnset, true
	}
	return ActivityUnset, false
}

// Profile is an immutable-per-turn snapshot of the user. The agent core only
// reads it; persistence is owned by the storage layer.
type Profile struct {
	UserID              string
	Name                string
	Age                 int
	WeightLb            float64
	HeightFt            float64
	Goal                Goal
	ActivityLevel       ActivityLevel
	DietaryRestrictions string
	Preferences         string
}

// The label methods below render profile fields for prompt embedding.
// Missing values become explicit placeholders so handlers never fail on an
// incomplete profile.

// NameLabel returns the display name, or "User" when unset.
func (p Profile) NameLabel() string {
	if p.Name == "" {
		return "User"
	}
	return p.Name
}

// AgeLabel returns the age as a string, or "unknown" when unset.
func (p Profile) AgeLabel() string {
	if p.Age <= 0 {
		return "unknown"
	}
	return strconv.Itoa(p.Age)
}

// WeightLabel returns the weight in pounds, or "unknown" when unset.
func (p Profile) WeightLabel() string {
	if p.WeightLb <= 0 {
		return "unknown"
	}
	return strconv.FormatFloat(p.WeightLb, 'f', -1, 64) + " lb"
}

// HeightLabel returns the height in decimal feet, or "unknown" when unset.
func (p Profile) HeightLabel() string {
	if p.HeightFt <= 0 {
		return "unknown"
	}
	return strconv.FormatFloat(p.HeightFt, 'f', -1, 64) + " ft"
}

// GoalLabel returns the goal tag, or "not set" when unset.
func (p Profile) GoalLabel() string {
	return p.GoalLabelOr("not set")
}

// GoalLabelOr returns the goal tag, or the given fallback when unset.
func (p Profile) GoalLabelOr(fallback string) string {
	if p.Goal == GoalUnset {
		return fallback
	}
	return string(p.Goal)
}

// ActivityLabel returns the activity level tag, or "not set" when unset.
func (p Profile) ActivityLabel() string {
	return p.ActivityLabelOr("not set")
}

// ActivityLabelOr returns the activity level tag, or the given fallback when unset.
func (p Profile) ActivityLabelOr(fallback string) string {
	if p.ActivityLevel == ActivityUnset {
		return fallback
	}
	return string(p.ActivityLevel)
}

// DietLabel returns the dietary restrictions, or "none" when unset.
func (p Profile) DietLabel() string {
	if p.DietaryRestrictions == "" {
		return "none"
	}
	return p.DietaryRestrictions
}

// PreferencesLabel returns the workout preferences, or "none" when unset.
func (p Profile) PreferencesLabel() string {
	if p.Preferences == "" {
		return "none"
	}
	return p.Preferences
}
