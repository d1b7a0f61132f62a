package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Message is one stored conversation turn. Role is "user" or "assistant".
type Message struct {
	ID        string
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Workout is a logged workout session. Exercises is an ordered list of
// exercise names; CompletedAt is zero unless Completed is set.
type Workout struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Exercises   []string
	DurationMin int
	Completed   bool
	CompletedAt time.Time
	CreatedAt   time.Time
}

// Meal is a logged meal with its calorie and macro estimates. MealType is
// free text, typically breakfast, lunch, dinner or snack.
type Meal struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Calories    int
	Protein     float64
	Carbs       float64
	Fats        float64
	MealType    string
	CreatedAt   time.Time
}
