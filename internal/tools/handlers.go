package tools

import (
	"context"
	"fmt"
	"strings"

	"coachd/internal/llm"
	"coachd/internal/mining"
	"coachd/internal/profile"
)

// Per-handler sampling temperatures. Structured or numeric work runs cooler;
// motivation runs warmer for variety.
const (
	defaultTemperature    = 0.7
	motivationTemperature = 0.8
	calorieTemperature    = 0.3
	injuryTemperature     = 0.5
)

// generate is the shared delegation path: one system instruction plus the
// user's literal message.
func generate(ctx context.Context, client llm.Client, instruction, message string, temperature float64) (string, error) {
	return client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instruction},
		{Role: llm.RoleUser, Content: message},
	}, temperature)
}

// --- create_workout_plan ---

type workoutPlanner struct {
	client llm.Client
}

func (*workoutPlanner) Name() Name { return CreateWorkoutPlan }

func (h *workoutPlanner) Run(ctx context.Context, p profile.Profile, message string, signals mining.Signals) (string, error) {
	instruction := fmt.Sprintf(`You are an expert fitness trainer creating personalized workout plans.

USER PROFILE:
- Age: %s
- Weight: %s
- Height: %s
- Goal: %s
- Activity Level: %s
- Stated Preferences: %s

CONVERSATION MEMORY:
- User LIKES: %s
- User DISLIKES: %s

CRITICAL RULES:
1. NEVER include exercises the user dislikes
2. If they dislike weightlifting, use bodyweight exercises instead
3. If they dislike running, use other cardio like cycling, rowing, or walking
4. Prioritize activities they like
5. Respect their preferences completely

Create a detailed, personalized workout plan including:
1. Workout name that reflects their goal
2. Specific exercises with sets, reps, rest periods
3. Duration (in minutes)
4. Safety tips and modifications
5. Why this plan matches their goal and preferences

Format as a clear, structured plan.`,
		p.AgeLabel(), p.WeightLabel(), p.HeightLabel(),
		p.GoalLabelOr("general fitness"), p.ActivityLabelOr("moderate"), p.PreferencesLabel(),
		signals.LikesLabel(), signals.DislikesLabel(),
	)

	return generate(ctx, h.client, instruction, message, defaultTemperature)
}

// --- create_meal_plan ---

type mealPlanner struct {
	client llm.Client
}

func (*mealPlanner) Name() Name { return CreateMealPlan }

func (h *mealPlanner) Run(ctx context.Context, p profile.Profile, message string, _ mining.Signals) (string, error) {
	instruction := fmt.Sprintf(`You are a nutritionist creating meal plans.

USER PROFILE:
- Age: %s
- Weight: %s
- Goal: %s
- Activity Level: %s
- Dietary Restrictions: %s

CRITICAL: Respect ALL dietary restrictions! If vegetarian, NO meat. If allergies, AVOID those foods.

Create a detailed meal plan including:
1. All meals: breakfast, lunch, dinner, snacks
2. Calorie estimates per meal and total
3. Macro breakdown (protein/carbs/fats in grams)
4. Quick preparation tips
5. Why this supports their fitness goal

Be specific with portions and ingredients.`,
		p.AgeLabel(), p.WeightLabel(),
		p.GoalLabelOr("general fitness"), p.ActivityLabelOr("moderate"), p.DietLabel(),
	)

	return generate(ctx, h.client, instruction, message, defaultTemperature)
}

// --- analyze_progress ---

type progressAnalyst struct {
	client llm.Client
}

func (*progressAnalyst) Name() Name { return AnalyzeProgress }

func (h *progressAnalyst) Run(ctx context.Context, p profile.Profile, message string, signals mining.Signals) (string, error) {
	summary := fmt.Sprintf("%d workout mentions", signals.WorkoutMentions)
	if len(signals.Observations) > 0 {
		summary += "; " + strings.Join(signals.Observations, "; ")
	}

	instruction := fmt.Sprintf(`You are a fitness analyst providing insightful progress analysis.

USER PROFILE:
- Goal: %s
- Activity Level: %s

CONVERSATION ANALYSIS:
%s

Provide a thoughtful analysis including:
1. What progress indicators you see
2. Positive patterns in their engagement
3. Specific areas for improvement
4. Actionable next steps
5. Encouragement based on their actual activity

Be honest but motivating. Use data from the conversation to be specific.`,
		p.GoalLabelOr("general fitness"), p.ActivityLabelOr("moderate"), summary,
	)

	return generate(ctx, h.client, instruction, message, defaultTemperature)
}

// --- give_motivation ---

type motivator struct {
	client llm.Client
}

func (*motivator) Name() Name { return GiveMotivation }

func (h *motivator) Run(ctx context.Context, p profile.Profile, message string, signals mining.Signals) (string, error) {
	emotional := "neutral"
	switch signals.Sentiment {
	case mining.SentimentStruggling:
		emotional = "struggling, needs encouragement"
	case mining.SentimentPositive:
		emotional = "positive, reinforce success"
	}

	instruction := fmt.Sprintf(`You are a supportive fitness coach providing motivation.

USER PROFILE:
- Goal: %s
- Activity Level: %s

EMOTIONAL CONTEXT: %s

Give them real motivation that:
1. Acknowledges their specific goal
2. Responds to how they're feeling
3. Offers practical encouragement
4. Gives them a specific next step

Don't be generic! Make it personal.`,
		p.GoalLabelOr("general fitness"), p.ActivityLabelOr("moderate"), emotional,
	)

	return generate(ctx, h.client, instruction, message, motivationTemperature)
}

// --- calculate_calories ---

type calorieCalculator struct {
	client llm.Client
}

func (*calorieCalculator) Name() Name { return CalculateCalories }

// Run spells out the full Mifflin-St Jeor derivation in the instruction so
// the model's arithmetic is checkable against a known equation. No numeric
// work happens locally.
func (h *calorieCalculator) Run(ctx context.Context, p profile.Profile, message string, _ mining.Signals) (string, error) {
	instruction := fmt.Sprintf(`You are a nutritionist calculating calorie needs.

USER PROFILE:
- Age: %s
- Weight: %s
- Height: %s
- Fitness Goal: %s
- Activity Level: %s

TASK: Calculate personalized daily calorie and macronutrient needs.

CALCULATION STEPS:
1. Convert units first: weight_kg = weight_lb / 2.205, height_cm = height_ft * 30.48.

2. Calculate BMR using Mifflin-St Jeor:
   - Men: (10 * weight_kg) + (6.25 * height_cm) - (5 * age) + 5
   - Women: (10 * weight_kg) + (6.25 * height_cm) - (5 * age) - 161

3. Calculate TDEE (BMR * activity multiplier):
   - Sedentary: 1.2
   - Light: 1.375
   - Moderate: 1.55
   - Active: 1.725
   - Very Active: 1.9

4. Adjust for goal:
   - Lose weight: -500 cal (1 lb/week) or -250 cal (0.5 lb/week)
   - Gain muscle: +250-500 cal
   - Maintain: TDEE

5. Calculate macros:
   - Protein: 0.8-1.2g per lb bodyweight (higher for muscle gain/fat loss)
   - Fats: 25-30%% of total calories
   - Carbs: Remaining calories

PROVIDE:
1. BMR calculation with formula shown
2. TDEE with activity multiplier
3. Target daily calories for their goal
4. Macro breakdown (grams and percentages)
5. Meal timing suggestions
6. Weekly expected progress (weight change)
7. Tips for tracking and adjusting

Show your work! Include the actual calculations so they understand.`,
		p.AgeLabel(), p.WeightLabel(), p.HeightLabel(),
		p.GoalLabel(), p.ActivityLabelOr("moderate"),
	)

	return generate(ctx, h.client, instruction, message, calorieTemperature)
}

// --- injury_prevention ---

type injuryAdvisor struct {
	client llm.Client
}

func (*injuryAdvisor) Name() Name { return InjuryPrevention }

func (h *injuryAdvisor) Run(ctx context.Context, p profile.Profile, message string, signals mining.Signals) (string, error) {
	instruction := fmt.Sprintf(`You are a certified sports medicine specialist and injury prevention expert.

USER PROFILE:
- Age: %s
- Weight: %s
- Fitness Goal: %s
- Activity Level: %s

CONVERSATION CONTEXT:
- Exercises mentioned: %s
- Pain indicators: %s

CRITICAL: Provide practical, science-based injury prevention advice.

PROVIDE:
1. Specific risks for their goal/activity level (age-related considerations, common injuries for their activities)
2. Prevention strategies: warm-up protocols, proper form tips for mentioned exercises, progression guidelines
3. Recovery essentials: rest day recommendations, sleep importance, active recovery ideas
4. Warning signs: when to stop exercising, muscle soreness vs injury, when to see a doctor
5. Specific form cues for mentioned exercises and common mistakes to avoid

Be specific and actionable. This could prevent a real injury!

IMPORTANT DISCLAIMERS:
- If they report pain, advise consulting a healthcare professional
- Don't diagnose injuries - recommend professional evaluation
- Emphasize proper progression over quick results`,
		p.AgeLabel(), p.WeightLabel(),
		p.GoalLabelOr("general fitness"), p.ActivityLabelOr("moderate"),
		signals.ExercisesLabel(), signals.PainLabel(),
	)

	return generate(ctx, h.client, instruction, message, injuryTemperature)
}
