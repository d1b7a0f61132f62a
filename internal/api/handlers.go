// Package api exposes the coaching engine over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coachd/internal/agent"
	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// historyWindow caps how much stored conversation is replayed into a turn.
const historyWindow = 50

// ChatAgent abstracts the orchestrator for the API layer.
type ChatAgent interface {
	HandleMessage(ctx context.Context, p profile.Profile, history []llm.Message, message string) (string, agent.TurnMetadata, error)
}

type AppDeps struct {
	Store    *storage.Store
	Profiles *profile.Manager
	Agent    ChatAgent
	Token    string // empty disables auth
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	if deps.Token != "" {
		r.Use(BearerAuth(deps.Token))
	}

	r.Get("/health", handleHealth)
	r.Post("/chat", handleChat(deps))
	r.Get("/history", handleHistory(deps))
	r.Get("/profile", handleGetProfile(deps))
	r.Patch("/profile", handlePatchProfile(deps))
	r.Post("/workouts", handleLogWorkout(deps))
	r.Get("/workouts", handleListWorkouts(deps))
	r.Post("/workouts/{id}/complete", handleCompleteWorkout(deps))
	r.Post("/meals", handleLogMeal(deps))
	r.Get("/meals", handleListMeals(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string             `json:"reply"`
	Meta  agent.TurnMetadata `json:"meta"`
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		p, err := deps.Profiles.Get(req.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}

		stored, err := deps.Store.ListMessages(req.UserID, historyWindow)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load history: %v", err)
			return
		}
		history := make([]llm.Message, len(stored))
		for i, m := range stored {
			history[i] = llm.Message{Role: m.Role, Content: m.Content}
		}

		reply, meta, err := deps.Agent.HandleMessage(r.Context(), p, history, req.Message)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to generate reply: %v", err)
			return
		}

		now := time.Now().UTC()
		userMsg := storage.Message{
			ID:        uuid.New().String(),
			UserID:    req.UserID,
			Role:      llm.RoleUser,
			Content:   req.Message,
			CreatedAt: now,
		}
		assistantMsg := storage.Message{
			ID:        uuid.New().String(),
			UserID:    req.UserID,
			Role:      llm.RoleAssistant,
			Content:   reply,
			CreatedAt: now.Add(time.Millisecond),
		}
		if err := deps.Store.AppendMessage(userMsg); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to persist message: %v", err)
			return
		}
		if err := deps.Store.AppendMessage(assistantMsg); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to persist reply: %v", err)
			return
		}

		writeJSON(w, ChatResponse{Reply: reply, Meta: meta})
	}
}

type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func handleHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		limit := parseIntParam(r, "limit", 50, 500)

		msgs, err := deps.Store.ListMessages(userID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list messages: %v", err)
			return
		}

		entries := make([]HistoryEntry, len(msgs))
		for i, m := range msgs {
			entries[i] = HistoryEntry{
				Role:      m.Role,
				Content:   m.Content,
				CreatedAt: m.CreatedAt.Format(time.RFC3339),
			}
		}
		writeJSON(w, entries)
	}
}

type ProfileResponse struct {
	UserID              string  `json:"user_id"`
	Name                string  `json:"name"`
	Age                 int     `json:"age"`
	WeightLb            float64 `json:"weight_lb"`
	HeightFt            float64 `json:"height_ft"`
	Goal                string  `json:"goal"`
	ActivityLevel       string  `json:"activity_level"`
	DietaryRestrictions string  `json:"dietary_restrictions"`
	Preferences         string  `json:"preferences"`
}

func profileResponse(p profile.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:              p.UserID,
		Name:                p.Name,
		Age:                 p.Age,
		WeightLb:            p.WeightLb,
		HeightFt:            p.HeightFt,
		Goal:                string(p.Goal),
		ActivityLevel:       string(p.ActivityLevel),
		DietaryRestrictions: p.DietaryRestrictions,
		Preferences:         p.Preferences,
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, profileResponse(p))
	}
}

type ProfilePatch struct {
	UserID              string   `json:"user_id"`
	Name                *string  `json:"name"`
	Age                 *int     `json:"age"`
	WeightLb            *float64 `json:"weight_lb"`
	HeightFt            *float64 `json:"height_ft"`
	Goal                *string  `json:"goal"`
	ActivityLevel       *string  `json:"activity_level"`
	DietaryRestrictions *string  `json:"dietary_restrictions"`
	Preferences         *string  `json:"preferences"`
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var patch ProfilePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if patch.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}

		p, err := deps.Profiles.Get(patch.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}

		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Age != nil {
			p.Age = *patch.Age
		}
		if patch.WeightLb != nil {
			p.WeightLb = *patch.WeightLb
		}
		if patch.HeightFt != nil {
			p.HeightFt = *patch.HeightFt
		}
		if patch.Goal != nil {
			goal, ok := profile.ParseGoal(*patch.Goal)
			if !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown goal %q", *patch.Goal)
				return
			}
			p.Goal = goal
		}
		if patch.ActivityLevel != nil {
			level, ok := profile.ParseActivityLevel(*patch.ActivityLevel)
			if !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown activity level %q", *patch.ActivityLevel)
				return
			}
			p.ActivityLevel = level
		}
		if patch.DietaryRestrictions != nil {
			p.DietaryRestrictions = *patch.DietaryRestrictions
		}
		if patch.Preferences != nil {
			p.Preferences = *patch.Preferences
		}

		if err := deps.Profiles.Update(p); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update profile: %v", err)
			return
		}
		writeJSON(w, profileResponse(p))
	}
}

type WorkoutRequest struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Exercises   []string `json:"exercises"`
	DurationMin int      `json:"duration_min"`
}

func handleLogWorkout(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req WorkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" || req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and name are required")
			return
		}

		workout := storage.Workout{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			Name:        req.Name,
			Description: req.Description,
			Exercises:   req.Exercises,
			DurationMin: req.DurationMin,
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.SaveWorkout(workout); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save workout: %v", err)
			return
		}
		writeJSON(w, map[string]string{"id": workout.ID, "status": "logged"})
	}
}

type completeWorkoutRequest struct {
	UserID string `json:"user_id"`
}

func handleCompleteWorkout(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		workoutID := chi.URLParam(r, "id")

		var req completeWorkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}

		err := deps.Store.CompleteWorkout(req.UserID, workoutID, time.Now().UTC())
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "workout %s not found", workoutID)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to complete workout: %v", err)
			return
		}
		writeJSON(w, map[string]string{"id": workoutID, "status": "completed"})
	}
}

type workoutEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Exercises   []string `json:"exercises"`
	DurationMin int      `json:"duration_min"`
	Completed   bool     `json:"completed"`
	CompletedAt string   `json:"completed_at,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func toWorkoutEntry(w storage.Workout) workoutEntry {
	entry := workoutEntry{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Exercises:   w.Exercises,
		DurationMin: w.DurationMin,
		Completed:   w.Completed,
		CreatedAt:   w.CreatedAt.Format(time.RFC3339),
	}
	if !w.CompletedAt.IsZero() {
		entry.CompletedAt = w.CompletedAt.Format(time.RFC3339)
	}
	return entry
}

func handleListWorkouts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)

		workouts, err := deps.Store.ListWorkouts(userID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list workouts: %v", err)
			return
		}

		entries := make([]workoutEntry, 0, len(workouts))
		for _, wk := range workouts {
			entries = append(entries, toWorkoutEntry(wk))
		}
		writeJSON(w, entries)
	}
}

type MealRequest struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fats        float64 `json:"fats"`
	MealType    string  `json:"meal_type"`
}

func handleLogMeal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req MealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" || req.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and name are required")
			return
		}

		meal := storage.Meal{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			Name:        req.Name,
			Description: req.Description,
			Calories:    req.Calories,
			Protein:     req.Protein,
			Carbs:       req.Carbs,
			Fats:        req.Fats,
			MealType:    req.MealType,
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.SaveMeal(meal); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save meal: %v", err)
			return
		}
		writeJSON(w, map[string]string{"id": meal.ID, "status": "logged"})
	}
}

type mealEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fats        float64 `json:"fats"`
	MealType    string  `json:"meal_type"`
	CreatedAt   string  `json:"created_at"`
}

func handleListMeals(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)

		meals, err := deps.Store.ListMeals(userID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list meals: %v", err)
			return
		}

		entries := make([]mealEntry, 0, len(meals))
		for _, m := range meals {
			entries = append(entries, mealEntry{
				ID:          m.ID,
				Name:        m.Name,
				Description: m.Description,
				Calories:    m.Calories,
				Protein:     m.Protein,
				Carbs:       m.Carbs,
				Fats:        m.Fats,
				MealType:    m.MealType,
				CreatedAt:   m.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, entries)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
