package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store    *storage.Store
	Profiles *profile.Manager
	Agent    ChatAgent
}

// NewMCPServer creates an MCP server with all coaching tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"coachd",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("coachd is a personal AI fitness coach: chat, profiles, workout and meal logs."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("coach_chat",
			mcp.WithDescription("Send a message to the fitness coach and get a personalized reply."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The message to the coach"), mcp.Required()),
		),
		mcpCoachChat(deps),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Fetch a user's fitness profile as JSON."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
		),
		mcpGetProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Update fields of a user's fitness profile. Only provided fields change."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Display name")),
			mcp.WithNumber("age", mcp.Description("Age in years")),
			mcp.WithNumber("weight_lb", mcp.Description("Weight in pounds")),
			mcp.WithNumber("height_ft", mcp.Description("Height in decimal feet")),
			mcp.WithString("goal", mcp.Description("Fitness goal: lose_weight, gain_muscle, maintain, improve_endurance")),
			mcp.WithString("activity_level", mcp.Description("Activity level: sedentary, light, moderate, active, very_active")),
			mcp.WithString("dietary_restrictions", mcp.Description("Dietary restrictions, free text")),
			mcp.WithString("preferences", mcp.Description("Workout preferences, free text")),
		),
		mcpUpdateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("log_workout",
			mcp.WithDescription("Log a workout session for a user."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Workout name"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("exercises", mcp.Description("Comma-separated exercise names")),
			mcp.WithNumber("duration_min", mcp.Description("Duration in minutes")),
		),
		mcpLogWorkout(deps),
	)

	s.AddTool(
		mcp.NewTool("complete_workout",
			mcp.WithDescription("Mark a logged workout as completed."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
			mcp.WithString("workout_id", mcp.Description("Workout identifier"), mcp.Required()),
		),
		mcpCompleteWorkout(deps),
	)

	s.AddTool(
		mcp.NewTool("list_workouts",
			mcp.WithDescription("List a user's recently logged workouts."),
			mcp.WithString("user_id", mcp.Description("User identifier"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpListWorkouts(deps),
	)

	return s
}

func mcpCoachChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}

		stored, err := deps.Store.ListMessages(userID, historyWindow)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load history: %v", err)), nil
		}
		history := make([]llm.Message, len(stored))
		for i, m := range stored {
			history[i] = llm.Message{Role: m.Role, Content: m.Content}
		}

		reply, _, err := deps.Agent.HandleMessage(ctx, p, history, message)
		if err != nil {
			return mcpError(fmt.Sprintf("coach unavailable: %v", err)), nil
		}

		now := time.Now().UTC()
		if err := deps.Store.AppendMessage(storage.Message{
			ID: uuid.New().String(), UserID: userID, Role: llm.RoleUser, Content: message, CreatedAt: now,
		}); err != nil {
			return mcpError(fmt.Sprintf("reply generated but failed to persist message: %v", err)), nil
		}
		if err := deps.Store.AppendMessage(storage.Message{
			ID: uuid.New().String(), UserID: userID, Role: llm.RoleAssistant, Content: reply, CreatedAt: now.Add(time.Millisecond),
		}); err != nil {
			return mcpError(fmt.Sprintf("reply generated but failed to persist it: %v", err)), nil
		}

		return mcpText(reply), nil
	}
}

func mcpGetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get profile: %v", err)), nil
		}

		b, err := json.Marshal(profileResponse(p))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpUpdateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get profile: %v", err)), nil
		}

		if v := req.GetString("name", ""); v != "" {
			p.Name = v
		}
		if v := req.GetInt("age", 0); v > 0 {
			p.Age = v
		}
		if v := req.GetFloat("weight_lb", 0); v > 0 {
			p.WeightLb = v
		}
		if v := req.GetFloat("height_ft", 0); v > 0 {
			p.HeightFt = v
		}
		if v := req.GetString("goal", ""); v != "" {
			goal, ok := profile.ParseGoal(v)
			if !ok {
				return mcpError(fmt.Sprintf("unknown goal %q", v)), nil
			}
			p.Goal = goal
		}
		if v := req.GetString("activity_level", ""); v != "" {
			level, ok := profile.ParseActivityLevel(v)
			if !ok {
				return mcpError(fmt.Sprintf("unknown activity level %q", v)), nil
			}
			p.ActivityLevel = level
		}
		if v := req.GetString("dietary_restrictions", ""); v != "" {
			p.DietaryRestrictions = v
		}
		if v := req.GetString("preferences", ""); v != "" {
			p.Preferences = v
		}

		if err := deps.Profiles.Update(p); err != nil {
			return mcpError(fmt.Sprintf("failed to update profile: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Updated profile for %s", userID)), nil
	}
}

func mcpLogWorkout(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		var exercises []string
		if raw := req.GetString("exercises", ""); raw != "" {
			for _, e := range strings.Split(raw, ",") {
				if e = strings.TrimSpace(e); e != "" {
					exercises = append(exercises, e)
				}
			}
		}

		workout := storage.Workout{
			ID:          uuid.New().String(),
			UserID:      userID,
			Name:        name,
			Description: req.GetString("description", ""),
			Exercises:   exercises,
			DurationMin: req.GetInt("duration_min", 0),
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.SaveWorkout(workout); err != nil {
			return mcpError(fmt.Sprintf("failed to save workout: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Logged workout %s", workout.ID)), nil
	}
}

func mcpCompleteWorkout(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		workoutID, err := req.RequireString("workout_id")
		if err != nil {
			return mcpError("workout_id is required"), nil
		}

		err = deps.Store.CompleteWorkout(userID, workoutID, time.Now().UTC())
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("workout %s not found", workoutID)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to complete workout: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Completed workout %s", workoutID)), nil
	}
}

func mcpListWorkouts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		workouts, err := deps.Store.ListWorkouts(userID, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list workouts: %v", err)), nil
		}

		entries := make([]workoutEntry, 0, len(workouts))
		for _, w := range workouts {
			entries = append(entries, toWorkoutEntry(w))
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal workouts: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
