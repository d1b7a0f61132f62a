package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coachd/internal/config"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message to the coach",
	Long: `Send a message to the coach and print the reply.

Examples:
  coachd chat "Create a workout plan for this week"
  coachd chat --user alex "How many calories should I eat?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		message := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/chat", map[string]string{
			"user_id": user,
			"message": message,
		})
		if err != nil {
			return err
		}

		var result struct {
			Reply string `json:"reply"`
			Meta  struct {
				Tools    []string `json:"tools"`
				Degraded bool     `json:"degraded"`
			} `json:"meta"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Reply)
		if len(result.Meta.Tools) > 0 {
			fmt.Fprintf(os.Stderr, "\n%s %s\n", colorize(colorCyan, "tools:"), strings.Join(result.Meta.Tools, ", "))
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().String("user", "default", "user identifier")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage fitness profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/profile?user_id=" + url.QueryEscape(user))
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a profile field",
	Long: `Set a profile field.

Fields: name, age, weight_lb, height_ft, goal, activity_level,
dietary_restrictions, preferences.

Examples:
  coachd profile set goal gain_muscle
  coachd profile set weight_lb 180
  coachd profile set --user alex dietary_restrictions vegetarian`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		field, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"user_id": user}
		switch field {
		case "age":
			var age int
			if _, err := fmt.Sscanf(value, "%d", &age); err != nil {
				return fmt.Errorf("age must be an integer: %w", err)
			}
			body[field] = age
		case "weight_lb", "height_ft":
			var f float64
			if _, err := fmt.Sscanf(value, "%g", &f); err != nil {
				return fmt.Errorf("%s must be a number: %w", field, err)
			}
			body[field] = f
		default:
			body[field] = value
		}

		resp, err := client.patch("/profile", body)
		if err != nil {
			return err
		}

		var result any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", field, value)
		return nil
	},
}

func init() {
	profileShowCmd.Flags().String("user", "default", "user identifier")
	profileSetCmd.Flags().String("user", "default", "user identifier")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/history?user_id=%s&limit=%d", url.QueryEscape(user), limit)
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var entries []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No conversation yet.")
			return nil
		}

		for _, e := range entries {
			label := e.Role
			if label == "assistant" {
				label = colorize(colorGreen, "coach")
			} else {
				label = colorize(colorCyan, label)
			}
			fmt.Printf("%s  %s\n  %s\n\n", label, e.CreatedAt, e.Content)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("user", "default", "user identifier")
	historyCmd.Flags().Int("limit", 20, "maximum number of messages")
}

// --- workouts ---

var workoutsCmd = &cobra.Command{
	Use:   "workouts",
	Short: "Log and list workouts",
}

var workoutsLogCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Log a workout",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		duration, _ := cmd.Flags().GetInt("duration")
		description, _ := cmd.Flags().GetString("description")
		exercises, _ := cmd.Flags().GetStringSlice("exercises")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/workouts", map[string]any{
			"user_id":      user,
			"name":         strings.Join(args, " "),
			"description":  description,
			"exercises":    exercises,
			"duration_min": duration,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Logged workout %s", result["id"])
		return nil
	},
}

var workoutsCompleteCmd = &cobra.Command{
	Use:   "complete <workout-id>",
	Short: "Mark a workout as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/workouts/"+url.PathEscape(args[0])+"/complete", map[string]string{
			"user_id": user,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Completed workout %s", result["id"])
		return nil
	},
}

var workoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent workouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/workouts?user_id=%s&limit=%d", url.QueryEscape(user), limit)
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var workouts []struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Exercises   []string `json:"exercises"`
			DurationMin int      `json:"duration_min"`
			Completed   bool     `json:"completed"`
			CreatedAt   string   `json:"created_at"`
		}
		if err := decodeJSON(resp, &workouts); err != nil {
			return err
		}

		if len(workouts) == 0 {
			fmt.Println("No workouts logged.")
			return nil
		}

		for _, w := range workouts {
			line := fmt.Sprintf("%s  %s", colorize(colorBold, w.Name), w.CreatedAt)
			if w.DurationMin > 0 {
				line += fmt.Sprintf("  (%d min)", w.DurationMin)
			}
			if w.Completed {
				line += "  " + colorize(colorGreen, "done")
			}
			fmt.Println(line)
			if w.Description != "" {
				fmt.Printf("  %s\n", w.Description)
			}
			if len(w.Exercises) > 0 {
				fmt.Printf("  %s\n", strings.Join(w.Exercises, ", "))
			}
			fmt.Printf("  id: %s\n", w.ID)
		}
		return nil
	},
}

func init() {
	workoutsLogCmd.Flags().String("user", "default", "user identifier")
	workoutsLogCmd.Flags().Int("duration", 0, "duration in minutes")
	workoutsLogCmd.Flags().String("description", "", "optional description")
	workoutsLogCmd.Flags().StringSlice("exercises", nil, "comma-separated exercise names")
	workoutsCompleteCmd.Flags().String("user", "default", "user identifier")
	workoutsListCmd.Flags().String("user", "default", "user identifier")
	workoutsListCmd.Flags().Int("limit", 20, "maximum number of workouts")
	workoutsCmd.AddCommand(workoutsLogCmd)
	workoutsCmd.AddCommand(workoutsCompleteCmd)
	workoutsCmd.AddCommand(workoutsListCmd)
}

// --- meals ---

var mealsCmd = &cobra.Command{
	Use:   "meals",
	Short: "Log and list meals",
}

var mealsLogCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Log a meal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		calories, _ := cmd.Flags().GetInt("calories")
		description, _ := cmd.Flags().GetString("description")
		protein, _ := cmd.Flags().GetFloat64("protein")
		carbs, _ := cmd.Flags().GetFloat64("carbs")
		fats, _ := cmd.Flags().GetFloat64("fats")
		mealType, _ := cmd.Flags().GetString("type")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/meals", map[string]any{
			"user_id":     user,
			"name":        strings.Join(args, " "),
			"description": description,
			"calories":    calories,
			"protein":     protein,
			"carbs":       carbs,
			"fats":        fats,
			"meal_type":   mealType,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Logged meal %s", result["id"])
		return nil
	},
}

var mealsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/meals?user_id=%s&limit=%d", url.QueryEscape(user), limit)
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var meals []struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Calories    int     `json:"calories"`
			Protein     float64 `json:"protein"`
			Carbs       float64 `json:"carbs"`
			Fats        float64 `json:"fats"`
			MealType    string  `json:"meal_type"`
			CreatedAt   string  `json:"created_at"`
		}
		if err := decodeJSON(resp, &meals); err != nil {
			return err
		}

		if len(meals) == 0 {
			fmt.Println("No meals logged.")
			return nil
		}

		for _, m := range meals {
			line := fmt.Sprintf("%s  %s", colorize(colorBold, m.Name), m.CreatedAt)
			if m.MealType != "" {
				line += "  [" + m.MealType + "]"
			}
			if m.Calories > 0 {
				line += fmt.Sprintf("  (%d cal, %.0fp/%.0fc/%.0ff)", m.Calories, m.Protein, m.Carbs, m.Fats)
			}
			fmt.Println(line)
			if m.Description != "" {
				fmt.Printf("  %s\n", m.Description)
			}
		}
		return nil
	},
}

func init() {
	mealsLogCmd.Flags().String("user", "default", "user identifier")
	mealsLogCmd.Flags().Int("calories", 0, "estimated calories")
	mealsLogCmd.Flags().String("description", "", "optional description")
	mealsLogCmd.Flags().Float64("protein", 0, "protein grams")
	mealsLogCmd.Flags().Float64("carbs", 0, "carb grams")
	mealsLogCmd.Flags().Float64("fats", 0, "fat grams")
	mealsLogCmd.Flags().String("type", "", "meal type (breakfast, lunch, dinner, snack)")
	mealsListCmd.Flags().String("user", "default", "user identifier")
	mealsListCmd.Flags().Int("limit", 20, "maximum number of meals")
	mealsCmd.AddCommand(mealsLogCmd)
	mealsCmd.AddCommand(mealsListCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
