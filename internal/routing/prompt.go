package routing

import (
	"fmt"
	"strings"

	"coachd/internal/llm"
	"coachd/internal/profile"
	"coachd/internal/tools"
)

// How much recent conversation the coordinator sees.
const recentWindow = 3

// BuildPrompt constructs the coordination messages: a system instruction
// listing the fixed registry, the profile, a short history excerpt, and the
// selection rules, followed by the user's message.
func BuildPrompt(p profile.Profile, message string, recent []llm.Message) []llm.Message {
	var sb strings.Builder

	sb.WriteString("You are a coordination system for a fitness coach.\n")
	sb.WriteString("Look at what the user is asking and decide which tools to use.\n\n")

	sb.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", p.NameLabel())
	fmt.Fprintf(&sb, "- Age: %s\n", p.AgeLabel())
	fmt.Fprintf(&sb, "- Weight: %s\n", p.WeightLabel())
	fmt.Fprintf(&sb, "- Height: %s\n", p.HeightLabel())
	fmt.Fprintf(&sb, "- Goal: %s\n", p.GoalLabel())
	fmt.Fprintf(&sb, "- Activity Level: %s\n", p.ActivityLabel())
	fmt.Fprintf(&sb, "- Preferences: %s\n", p.PreferencesLabel())
	fmt.Fprintf(&sb, "- Dietary Restrictions: %s\n", p.DietLabel())

	sb.WriteString("\nRECENT CONVERSATION:\n")
	sb.WriteString(llm.Excerpt(recent, recentWindow))

	sb.WriteString("\n\nAVAILABLE TOOLS:\n")
	for i, name := range tools.All {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, name, name.Description())
	}

	sb.WriteString(`
COORDINATION RULES:
- Use context! If they asked about workouts before, consider that.
- Can use MULTIPLE tools if needed (e.g., workout + motivation)
- Use analyze_progress if they mention "progress", "doing", "results", "how am I"
- Use give_motivation if they seem discouraged or ask for encouragement
- For general questions, use NO tools (tools: [])

Respond with ONLY valid JSON:
{
    "tools": ["tool_name1", "tool_name2"],
    "reasoning": "Brief explanation of why these tools",
    "context_aware": "How conversation history influenced this decision"
}`)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: sb.String()},
		{Role: llm.RoleUser, Content: message},
	}
}
