package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint
// through the official OpenAI SDK.
type GroqClient struct {
	client openai.Client
	model  string
}

// NewGroq creates a GroqClient with the given API key and model name.
func NewGroq(apiKey, model string) *GroqClient {
	return newGroq(apiKey, model, defaultGroqBaseURL)
}

// NewGroqWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewGroqWithBaseURL(apiKey, model, baseURL string) *GroqClient {
	return newGroq(apiKey, model, strings.TrimRight(baseURL, "/"))
}

func newGroq(apiKey, model, baseURL string) *GroqClient {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &GroqClient{client: client, model: model}
}

// Complete sends a non-streaming chat completion request and returns the
// assistant's response text. Any API failure is wrapped in ErrUnavailable so
// callers can treat transport, auth, and quota errors uniformly.
func (c *GroqClient) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
