package downstream

import (
	"encoding/json"

	"chat-relay/upstream"
)

const (
	failureMessage = "Failed to process chat request"

	mockContent = "Hello! I'm a mock AI response. The chat interface is working correctly! 🎉 " +
		"To use real AI responses, set USE_MOCK_AI=false in your environment variables."

	quotaContent = "Sorry, your OpenRouter API key has exceeded its limit. " +
		"Please check your account at https://openrouter.ai/settings/keys and either add credits or get a new API key. " +
		"You can also set USE_MOCK_AI=true in your environment variables to use mock responses for testing."
)

// Message is relayed upstream unchanged.
type Message = upstream.Message

// ChatRequest keeps each message raw so fields beyond role and content, such
// as client-side ids, reach the upstream API untouched.
type ChatRequest struct {
	Messages []json.RawMessage `json:"messages"`
	Stream   bool              `json:"stream,omitempty"`
}

// Conversation is the typed view of Messages used for logging. Entries that
// are not message objects are skipped.
func (r *ChatRequest) Conversation() []Message {
	conversation := make([]Message, 0, len(r.Messages))
	for _, raw := range r.Messages {
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		conversation = append(conversation, m)
	}
	return conversation
}

type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Content returns the first choice's text, or "" when there is none.
func (r CompletionResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
