package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chat-relay/logging"
)

const (
	Temperature = 0.7
	MaxTokens   = 1000

	appTitle = "Next.js AI Chat Starter"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
	Stream      bool              `json:"stream,omitempty"`
}

type Client struct {
	URL     string
	APIKey  string
	Referer string
	Client  *http.Client
}

func NewClient(url, apiKey, referer string) *Client {
	return &Client{
		URL:     url,
		APIKey:  apiKey,
		Referer: referer,
		Client:  &http.Client{Timeout: 0},
	}
}

// NewChatRequest fills in the fixed generation parameters. Messages are
// sent exactly as given.
func NewChatRequest(model string, messages []json.RawMessage, stream bool) ChatRequest {
	if messages == nil {
		messages = []json.RawMessage{}
	}
	return ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Stream:      stream,
	}
}

// Complete posts one chat completion to OpenRouter. The caller owns the
// response body; non-2xx responses are returned as-is, see ReadError.
func (c *Client) Complete(ctx context.Context, chat ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("HTTP-Referer", c.Referer)
	req.Header.Set("X-Title", appTitle)
	if chat.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	logging.InfoMsg("Sending %s request to OpenRouter: %s", streamLabel(chat.Stream), c.URL)
	resp, err := c.Client.Do(req)
	if err != nil {
		logging.ErrorMsg("OpenRouter request failed: %v", err)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	return resp, nil
}

func streamLabel(stream bool) string {
	if stream {
		return "streaming"
	}
	return "json"
}

func (c *Client) Close() {
	c.Client.CloseIdleConnections()
}

// Error is a non-2xx reply from the completions API.
type Error struct {
	Status     int
	StatusText string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("OpenRouter API error: %d %s - %s", e.Status, e.StatusText, e.Body)
}

// KeyLimitExceeded reports whether the API key has used up its credit.
func (e *Error) KeyLimitExceeded() bool {
	return e.Status == http.StatusForbidden && strings.Contains(e.Body, "Key limit exceeded")
}

// ReadError drains resp into an *Error.
func ReadError(resp *http.Response) *Error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.ErrorMsg("Failed to read upstream error body: %v", err)
	}
	return &Error{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Body:       string(body),
	}
}

func statusText(resp *http.Response) string {
	code := fmt.Sprintf("%d ", resp.StatusCode)
	if text, ok := strings.CutPrefix(resp.Status, code); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func IsSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
