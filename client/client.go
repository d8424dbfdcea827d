// Package client talks to a running chat relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"chat-relay/downstream"

	"github.com/tmaxmax/go-sse"
)

const DefaultURL = "http://localhost:3000/api/chat"

// StreamHandler receives a streamed reply as it arrives.
type StreamHandler interface {
	OnContent(content string)
	OnError(err error)
	OnComplete()
}

// RelayError is the relay's 500 reply.
type RelayError struct {
	Status  int
	Message string
	Details string
}

func (e *RelayError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("relay error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("relay error (HTTP %d): %s: %s", e.Status, e.Message, e.Details)
}

type Client struct {
	url        string
	httpClient *http.Client
}

func New(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{},
	}
}

// Send posts the conversation and returns the assistant's reply.
func (c *Client) Send(ctx context.Context, messages []downstream.Message) (downstream.Message, error) {
	resp, err := c.post(ctx, chatRequest{Messages: messages})
	if err != nil {
		return downstream.Message{}, err
	}
	defer resp.Body.Close()

	return decodeReply(resp.Body)
}

// Stream posts the conversation with streaming requested and feeds the reply
// to handler. Relays in mock mode, or answering a spent key, still reply with
// a single JSON completion; that arrives as one OnContent call.
func (c *Client) Stream(ctx context.Context, messages []downstream.Message, handler StreamHandler) error {
	resp, err := c.post(ctx, chatRequest{Messages: messages, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if isJSON(resp) {
		msg, err := decodeReply(resp.Body)
		if err != nil {
			handler.OnError(err)
			return err
		}
		handler.OnContent(msg.Content)
		handler.OnComplete()
		return nil
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			err = fmt.Errorf("read stream: %w", err)
			handler.OnError(err)
			return err
		}
		if ev.Data == "" {
			continue
		}
		if ev.Data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			handler.OnError(fmt.Errorf("unmarshal chunk: %w", err))
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			handler.OnContent(chunk.Choices[0].Delta.Content)
		}
	}

	handler.OnComplete()
	return nil
}

type chatRequest struct {
	Messages []downstream.Message `json:"messages"`
	Stream   bool                 `json:"stream,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *Client) post(ctx context.Context, chat chatRequest) (*http.Response, error) {
	body, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readRelayError(resp)
	}
	return resp, nil
}

func readRelayError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var body downstream.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return &RelayError{Status: resp.StatusCode, Message: string(raw)}
	}
	return &RelayError{Status: resp.StatusCode, Message: body.Error, Details: body.Details}
}

func decodeReply(r io.Reader) (downstream.Message, error) {
	var completion downstream.CompletionResponse
	if err := json.NewDecoder(r).Decode(&completion); err != nil {
		return downstream.Message{}, fmt.Errorf("decode reply: %w", err)
	}
	if len(completion.Choices) == 0 {
		return downstream.Message{}, errors.New("reply has no choices")
	}
	return completion.Choices[0].Message, nil
}

func isJSON(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
