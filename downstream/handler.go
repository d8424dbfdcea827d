package downstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-relay/config"
	"chat-relay/logging"
	"chat-relay/upstream"

	"github.com/gin-gonic/gin"
)

// TokenCounter estimates prompt size for logging.
type TokenCounter interface {
	Count(texts ...string) (int, error)
}

// Relay answers chat requests from a fixed config. It keeps no state
// between requests.
type Relay struct {
	cfg     *config.Config
	client  *upstream.Client
	counter TokenCounter
	now     func() time.Time
}

func NewRelay(cfg *config.Config, client *upstream.Client) *Relay {
	return &Relay{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}
}

// WithTokenCounter enables prompt token estimates in the request log.
func (r *Relay) WithTokenCounter(counter TokenCounter) *Relay {
	r.counter = counter
	return r
}

func (r *Relay) Handle(c *gin.Context) {
	if err := r.serve(c); err != nil {
		r.sendFailure(c, err)
	}
}

func (r *Relay) serve(c *gin.Context) error {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}

	switch SelectMode(r.cfg, &req) {
	case ModeMock:
		logging.InfoMsg("Using mock AI response")
		r.respondCompletion(c, r.synthesize("chatcmpl-mock", mockContent))
		return nil
	case ModeStream:
		return r.relayStream(c, &req)
	default:
		return r.relayJSON(c, &req)
	}
}

func (r *Relay) relayJSON(c *gin.Context, req *ChatRequest) error {
	resp, err := r.callUpstream(c, req, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !upstream.IsSuccess(resp) {
		return r.handleUpstreamError(c, resp)
	}

	var data json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/json", data)
	return nil
}

func (r *Relay) relayStream(c *gin.Context, req *ChatRequest) error {
	resp, err := r.callUpstream(c, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !upstream.IsSuccess(resp) {
		return r.handleUpstreamError(c, resp)
	}

	var body io.Reader = resp.Body
	recorder, err := NewStreamRecorder(r.cfg.SSELogDir)
	if err != nil {
		logging.ErrorMsg("Failed to create stream recorder: %v", err)
	}
	if recorder != nil {
		defer recorder.Close()
		body = io.TeeReader(resp.Body, recorder)
	}

	streamResponse(c, body)
	return nil
}

func (r *Relay) callUpstream(c *gin.Context, req *ChatRequest, stream bool) (*http.Response, error) {
	r.logForward(req.Conversation(), stream)
	chat := upstream.NewChatRequest(r.cfg.Model, req.Messages, stream)
	return r.client.Complete(c.Request.Context(), chat)
}

func (r *Relay) logForward(messages []Message, stream bool) {
	mode := ModeJSON
	if stream {
		mode = ModeStream
	}
	if r.counter == nil {
		logging.InfoMsg("Forwarding %d messages to OpenRouter (%s)", len(messages), mode)
		return
	}

	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Content
	}
	n, err := r.counter.Count(texts...)
	if err != nil {
		logging.InfoMsg("Forwarding %d messages to OpenRouter (%s)", len(messages), mode)
		return
	}
	logging.InfoMsg("Forwarding %d messages (~%d prompt tokens) to OpenRouter (%s)", len(messages), n, mode)
}

// synthesize builds a single-choice assistant completion that the chat UI
// renders like any other reply.
func (r *Relay) synthesize(idPrefix, content string) *CompletionResponse {
	now := r.now().UnixMilli()
	return &CompletionResponse{
		ID:      fmt.Sprintf("%s-%d", idPrefix, now),
		Object:  "chat.completion",
		Created: now,
		Model:   r.cfg.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
}
