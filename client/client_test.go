package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-relay/config"
	"chat-relay/downstream"
	"chat-relay/logging"
	"chat-relay/upstream"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logging.SetOutput(io.Discard)
}

type collector struct {
	content   strings.Builder
	errs      []error
	completed int
}

func (c *collector) OnContent(content string) { c.content.WriteString(content) }
func (c *collector) OnError(err error)        { c.errs = append(c.errs, err) }
func (c *collector) OnComplete()              { c.completed++ }

func startRelay(t *testing.T, cfg *config.Config) *Client {
	t.Helper()
	relay := downstream.NewRelay(cfg, upstream.NewClient(cfg.UpstreamURL, cfg.APIKey, cfg.Referer()))
	srv := httptest.NewServer(downstream.NewRouter(relay))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/chat")
}

func startUpstream(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		APIKey:      "sk-or-test",
		Model:       "openai/gpt-4o-mini",
		Environment: config.Test,
		Port:        "3000",
		UpstreamURL: upstreamURL,
	}
}

var hello = []downstream.Message{{Role: "user", Content: "hi"}}

func TestSendMock(t *testing.T) {
	cfg := testConfig("")
	cfg.UseMock = true
	c := startRelay(t, cfg)

	reply, err := c.Send(context.Background(), hello)
	require.NoError(t, err)
	assert.Equal(t, "assistant", reply.Role)
	assert.Contains(t, reply.Content, "mock AI response")
}

func TestSendLive(t *testing.T) {
	url := startUpstream(t, http.StatusOK, `{"id":"gen-1","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there!"},"finish_reason":"stop"}]}`)
	c := startRelay(t, testConfig(url))

	reply, err := c.Send(context.Background(), hello)
	require.NoError(t, err)
	assert.Equal(t, downstream.Message{Role: "assistant", Content: "Hi there!"}, reply)
}

func TestSendRelayError(t *testing.T) {
	url := startUpstream(t, http.StatusUnauthorized, "No auth credentials found")
	c := startRelay(t, testConfig(url))

	_, err := c.Send(context.Background(), hello)
	require.Error(t, err)

	var relayErr *RelayError
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, http.StatusInternalServerError, relayErr.Status)
	assert.Equal(t, "Failed to process chat request", relayErr.Message)
	assert.Contains(t, relayErr.Details, "No auth credentials found")
}

func TestStreamParsesEvents(t *testing.T) {
	events := ": OPENROUTER PROCESSING\n\n" +
		"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo!\"}}]}\n\n" +
		"data: [DONE]\n\n"
	url := startUpstream(t, http.StatusOK, events)
	c := startRelay(t, testConfig(url))

	var got collector
	require.NoError(t, c.Stream(context.Background(), hello, &got))

	assert.Equal(t, "Hello!", got.content.String())
	assert.Empty(t, got.errs)
	assert.Equal(t, 1, got.completed)
}

func TestStreamSkipsBadChunks(t *testing.T) {
	events := "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n" +
		"data: {broken\n\n"
	url := startUpstream(t, http.StatusOK, events)
	c := startRelay(t, testConfig(url))

	var got collector
	require.NoError(t, c.Stream(context.Background(), hello, &got))

	assert.Equal(t, "ok", got.content.String())
	assert.Len(t, got.errs, 1)
	assert.Equal(t, 1, got.completed)
}

func TestStreamFallsBackToJSONReply(t *testing.T) {
	cfg := testConfig("")
	cfg.UseMock = true
	c := startRelay(t, cfg)

	var got collector
	require.NoError(t, c.Stream(context.Background(), hello, &got))

	assert.Contains(t, got.content.String(), "mock AI response")
	assert.Equal(t, 1, got.completed)
}

func TestStreamQuotaReply(t *testing.T) {
	url := startUpstream(t, http.StatusForbidden, "Key limit exceeded")
	c := startRelay(t, testConfig(url))

	var got collector
	require.NoError(t, c.Stream(context.Background(), hello, &got))
	assert.Contains(t, got.content.String(), "exceeded its limit")
}

func TestRelayErrorMessage(t *testing.T) {
	assert.Equal(t, "relay error (HTTP 500): Failed to process chat request",
		(&RelayError{Status: 500, Message: "Failed to process chat request"}).Error())
	assert.Equal(t, "relay error (HTTP 500): Failed: boom",
		(&RelayError{Status: 500, Message: "Failed", Details: "boom"}).Error())
}

func TestNewDefaultsURL(t *testing.T) {
	assert.Equal(t, DefaultURL, New("").url)
}
