package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-relay/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logging.SetOutput(io.Discard)
}

func TestCompleteSendsHeadersAndBody(t *testing.T) {
	var (
		gotHeader http.Header
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-or-test", "http://localhost:3000")
	defer c.Close()

	messages := []json.RawMessage{json.RawMessage(`{"id":"m1","role":"user","content":"hi"}`)}
	chat := NewChatRequest("openai/gpt-4o", messages, false)
	resp, err := c.Complete(context.Background(), chat)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer sk-or-test", gotHeader.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "http://localhost:3000", gotHeader.Get("HTTP-Referer"))
	assert.Equal(t, "Next.js AI Chat Starter", gotHeader.Get("X-Title"))
	assert.Empty(t, gotHeader.Get("Accept"))

	assert.Equal(t, "openai/gpt-4o", gotBody["model"])
	assert.Equal(t, 0.7, gotBody["temperature"])
	assert.Equal(t, float64(1000), gotBody["max_tokens"])
	assert.NotContains(t, gotBody, "stream")
	assert.Equal(t, []any{map[string]any{"id": "m1", "role": "user", "content": "hi"}}, gotBody["messages"])
}

func TestNewChatRequestNilMessages(t *testing.T) {
	raw, err := json.Marshal(NewChatRequest("m", nil, false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","messages":[],"temperature":0.7,"max_tokens":1000}`, string(raw))
}

func TestCompleteStreamingSetsFlagAndAccept(t *testing.T) {
	var (
		accept string
		body   ChatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "r")
	resp, err := c.Complete(context.Background(), NewChatRequest("m", nil, true))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "text/event-stream", accept)
	assert.True(t, body.Stream)
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "k", "r")
	_, err := c.Complete(context.Background(), NewChatRequest("m", nil, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream request")
}

func TestReadError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusForbidden)
	rec.WriteString(`{"error":{"message":"Key limit exceeded","code":403}}`)

	uerr := ReadError(rec.Result())

	assert.Equal(t, http.StatusForbidden, uerr.Status)
	assert.Equal(t, "Forbidden", uerr.StatusText)
	assert.True(t, uerr.KeyLimitExceeded())
	assert.Equal(t, `OpenRouter API error: 403 Forbidden - {"error":{"message":"Key limit exceeded","code":403}}`, uerr.Error())
}

func TestKeyLimitExceededNeedsForbidden(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want bool
	}{
		{"quota", Error{Status: 403, Body: "Key limit exceeded"}, true},
		{"other forbidden", Error{Status: 403, Body: "model not allowed"}, false},
		{"quota text wrong status", Error{Status: 429, Body: "Key limit exceeded"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.KeyLimitExceeded())
		})
	}
}
