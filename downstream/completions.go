package downstream

import (
	"errors"
	"io"
	"net/http"

	"chat-relay/logging"
	"chat-relay/upstream"

	"github.com/gin-gonic/gin"
)

const streamChunkSize = 32 * 1024

func (r *Relay) sendFailure(c *gin.Context, err error) {
	logging.ErrorMsg("Chat API error: %v", err)
	if c.Writer.Written() {
		return
	}

	resp := ErrorResponse{Error: failureMessage}
	if !r.cfg.IsProduction() {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

// handleUpstreamError turns an exhausted key into a normal assistant reply.
// Every other status comes back as an *upstream.Error.
func (r *Relay) handleUpstreamError(c *gin.Context, resp *http.Response) error {
	uerr := upstream.ReadError(resp)
	logging.ErrorMsg("OpenRouter API error response: %s", uerr.Body)

	if uerr.KeyLimitExceeded() {
		r.respondCompletion(c, r.synthesize("chatcmpl-error", quotaContent))
		return nil
	}
	return uerr
}

func (r *Relay) respondCompletion(c *gin.Context, resp *CompletionResponse) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, resp)
}

// streamResponse copies body to the client as it arrives, unchanged.
func streamResponse(c *gin.Context, body io.Reader) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	buf := make([]byte, streamChunkSize)
	c.Stream(func(w io.Writer) bool {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				logging.ErrorMsg("Failed to write stream: %v", werr)
				return false
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.ErrorMsg("Upstream stream interrupted: %v", err)
			}
			return false
		}
		return true
	})
}
