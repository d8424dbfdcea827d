package downstream

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the relay at /api/chat and its /relay alias.
func NewRouter(relay *Relay) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	r.GET("/health", HealthCheck)
	r.POST("/api/chat", relay.Handle)
	r.POST("/relay", relay.Handle)

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
