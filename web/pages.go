// Package web serves the landing page and the browser chat page.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templates embed.FS

// ChatEndpoint is where the chat page posts conversations.
const ChatEndpoint = "/api/chat"

// Register installs the page templates and routes on r.
func Register(r *gin.Engine) error {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", Home)
	r.GET("/chat", Chat)
	return nil
}

func Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "Under Construction",
	})
}

func Chat(c *gin.Context) {
	c.HTML(http.StatusOK, "chat.html", gin.H{
		"Title":    "AI Chat",
		"Endpoint": ChatEndpoint,
	})
}
