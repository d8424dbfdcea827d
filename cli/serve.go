package cli

import (
	"fmt"

	"chat-relay/config"
	"chat-relay/downstream"
	"chat-relay/logging"
	"chat-relay/tokens"
	"chat-relay/upstream"
	"chat-relay/web"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pages and the chat relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFiles(envFiles...)

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			r, err := NewServer(cfg)
			if err != nil {
				return err
			}

			addr := ":" + cfg.Port
			logging.InfoMsg("Chat relay starting on %s (model %s, mock %v, env %s)", addr, cfg.Model, cfg.UseMock, cfg.Environment)
			return r.Run(addr)
		},
	}
}

// NewServer builds the full application router for cfg.
func NewServer(cfg *config.Config) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	client := upstream.NewClient(cfg.UpstreamURL, cfg.APIKey, cfg.Referer())
	relay := downstream.NewRelay(cfg, client).
		WithTokenCounter(tokens.NewCounter(tokens.DefaultEncoding))

	r := downstream.NewRouter(relay)
	if err := web.Register(r); err != nil {
		return nil, fmt.Errorf("register pages: %w", err)
	}
	return r, nil
}
