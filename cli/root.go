// Package cli wires the chat-relay commands.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envFiles are loaded in order; earlier files win and real environment
// variables win over both.
var envFiles = []string{".env.local", ".env"}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chat-relay",
		Short:         "Landing page, chat page and OpenRouter chat relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newChatCommand())
	return root
}

// loadEnvFiles loads whichever of envFiles exist.
func loadEnvFiles(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}
