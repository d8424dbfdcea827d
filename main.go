package main

import (
	"os"

	"chat-relay/cli"
	"chat-relay/logging"
)

func main() {
	logging.Init()

	if err := cli.NewRootCommand().Execute(); err != nil {
		logging.ErrorMsg("%v", err)
		os.Exit(1)
	}
}
