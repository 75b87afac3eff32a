// Command llmdock deploys a local LLM chat stack on Docker.
package main

import (
	"os"

	"github.com/llmdock/llmdock/cmd/llmdock/app"
)

func main() {
	cmd := app.NewLLMDockCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
