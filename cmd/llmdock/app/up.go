package app

import (
	"github.com/spf13/cobra"

	"github.com/llmdock/llmdock/internal/stack"
)

// NewUpCommand creates the up command.
//
// Up performs the full deployment sequence: env file, network, model
// server container, frontend container, health checks, browser. It is
// also what the bare root command runs.
//
// Usage:
//
//	llmdock up [--no-browser]
func NewUpCommand(globalOpts *GlobalOptions) *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Deploy the full stack",
		Long: `Deploy the full stack: create the env file if missing, ensure the
shared network, start or create both containers, verify both services
answer HTTP, then open the frontend in a browser.

A container that already exists is started with its original
configuration; changed settings only apply after llmdock reset.`,
		Example: `  # Deploy with defaults
  llmdock up

  # Deploy without opening a browser
  llmdock up --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd, globalOpts, noBrowser)
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false,
		"do not open the frontend in a browser")

	return cmd
}

// runUp executes the deployment.
func runUp(cmd *cobra.Command, opts *GlobalOptions, noBrowser bool) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	if noBrowser {
		settings.OpenBrowser = false
	}

	st, err := stack.New(cmd.Context(), settings)
	if err != nil {
		return err
	}
	return st.Deploy(cmd.Context())
}
