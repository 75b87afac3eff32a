// Package app provides the command-line interface implementation for
// llmdock.
//
// Commands are organized with cobra: a root command that defaults to a
// full deployment, plus subcommands for reset, status, logs and
// version. Each command lives in its own file with an options struct
// embedding the shared GlobalOptions.
package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llmdock/llmdock/internal/config"
	"github.com/llmdock/llmdock/internal/logger"
	"github.com/llmdock/llmdock/internal/stack"
)

const (
	// cliName is the name of the CLI application
	cliName = "llmdock"

	// cliDescription is the short description shown in help text
	cliDescription = "llmdock - local LLM chat stack on Docker"
)

// GlobalOptions holds options that are common to all commands
type GlobalOptions struct {
	// ConfigPath overrides the settings file location
	ConfigPath string

	// Verbose enables debug output
	Verbose bool
}

// NewLLMDockCommand creates the root llmdock command with all
// subcommands.
//
// Running the root command with no subcommand performs a full
// deployment, so `llmdock` on its own brings the stack up.
func NewLLMDockCommand() *cobra.Command {
	opts := &GlobalOptions{}
	var reset bool

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `llmdock provisions a local LLM chat stack on Docker: an Ollama model
server and an Open WebUI frontend, joined on a private network, with GPU
passthrough when the host supports it.

Running llmdock with no arguments deploys the full stack. Use the reset
subcommand to remove the containers and their data volumes.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				return runReset(cmd, opts)
			}
			return runUp(cmd, opts, false)
		},
	}

	// Kept for compatibility with the original deploy script's surface.
	cmd.Flags().BoolVar(&reset, "reset", false,
		"remove the stack's containers and volumes instead of deploying")

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		fmt.Sprintf("settings file (default: %s)", config.DefaultSettingsPath()))
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(
		NewUpCommand(opts),
		NewResetCommand(opts),
		NewStatusCommand(opts),
		NewLogsCommand(opts),
		NewVersionCommand(opts),
	)

	return cmd
}

// loadSettings loads the settings file and configures logging. Every
// command goes through here before touching the runtime.
func loadSettings(opts *GlobalOptions) (*config.Settings, error) {
	settings, err := config.LoadSettings(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(settings.LogFile, opts.Verbose); err != nil {
		return nil, err
	}
	return settings, nil
}

// newStack loads settings and connects to the Docker daemon. The daemon
// check runs before anything else so a missing runtime is the very
// first observable failure.
func newStack(cmd *cobra.Command, opts *GlobalOptions) (*stack.Stack, *config.Settings, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, nil, err
	}

	st, err := stack.New(cmd.Context(), settings)
	if err != nil {
		return nil, nil, err
	}
	return st, settings, nil
}
