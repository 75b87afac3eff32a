package app

import (
	"fmt"
	"os"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"
)

// LogsOptions holds options for the logs command
type LogsOptions struct {
	*GlobalOptions

	// Follow streams new log output until interrupted
	Follow bool

	// Tail limits output to the last N lines
	Tail string
}

// NewLogsCommand creates the logs command.
//
// Logs prints a managed container's output. The service argument is the
// logical name from the settings: "ollama" or "webui".
//
// Usage:
//
//	llmdock logs <service> [--follow] [--tail N]
func NewLogsCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &LogsOptions{
		GlobalOptions: globalOpts,
	}

	cmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Show logs for a managed service",
		Example: `  # Last 100 lines of the model server
  llmdock logs ollama --tail 100

  # Follow the frontend
  llmdock logs webui -f`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ollama", "webui"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false,
		"follow log output")
	cmd.Flags().StringVar(&opts.Tail, "tail", "all",
		"number of lines to show from the end of the logs")

	return cmd
}

// runLogs streams the selected container's logs to the terminal.
func runLogs(cmd *cobra.Command, opts *LogsOptions, service string) error {
	st, settings, err := newStack(cmd, opts.GlobalOptions)
	if err != nil {
		return err
	}

	var containerName string
	switch service {
	case "ollama":
		containerName = settings.Ollama.ContainerName
	case "webui":
		containerName = settings.WebUI.ContainerName
	default:
		return fmt.Errorf("unknown service %q (expected ollama or webui)", service)
	}

	rc, err := st.Logs(cmd.Context(), containerName, opts.Follow, opts.Tail)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	// Container logs are a multiplexed stdout/stderr stream.
	_, err = stdcopy.StdCopy(os.Stdout, os.Stderr, rc)
	return err
}
