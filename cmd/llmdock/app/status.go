package app

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	absentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// NewStatusCommand creates the status command.
//
// Status shows the observed state of both managed containers as the
// container runtime reports it.
//
// Usage:
//
//	llmdock status
func NewStatusCommand(globalOpts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of both managed containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, globalOpts)
		},
	}

	return cmd
}

// runStatus queries and prints container states.
func runStatus(cmd *cobra.Command, opts *GlobalOptions) error {
	st, _, err := newStack(cmd, opts)
	if err != nil {
		return err
	}

	statuses, err := st.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s %-14s %-10s %s", "SERVICE", "CONTAINER", "STATE", "URL")))
	for _, s := range statuses {
		state := fmt.Sprintf("%-10s", s.State)
		switch s.State {
		case "running":
			state = runningStyle.Render(state)
		case "absent":
			state = absentStyle.Render(state)
		default:
			state = stoppedStyle.Render(state)
		}
		fmt.Printf("%-10s %-14s %s %s\n", s.Service, s.Container, state, s.URL)
	}

	return nil
}
